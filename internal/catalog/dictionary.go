package catalog

import (
	"context"
	"fmt"
	"sort"

	"printvault/internal/models"
)

// GetOrCreateDictionary returns the mapping for a (printer, slicer) pair,
// creating an empty one when the pair is new. The empty pair addresses the
// global dictionary.
func (r *Repository) GetOrCreateDictionary(ctx context.Context, printer, slicer string) (map[string]string, string, error) {
	var dict *models.Dictionary
	err := r.guard.Do(ctx, dictionaryKey(printer, slicer), func(ctx context.Context) error {
		var err error
		dict, err = r.dictionary(ctx, printer, slicer)
		return err
	})
	if err != nil {
		return nil, "", err
	}
	return dict.Mapping, dict.ID, nil
}

// ReplaceDictionary overwrites the mapping stored under id. The global
// dictionary only grows through MergeIntoGlobal and cannot be replaced.
func (r *Repository) ReplaceDictionary(ctx context.Context, id string, mapping map[string]string) error {
	if err := models.ValidateID(models.KindDictionary, id); err != nil {
		return err
	}
	current, err := r.store.GetDictionary(ctx, id)
	if err != nil {
		return fmt.Errorf("lookup dictionary %s: %w", id, err)
	}
	if current == nil {
		return models.NotFoundf("dictionary %s", id)
	}
	if current.IsGlobal() {
		return models.Invalidf("dictionary %s is the global dictionary; use merge to add names", id)
	}
	ok, err := r.store.ReplaceDictionary(ctx, id, mapping)
	if err != nil {
		return fmt.Errorf("replace dictionary %s: %w", id, err)
	}
	if !ok {
		return models.NotFoundf("dictionary %s", id)
	}
	r.logger.Info("dictionary replaced", "dictionary_id", id, "entries", len(mapping))
	return nil
}

// MergeIntoGlobal registers every canonical name used as a value in
// mapping. Names already present are kept; nothing is removed.
func (r *Repository) MergeIntoGlobal(ctx context.Context, mapping map[string]string) error {
	return r.guard.Do(ctx, dictionaryKey("", ""), func(ctx context.Context) error {
		global, err := r.dictionary(ctx, "", "")
		if err != nil {
			return err
		}

		merged := make(map[string]string, len(global.Mapping)+len(mapping))
		for k, v := range global.Mapping {
			merged[k] = v
		}
		added := 0
		for _, name := range mapping {
			if _, ok := merged[name]; !ok {
				merged[name] = name
				added++
			}
		}
		if added == 0 {
			return nil
		}

		ok, err := r.store.ReplaceDictionary(ctx, global.ID, merged)
		if err != nil {
			return fmt.Errorf("update global dictionary: %w", err)
		}
		if !ok {
			return models.NotFoundf("dictionary %s", global.ID)
		}
		r.logger.Info("global dictionary extended", "added", added)
		return nil
	})
}

// GlobalKeys returns the canonical names of the global dictionary, sorted.
func (r *Repository) GlobalKeys(ctx context.Context) ([]string, error) {
	mapping, _, err := r.GetOrCreateDictionary(ctx, "", "")
	if err != nil {
		return nil, err
	}
	keys := make([]string, 0, len(mapping))
	for k := range mapping {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys, nil
}

// ListDictionaries returns every stored dictionary.
func (r *Repository) ListDictionaries(ctx context.Context) ([]models.Dictionary, error) {
	dicts, err := r.store.ListDictionaries(ctx)
	if err != nil {
		return nil, fmt.Errorf("list dictionaries: %w", err)
	}
	return dicts, nil
}

// dictionary finds or creates the pair's dictionary. Callers hold the
// pair's guard.
func (r *Repository) dictionary(ctx context.Context, printer, slicer string) (*models.Dictionary, error) {
	dict, err := r.store.FindDictionary(ctx, printer, slicer)
	if err != nil {
		return nil, fmt.Errorf("lookup dictionary: %w", err)
	}
	if dict != nil {
		return dict, nil
	}

	dict = &models.Dictionary{Printer: printer, Slicer: slicer, Mapping: map[string]string{}}
	if err := r.store.CreateDictionary(ctx, dict); err != nil {
		return nil, fmt.Errorf("create dictionary: %w", err)
	}
	r.logger.Info("dictionary created", "dictionary_id", dict.ID, "printer", printer, "slicer", slicer)
	return dict, nil
}

func dictionaryKey(printer, slicer string) string {
	if printer == "" && slicer == "" {
		return "dict:global"
	}
	return "dict:" + printer + "|" + slicer
}
