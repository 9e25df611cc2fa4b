package store

import (
	"errors"
	"strings"
	"testing"

	"printvault/internal/models"
)

func TestGenerateID(t *testing.T) {
	t.Run("valid kind", func(t *testing.T) {
		id, err := GenerateID(models.KindSession, nil)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if err := models.ValidateID(models.KindSession, id); err != nil {
			t.Fatalf("generated id %q does not validate: %v", id, err)
		}
	})

	t.Run("every kind uses its two letter prefix", func(t *testing.T) {
		kinds := []models.Kind{
			models.KindBlob, models.KindSession, models.KindObject, models.KindPrintJob,
			models.KindPrinter, models.KindImage, models.KindImageCollection,
			models.KindTimeseries, models.KindDictionary, models.KindScript,
		}
		for _, kind := range kinds {
			id, err := GenerateID(kind, nil)
			if err != nil {
				t.Fatalf("generate %s id: %v", kind, err)
			}
			if !strings.HasPrefix(id, string(kind)+"-") {
				t.Fatalf("expected prefix %q, got %q", string(kind)+"-", id)
			}
			if err := models.ValidateID(kind, id); err != nil {
				t.Fatalf("generated %s id %q does not validate: %v", kind, id, err)
			}
		}
	})

	t.Run("empty kind", func(t *testing.T) {
		if _, err := GenerateID("", nil); err == nil {
			t.Fatal("expected error for empty kind")
		}
	})

	t.Run("retries on collision", func(t *testing.T) {
		calls := 0
		exists := func(id string) (bool, error) {
			calls++
			return calls < 3, nil
		}
		id, err := GenerateID(models.KindBlob, exists)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if id == "" {
			t.Fatal("expected non-empty id")
		}
		if calls != 3 {
			t.Fatalf("expected 3 exists calls, got %d", calls)
		}
	})

	t.Run("gives up after max attempts", func(t *testing.T) {
		_, err := GenerateID(models.KindBlob, func(string) (bool, error) { return true, nil })
		if err == nil {
			t.Fatal("expected exhaustion error")
		}
	})

	t.Run("propagates exists error", func(t *testing.T) {
		boom := errors.New("boom")
		_, err := GenerateID(models.KindBlob, func(string) (bool, error) { return false, boom })
		if !errors.Is(err, boom) {
			t.Fatalf("expected boom, got %v", err)
		}
	})
}

func TestRandomBase36Charset(t *testing.T) {
	value, err := randomBase36(64)
	if err != nil {
		t.Fatalf("random: %v", err)
	}
	for _, r := range value {
		if !(r >= '0' && r <= '9') && !(r >= 'a' && r <= 'z') {
			t.Fatalf("unexpected rune %q in %q", r, value)
		}
	}
}
