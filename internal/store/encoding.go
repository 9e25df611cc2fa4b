package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"printvault/internal/models"
)

type scanner interface {
	Scan(dest ...any) error
}

func placeholders(count int) string {
	if count <= 0 {
		return ""
	}
	return strings.TrimRight(strings.Repeat("?,", count), ",")
}

func idArgs(ids []string) []any {
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	return args
}

// uniqueIDs drops empty and repeated ids, keeping first-seen order.
func uniqueIDs(ids []string) []string {
	out := make([]string, 0, len(ids))
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

func nullIfEmpty(value string) any {
	if value == "" {
		return nil
	}
	return value
}

// timeLayout is fixed width so stored timestamps sort lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	return time.Parse(time.RFC3339Nano, value)
}

func toJSON(field string, value any) (string, error) {
	data, err := json.Marshal(value)
	if err != nil {
		return "", fmt.Errorf("marshal %s: %w", field, err)
	}
	return string(data), nil
}

func fromJSON(field string, raw sql.NullString, dest any) error {
	if !raw.Valid || raw.String == "" {
		return nil
	}
	if err := json.Unmarshal([]byte(raw.String), dest); err != nil {
		return fmt.Errorf("parse %s: %w", field, err)
	}
	return nil
}

func metadataJSON(field string, m models.Metadata) (string, error) {
	if m == nil {
		m = models.Metadata{}
	}
	return toJSON(field, m)
}

func idsJSON(field string, ids []string) (string, error) {
	if ids == nil {
		ids = []string{}
	}
	return toJSON(field, ids)
}

func decodeMetadata(field string, raw sql.NullString) (models.Metadata, error) {
	out := models.Metadata{}
	if err := fromJSON(field, raw, &out); err != nil {
		return nil, err
	}
	if out == nil {
		out = models.Metadata{}
	}
	return out, nil
}

func decodeIDs(field string, raw sql.NullString) ([]string, error) {
	out := []string{}
	if err := fromJSON(field, raw, &out); err != nil {
		return nil, err
	}
	if out == nil {
		out = []string{}
	}
	return out, nil
}
