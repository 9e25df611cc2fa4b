package store

import (
	"context"
	"crypto/rand"
	"database/sql"
	"fmt"

	"printvault/internal/models"
)

const (
	base36Alphabet = "0123456789abcdefghijklmnopqrstuvwxyz"
	idMaxAttempts  = 20
)

// GenerateID returns a new id with the kind prefix. It retries on
// collisions using the provided exists function.
func GenerateID(kind models.Kind, exists func(string) (bool, error)) (string, error) {
	if kind == "" {
		return "", fmt.Errorf("id kind is required")
	}

	for i := 0; i < idMaxAttempts; i++ {
		hash, err := randomBase36(models.IDHashLength)
		if err != nil {
			return "", err
		}
		id := string(kind) + "-" + hash
		if exists == nil {
			return id, nil
		}
		ok, err := exists(id)
		if err != nil {
			return "", err
		}
		if !ok {
			return id, nil
		}
	}

	return "", fmt.Errorf("unable to generate unique %s id", kind)
}

func randomBase36(length int) (string, error) {
	b := make([]byte, length)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	out := make([]byte, length)
	for i := 0; i < length; i++ {
		out[i] = base36Alphabet[int(b[i])%len(base36Alphabet)]
	}
	return string(out), nil
}

var kindTables = map[models.Kind]string{
	models.KindBlob:            "blobs",
	models.KindSession:         "sessions",
	models.KindObject:          "objects",
	models.KindPrintJob:        "print_jobs",
	models.KindPrinter:         "printers",
	models.KindImage:           "images",
	models.KindImageCollection: "image_collections",
	models.KindTimeseries:      "timeseries",
	models.KindDictionary:      "dictionaries",
	models.KindScript:          "scripts",
}

func tableFor(kind models.Kind) (string, error) {
	table, ok := kindTables[kind]
	if !ok {
		return "", fmt.Errorf("unknown collection %q", kind)
	}
	return table, nil
}

// newID generates an id that is not yet used in the kind's table.
func (s *Store) newID(ctx context.Context, kind models.Kind) (string, error) {
	table, err := tableFor(kind)
	if err != nil {
		return "", err
	}
	return GenerateID(kind, func(id string) (bool, error) {
		var exists int
		err := s.db.QueryRowContext(ctx, "SELECT 1 FROM "+table+" WHERE id = ? LIMIT 1", id).Scan(&exists)
		if err == sql.ErrNoRows {
			return false, nil
		}
		if err != nil {
			return false, err
		}
		return true, nil
	})
}
