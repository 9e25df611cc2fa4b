package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"printvault/internal/models"
)

const timeseriesColumns = "id, name, data_json, array_size, array_span, hash_id, created_at"

// CreateTimeseries inserts a series row, generating its id when empty.
func (s *Store) CreateTimeseries(ctx context.Context, series *models.Timeseries) error {
	if series == nil {
		return fmt.Errorf("timeseries is required")
	}
	if series.ID == "" {
		id, err := s.newID(ctx, models.KindTimeseries)
		if err != nil {
			return err
		}
		series.ID = id
	}
	if series.CreatedAt.IsZero() {
		series.CreatedAt = time.Now().UTC()
	}

	data := series.Data
	if data == nil {
		data = []any{}
	}
	encoded, err := toJSON("data_json", data)
	if err != nil {
		return err
	}
	var span any
	if series.ArraySpan != nil {
		span = *series.ArraySpan
	}

	_, err = s.db.ExecContext(ctx, `INSERT INTO timeseries (`+timeseriesColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		series.ID, series.Name, encoded, series.ArraySize, span, series.HashID, formatTime(series.CreatedAt))
	return err
}

// GetTimeseries returns the series for ids keyed by id. Unknown ids are absent.
func (s *Store) GetTimeseries(ctx context.Context, ids []string) (map[string]models.Timeseries, error) {
	ids = uniqueIDs(ids)
	out := make(map[string]models.Timeseries, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	rows, err := s.db.QueryContext(ctx, `SELECT `+timeseriesColumns+` FROM timeseries WHERE id IN (`+placeholders(len(ids))+`)`, idArgs(ids)...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		series, err := scanTimeseries(rows)
		if err != nil {
			return nil, err
		}
		if series != nil {
			out[series.ID] = *series
		}
	}
	return out, rows.Err()
}

func scanTimeseries(row scanner) (*models.Timeseries, error) {
	series := models.Timeseries{}
	var data sql.NullString
	var span sql.NullFloat64
	var createdAt string

	err := row.Scan(&series.ID, &series.Name, &data, &series.ArraySize, &span, &series.HashID, &createdAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}

	series.Data = []any{}
	if err := fromJSON("data_json", data, &series.Data); err != nil {
		return nil, err
	}
	if span.Valid {
		value := span.Float64
		series.ArraySpan = &value
	}
	if series.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	return &series, nil
}
