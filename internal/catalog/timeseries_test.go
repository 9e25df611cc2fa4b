package catalog

import (
	"context"
	"encoding/binary"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"printvault/internal/fingerprint"
	"printvault/internal/models"
)

func storedSeries(t *testing.T, f *fixture, id string) models.Timeseries {
	t.Helper()
	series, err := f.store.GetTimeseries(context.Background(), []string{id})
	require.NoError(t, err)
	require.Contains(t, series, id)
	return series[id]
}

func TestCreateTimeseriesNumeric(t *testing.T) {
	f := newFixture(t)

	id, err := f.repo.CreateTimeseries(context.Background(), "bed", [][]int{{1, 5}, {3, -2}})
	require.NoError(t, err)

	series := storedSeries(t, f, id)
	assert.Equal(t, 4, series.ArraySize)
	require.NotNil(t, series.ArraySpan)
	assert.Equal(t, 7.0, *series.ArraySpan)
	assert.Equal(t, []any{[]any{1.0, 5.0}, []any{3.0, -2.0}}, series.Data)

	var raw []byte
	for _, v := range []float64{1, 5, 3, -2} {
		raw = binary.LittleEndian.AppendUint64(raw, math.Float64bits(v))
	}
	assert.Equal(t, fingerprint.SeriesHash("bed", raw), series.HashID)
}

func TestCreateTimeseriesSpanEdges(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	withNaN, err := f.repo.CreateTimeseries(ctx, "nan", []float64{2, math.NaN(), 6})
	require.NoError(t, err)
	series := storedSeries(t, f, withNaN)
	require.NotNil(t, series.ArraySpan)
	assert.Equal(t, 4.0, *series.ArraySpan)
	assert.Nil(t, series.Data[1])

	allNaN, err := f.repo.CreateTimeseries(ctx, "all-nan", []float64{math.NaN()})
	require.NoError(t, err)
	assert.Nil(t, storedSeries(t, f, allNaN).ArraySpan)

	empty, err := f.repo.CreateTimeseries(ctx, "empty", []float64{})
	require.NoError(t, err)
	series = storedSeries(t, f, empty)
	require.NotNil(t, series.ArraySpan)
	assert.Equal(t, 0.0, *series.ArraySpan)
	assert.Equal(t, 0, series.ArraySize)

	text, err := f.repo.CreateTimeseries(ctx, "events", []any{"start", 1, "stop"})
	require.NoError(t, err)
	series = storedSeries(t, f, text)
	assert.Nil(t, series.ArraySpan)
	assert.Equal(t, []any{"start", 1.0, "stop"}, series.Data)

	_, err = f.repo.CreateTimeseries(ctx, "inf", []float64{math.Inf(1)})
	assert.ErrorIs(t, err, models.ErrValidation)
}

func TestCreateTimeseriesKeepsShape(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	grid, err := f.repo.CreateTimeseries(ctx, "grid", [][]float64{{1, 2}, {3, math.NaN()}})
	require.NoError(t, err)
	series := storedSeries(t, f, grid)
	assert.Equal(t, []any{[]any{1.0, 2.0}, []any{3.0, nil}}, series.Data)
	assert.Equal(t, 4, series.ArraySize)
	require.NotNil(t, series.ArraySpan)
	assert.Equal(t, 2.0, *series.ArraySpan)

	flat, err := f.repo.CreateTimeseries(ctx, "grid", []float64{1, 2, 3, math.NaN()})
	require.NoError(t, err)
	assert.Equal(t, series.HashID, storedSeries(t, f, flat).HashID)

	scalar, err := f.repo.CreateTimeseries(ctx, "single", 42)
	require.NoError(t, err)
	series = storedSeries(t, f, scalar)
	assert.Equal(t, []any{42.0}, series.Data)
	assert.Equal(t, 1, series.ArraySize)

	ragged, err := f.repo.CreateTimeseries(ctx, "phases", []any{[]any{"heat", 1}, "print"})
	require.NoError(t, err)
	series = storedSeries(t, f, ragged)
	assert.Equal(t, []any{[]any{"heat", 1.0}, "print"}, series.Data)
	assert.Nil(t, series.ArraySpan)
}

func TestCreateTimeseriesAlwaysInserts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first, err := f.repo.CreateTimeseries(ctx, "nozzle", []float64{210, 211})
	require.NoError(t, err)
	second, err := f.repo.CreateTimeseries(ctx, "nozzle", []float64{210, 211})
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
	assert.Equal(t, storedSeries(t, f, first).HashID, storedSeries(t, f, second).HashID)
}
