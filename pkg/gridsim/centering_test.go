package gridsim

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat"
)

func batchOf(home, away []float64) *SimulationBatch {
	return &SimulationBatch{
		ID:        "test-batch",
		Home:      home,
		Away:      away,
		Requested: len(home),
		Completed: len(home),
	}
}

func randomBatch(n int, seed uint64) *SimulationBatch {
	rng := rand.New(rand.NewSource(seed))
	home := make([]float64, n)
	away := make([]float64, n)
	for i := 0; i < n; i++ {
		home[i] = 24 + rng.NormFloat64()*10
		away[i] = 21 + rng.NormFloat64()*10
	}
	return batchOf(home, away)
}

func TestCenterExactMeanAlignment(t *testing.T) {
	cfg := DefaultSimConfig()
	batch := batchOf([]float64{24, 30, 21}, []float64{20, 17, 24})

	centered, err := Center(batch, -3, 44, cfg)
	require.NoError(t, err)

	meanSpread := stat.Mean(centered.Home, nil) - stat.Mean(centered.Away, nil)
	meanTotal := stat.Mean(centered.Home, nil) + stat.Mean(centered.Away, nil)
	assert.InDelta(t, -3.0, meanSpread, cfg.CenterEpsilon)
	assert.InDelta(t, 44.0, meanTotal, cfg.CenterEpsilon)
}

func TestCenterDoesNotMutateRawBatch(t *testing.T) {
	cfg := DefaultSimConfig()
	batch := batchOf([]float64{24, 30, 21}, []float64{20, 17, 24})
	homeCopy := append([]float64(nil), batch.Home...)
	awayCopy := append([]float64(nil), batch.Away...)

	_, err := Center(batch, -3, 44, cfg)
	require.NoError(t, err)
	assert.Equal(t, homeCopy, batch.Home)
	assert.Equal(t, awayCopy, batch.Away)
}

func TestCenterScalesShapeExactly(t *testing.T) {
	cfg := DefaultSimConfig()
	batch := randomBatch(2000, 17)

	centered, err := Center(batch, -2.5, 47.5, cfg)
	require.NoError(t, err)
	require.False(t, centered.Degenerate)

	// Deviations are multiplied by one shared factor and then shifted, so
	// the centered standard deviations are the raw ones times the scale.
	assert.InDelta(t, centered.RawSpreadStdev*centered.Scale, centered.SpreadStdev(), 1e-9)
	assert.InDelta(t, centered.RawTotalStdev*centered.Scale, centered.TotalStdev(), 1e-9)
}

func TestCenterClipsExtremeScale(t *testing.T) {
	cfg := DefaultSimConfig()
	batch := randomBatch(500, 23)

	// Market total far above the raw mean forces the clip, but the means
	// must still land exactly on the market.
	centered, err := Center(batch, 0, 90, cfg)
	require.NoError(t, err)
	assert.True(t, centered.ScaleClipped)
	assert.Equal(t, cfg.CenterScaleMax, centered.Scale)

	meanTotal := stat.Mean(centered.Home, nil) + stat.Mean(centered.Away, nil)
	assert.InDelta(t, 90.0, meanTotal, cfg.CenterEpsilon)
}

func TestCenterDegenerateBatchFallsBackToAdditive(t *testing.T) {
	cfg := DefaultSimConfig()
	home := make([]float64, 100)
	away := make([]float64, 100)
	for i := range home {
		home[i] = 21
		away[i] = 17
	}

	centered, err := Center(batchOf(home, away), -3, 44, cfg)
	require.NoError(t, err)
	assert.True(t, centered.Degenerate)
	assert.Equal(t, 1.0, centered.Scale)

	meanSpread := stat.Mean(centered.Home, nil) - stat.Mean(centered.Away, nil)
	meanTotal := stat.Mean(centered.Home, nil) + stat.Mean(centered.Away, nil)
	assert.InDelta(t, -3.0, meanSpread, cfg.CenterEpsilon)
	assert.InDelta(t, 44.0, meanTotal, cfg.CenterEpsilon)
}

func TestCenterRejectsTinyBatch(t *testing.T) {
	cfg := DefaultSimConfig()
	_, err := Center(batchOf([]float64{21}, []float64{17}), -3, 44, cfg)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrCenteringDegenerate))
}

func TestCenterOnSimulatedBatch(t *testing.T) {
	cfg := smallBatchConfig()
	sim := testSimulator(t, cfg)

	batch, err := sim.SimulateMany(context.Background(), cfg.Trials, 31)
	require.NoError(t, err)

	centered, err := Center(batch, -3.5, 47.5, cfg)
	require.NoError(t, err)

	meanSpread := stat.Mean(centered.Home, nil) - stat.Mean(centered.Away, nil)
	meanTotal := stat.Mean(centered.Home, nil) + stat.Mean(centered.Away, nil)
	assert.InDelta(t, -3.5, meanSpread, cfg.CenterEpsilon)
	assert.InDelta(t, 47.5, meanTotal, cfg.CenterEpsilon)
}
