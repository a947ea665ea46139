package gridsim

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func smallBatchConfig() *SimConfig {
	cfg := DefaultSimConfig()
	cfg.Trials = 200
	cfg.MinBatchSize = 50
	return cfg
}

func TestSimulateManyDeterministicAcrossWorkerCounts(t *testing.T) {
	cfg := smallBatchConfig()
	cfg.Workers = 1
	serial := testSimulator(t, cfg)

	cfgPar := smallBatchConfig()
	cfgPar.Workers = 4
	parallel := testSimulator(t, cfgPar)

	a, err := serial.SimulateMany(context.Background(), cfg.Trials, 7)
	require.NoError(t, err)
	b, err := parallel.SimulateMany(context.Background(), cfgPar.Trials, 7)
	require.NoError(t, err)

	assert.Equal(t, a.Home, b.Home)
	assert.Equal(t, a.Away, b.Away)
}

func TestSimulateManyPairsStayAligned(t *testing.T) {
	cfg := smallBatchConfig()
	sim := testSimulator(t, cfg)

	batch, err := sim.SimulateMany(context.Background(), cfg.Trials, 11)
	require.NoError(t, err)

	require.Equal(t, len(batch.Home), len(batch.Away))
	assert.Equal(t, cfg.Trials, batch.Completed)
	assert.Equal(t, 0, batch.Failed)
	assert.NotEmpty(t, batch.ID)

	spreads := batch.Spread()
	totals := batch.Total()
	for i := range batch.Home {
		assert.Equal(t, batch.Home[i]-batch.Away[i], spreads[i])
		assert.Equal(t, batch.Home[i]+batch.Away[i], totals[i])
	}
}

func TestSimulateManyRejectsZeroTrials(t *testing.T) {
	sim := testSimulator(t, smallBatchConfig())

	_, err := sim.SimulateMany(context.Background(), 0, 1)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrBatchIntegrity))
}

func TestSimulateManyCancelledBeforeMinimum(t *testing.T) {
	sim := testSimulator(t, smallBatchConfig())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := sim.SimulateMany(ctx, 200, 1)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrBatchIntegrity))

	var bie *BatchIntegrityError
	require.True(t, errors.As(err, &bie))
	assert.Less(t, bie.Completed, 50)
}

func TestSimulateManyReproducibleForSameSeed(t *testing.T) {
	cfg := smallBatchConfig()
	sim := testSimulator(t, cfg)

	a, err := sim.SimulateMany(context.Background(), cfg.Trials, 123)
	require.NoError(t, err)
	b, err := sim.SimulateMany(context.Background(), cfg.Trials, 123)
	require.NoError(t, err)
	c, err := sim.SimulateMany(context.Background(), cfg.Trials, 124)
	require.NoError(t, err)

	assert.Equal(t, a.Home, b.Home)
	assert.Equal(t, a.Away, b.Away)
	assert.NotEqual(t, a.Home, c.Home)
}
