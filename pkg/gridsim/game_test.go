package gridsim

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSimulateOneDeterministic(t *testing.T) {
	sim := testSimulator(t, nil)

	first, err := sim.SimulateOne(42)
	require.NoError(t, err)
	second, err := sim.SimulateOne(42)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestSimulateOneVariesAcrossSeeds(t *testing.T) {
	sim := testSimulator(t, nil)

	scores := make(map[FinalScore]int)
	for seed := uint64(0); seed < 50; seed++ {
		score, err := sim.SimulateOne(seed)
		require.NoError(t, err)
		scores[score]++
	}
	// Fifty independent games collapsing to one score would mean the seed
	// is not reaching the random stream
	assert.Greater(t, len(scores), 1)
}

func TestSimulateOneScoresArePlausible(t *testing.T) {
	sim := testSimulator(t, nil)

	var totalSum int
	n := 200
	for seed := uint64(0); seed < uint64(n); seed++ {
		score, err := sim.SimulateOne(seed)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, score.Home, 0)
		assert.GreaterOrEqual(t, score.Away, 0)
		assert.Less(t, score.Home, 100)
		assert.Less(t, score.Away, 100)
		totalSum += score.Home + score.Away
	}
	avgTotal := float64(totalSum) / float64(n)
	assert.Greater(t, avgTotal, 20.0)
	assert.Less(t, avgTotal, 80.0)
}

func TestDriveNeverExceedsPlayCap(t *testing.T) {
	cfg := DefaultSimConfig()
	cfg.MaxPlaysPerDrive = 4
	sim := testSimulator(t, cfg)

	for seed := uint64(0); seed < 25; seed++ {
		stats := &GameStats{}
		_, err := sim.SimulateOneTraced(seed, nil, stats)
		require.NoError(t, err)
		require.Greater(t, stats.Drives, 0)
		assert.LessOrEqual(t, stats.Plays, stats.Drives*cfg.MaxPlaysPerDrive)
	}
}

func TestNewGameSimulatorValidatesInputs(t *testing.T) {
	home := testProfile(t, "KC")
	away := testProfile(t, "BUF")

	_, err := NewGameSimulator(nil, home, away)
	require.Error(t, err)

	bad := testProfile(t, "NYJ")
	bad.PassRateNeutral = 1.7
	_, err = NewGameSimulator(DefaultSimConfig(), home, bad)
	require.Error(t, err)
}

func TestGameStatsAggregation(t *testing.T) {
	stats := &GameStats{}
	stats.addDrive(&DriveRecord{Result: DriveTouchdown, Plays: 8, Points: 7})
	stats.addDrive(&DriveRecord{Result: DrivePunt, Plays: 3})
	stats.addDrive(&DriveRecord{Result: DriveFieldGoal, Plays: 6, Points: 3})
	stats.addDrive(&DriveRecord{Result: DriveTurnover, Plays: 2})

	assert.Equal(t, 4, stats.Drives)
	assert.Equal(t, 19, stats.Plays)
	assert.Equal(t, 10, stats.Points)
	assert.Equal(t, 1, stats.Touchdowns)
	assert.Equal(t, 1, stats.FieldGoals)
	assert.Equal(t, 1, stats.Punts)
	assert.Equal(t, 1, stats.Turnovers)
}

func TestSimulateOneGamesFillRegulation(t *testing.T) {
	sim := testSimulator(t, nil)

	// Every simulated game must produce a reasonable number of drives;
	// a handful would mean the clock is not being consumed correctly.
	for seed := uint64(100); seed < 110; seed++ {
		stats := &GameStats{}
		_, err := sim.SimulateOneTraced(seed, nil, stats)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, stats.Drives, 8)
		assert.LessOrEqual(t, stats.Drives, 40)
	}
}
