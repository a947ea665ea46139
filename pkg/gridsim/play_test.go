package gridsim

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/exp/rand"
)

func newTestPlaySim(cfg *SimConfig, seed uint64) *PlaySimulator {
	return NewPlaySimulator(cfg, rand.New(rand.NewSource(seed)), nil)
}

func neutralState(cfg *SimConfig) *GameState {
	gs := NewGameState(HomePossession, cfg)
	gs.Yardline = 50
	return gs
}

func TestSimulatePlayDeterministicForSeed(t *testing.T) {
	cfg := DefaultSimConfig()
	offense := testProfile(t, "KC")
	defense := testProfile(t, "BUF")

	a := newTestPlaySim(cfg, 99)
	b := newTestPlaySim(cfg, 99)

	for i := 0; i < 200; i++ {
		gs := neutralState(cfg)
		outA, errA := a.SimulatePlay(offense, defense, gs)
		outB, errB := b.SimulatePlay(offense, defense, neutralState(cfg))
		require.NoError(t, errA)
		require.NoError(t, errB)
		assert.Equal(t, outA, outB, "play %d diverged", i)
	}
}

func TestSimulatePlayRejectsInvalidState(t *testing.T) {
	cfg := DefaultSimConfig()
	ps := newTestPlaySim(cfg, 1)
	gs := neutralState(cfg)
	gs.Down = 7

	_, err := ps.SimulatePlay(testProfile(t, "KC"), testProfile(t, "BUF"), gs)
	require.Error(t, err)
}

func TestSimulatePlayFailsFastOnNaNRate(t *testing.T) {
	cfg := DefaultSimConfig()
	offense := testProfile(t, "KC")
	defense := testProfile(t, "BUF")

	// Force a dropback every play, then poison both sack-rate splits so the
	// failure does not depend on the pressure draw
	offense.PassRateNeutral = 1.0
	offense.QBCleanSackRate = math.NaN()
	offense.QBPressuredSackRate = math.NaN()

	ps := newTestPlaySim(cfg, 1)
	_, err := ps.SimulatePlay(offense, defense, neutralState(cfg))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sack_rate")
}

func TestFourthDownRunsPunt(t *testing.T) {
	cfg := DefaultSimConfig()
	ps := newTestPlaySim(cfg, 3)
	gs := neutralState(cfg)
	gs.Down = 4
	gs.Distance = 9
	gs.Yardline = 30

	out, err := ps.SimulatePlay(testProfile(t, "KC"), testProfile(t, "BUF"), gs)
	require.NoError(t, err)
	require.Equal(t, PlayPunt, out.Type)
	if !out.Blocked {
		assert.GreaterOrEqual(t, out.Net, 10)
	}
}

func TestFourthDownFieldGoalUsesDistanceBand(t *testing.T) {
	cfg := DefaultSimConfig()
	offense := testProfile(t, "KC")
	offense.Dome = true
	defense := testProfile(t, "BUF")

	gs := neutralState(cfg)
	gs.Down = 4
	gs.Distance = 8
	gs.Yardline = 70 // 30 to goal plus the hold makes a 47 yard attempt

	offense.FGMakeMid = 1.0
	ps := newTestPlaySim(cfg, 4)
	out, err := ps.SimulatePlay(offense, defense, gs)
	require.NoError(t, err)
	require.Equal(t, PlayFieldGoal, out.Type)
	assert.True(t, out.Good)

	offense.FGMakeMid = 0.0
	out, err = ps.SimulatePlay(offense, defense, gs)
	require.NoError(t, err)
	require.Equal(t, PlayFieldGoal, out.Type)
	assert.False(t, out.Good)
}

func TestKneelWhenGameIsWon(t *testing.T) {
	cfg := DefaultSimConfig()
	ps := newTestPlaySim(cfg, 5)
	gs := neutralState(cfg)
	gs.Quarter = cfg.Quarters
	gs.Clock = 100
	gs.HomeScore = 24
	gs.AwayScore = 17

	out, err := ps.SimulatePlay(testProfile(t, "KC"), testProfile(t, "BUF"), gs)
	require.NoError(t, err)
	assert.Equal(t, PlayKneel, out.Type)
	assert.Equal(t, -1, out.Yards)
}

func TestPressureProbabilityClamped(t *testing.T) {
	cfg := DefaultSimConfig()
	ps := newTestPlaySim(cfg, 6)
	offense := testProfile(t, "KC")
	defense := testProfile(t, "BUF")

	offense.OLPassBlockGrade = 0
	defense.DLPassRushGrade = 100
	p, err := ps.pressureProbability(offense, defense)
	require.NoError(t, err)
	assert.Equal(t, cfg.PressureRateMax, p)

	offense.OLPassBlockGrade = 100
	defense.DLPassRushGrade = 0
	p, err = ps.pressureProbability(offense, defense)
	require.NoError(t, err)
	assert.Equal(t, cfg.PressureRateMin, p)
}

func TestTurnoverRegressionClamped(t *testing.T) {
	cfg := DefaultSimConfig()
	ps := newTestPlaySim(cfg, 7)
	offense := testProfile(t, "KC")
	offense.TurnoverRegression = 1.9 // within profile bounds, above the sim clamp

	p, err := ps.turnoverRate("int_rate", 0.1, offense)
	require.NoError(t, err)
	assert.InDelta(t, 0.1*cfg.TurnoverRegressionMax, p, 1e-12)
}

func TestClipHelpers(t *testing.T) {
	assert.Equal(t, 0.0, clip01(-0.5))
	assert.Equal(t, 1.0, clip01(1.5))
	assert.Equal(t, 0.3, clip01(0.3))
	assert.Equal(t, 2.0, clamp(1.0, 2.0, 3.0))
	assert.Equal(t, 3.0, clamp(4.0, 2.0, 3.0))
}

func TestLognormalYardsMeanRoughlyMatches(t *testing.T) {
	cfg := DefaultSimConfig()
	ps := newTestPlaySim(cfg, 8)

	var sum float64
	n := 20000
	for i := 0; i < n; i++ {
		sum += ps.lognormalYards(10.0, cfg.PassYardsSigma)
	}
	assert.InDelta(t, 10.0, sum/float64(n), 0.5)
}
