package gridsim

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCalibrationSampleRates(t *testing.T) {
	sample := &CalibrationSample{}
	sample.Add(&GameStats{
		Drives: 10, Plays: 55, Points: 44,
		Touchdowns: 3, FieldGoals: 2, MissedFieldGoals: 1,
		Punts: 3, Turnovers: 1,
	})
	sample.Add(&GameStats{
		Drives: 10, Plays: 65, Points: 52,
		Touchdowns: 3, FieldGoals: 1, MissedFieldGoals: 0,
		Punts: 4, Turnovers: 2,
	})

	assert.Equal(t, 2, sample.Games)
	assert.InDelta(t, 6.0, sample.PlaysPerDrive(), 1e-12)
	assert.InDelta(t, 48.0, sample.PointsPerGame(), 1e-12)
	assert.InDelta(t, 0.3, sample.TouchdownRate(), 1e-12)
	assert.InDelta(t, 0.75, sample.FieldGoalMakeRate(), 1e-12)
	assert.InDelta(t, 0.15, sample.TurnoverRate(), 1e-12)
	assert.InDelta(t, 0.35, sample.PuntRate(), 1e-12)
}

func TestCalibrationEmptySampleRatesAreZero(t *testing.T) {
	sample := &CalibrationSample{}
	assert.Equal(t, 0.0, sample.PlaysPerDrive())
	assert.Equal(t, 0.0, sample.PointsPerGame())
	assert.Equal(t, 0.0, sample.FieldGoalMakeRate())
}

func TestEvaluateCalibrationBands(t *testing.T) {
	sample := &CalibrationSample{Games: 1}
	sample.Stats = GameStats{Drives: 10, Plays: 58, Points: 45,
		Touchdowns: 2, FieldGoals: 2, MissedFieldGoals: 0,
		Punts: 4, Turnovers: 1}

	results := EvaluateCalibration(sample, DefaultCalibrationTargets())
	require.Len(t, results, len(DefaultCalibrationTargets()))
	assert.True(t, CalibrationPasses(results))

	// Break one band and the report must name the failure
	sample.Stats.Points = 200
	results = EvaluateCalibration(sample, DefaultCalibrationTargets())
	assert.False(t, CalibrationPasses(results))
	var failed *CalibrationResult
	for i := range results {
		if !results[i].Pass {
			failed = &results[i]
		}
	}
	require.NotNil(t, failed)
	assert.Equal(t, "points per game", failed.Name)
	assert.Contains(t, failed.String(), "FAIL")
}

func TestRunCalibrationAgainstDefaults(t *testing.T) {
	if testing.Short() {
		t.Skip("calibration run is slow")
	}
	sim := testSimulator(t, nil)

	sample, err := RunCalibration(sim, 300, 1)
	require.NoError(t, err)
	require.Equal(t, 300, sample.Games)

	results := EvaluateCalibration(sample, DefaultCalibrationTargets())
	for _, r := range results {
		assert.True(t, r.Pass, r.String())
	}
}

func TestRunCalibrationReproducible(t *testing.T) {
	sim := testSimulator(t, nil)

	a, err := RunCalibration(sim, 20, 9)
	require.NoError(t, err)
	b, err := RunCalibration(sim, 20, 9)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}
