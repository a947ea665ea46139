package gridsim

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTeamProfileMissingField(t *testing.T) {
	stats := testStats()
	delete(stats, "off_epa")

	_, err := NewTeamProfile("KC", 2025, 5, stats)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMissingData))

	var mde *MissingDataError
	require.True(t, errors.As(err, &mde))
	assert.Equal(t, "off_epa", mde.Field)
	assert.Equal(t, "KC", mde.Team)
}

func TestNewTeamProfileMissingStatusField(t *testing.T) {
	stats := testStats()
	stats["qb_clean_completion_rate"] = MissingStat()

	_, err := NewTeamProfile("KC", 2025, 5, stats)
	require.Error(t, err)

	var mde *MissingDataError
	require.True(t, errors.As(err, &mde))
	assert.Equal(t, "qb_clean_completion_rate", mde.Field)
}

func TestNewTeamProfileRecordsFallbacks(t *testing.T) {
	stats := testStats()
	stats["fg_make_long"] = FallbackStat(0.62, "insufficient attempts")

	p, err := NewTeamProfile("KC", 2025, 5, stats)
	require.NoError(t, err)
	assert.True(t, p.HasFallbacks())
	assert.Contains(t, p.FallbackFields, "fg_make_long=insufficient attempts")
	assert.Equal(t, 0.62, p.FGMakeLong)
}

func TestValidateNamesOutOfRangeMetric(t *testing.T) {
	p := testProfile(t, "KC")
	p.OffYardsPerPlay = 12.5

	err := p.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "off_yards_per_play")
}

func TestValidateRejectsNaN(t *testing.T) {
	p := testProfile(t, "KC")
	p.QBPressuredINTRate = math.NaN()

	err := p.Validate()
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMissingData))
	assert.Contains(t, err.Error(), "qb_pressured_int_rate")
}

func TestValidateRejectsEmptyTeamID(t *testing.T) {
	p := testProfile(t, "KC")
	p.TeamID = ""
	require.Error(t, p.Validate())
}

func TestPassRateByScoreSituation(t *testing.T) {
	p := testProfile(t, "KC")

	assert.Equal(t, p.PassRateTrailing, p.PassRate(-10))
	assert.Equal(t, p.PassRateLeading, p.PassRate(10))
	assert.Equal(t, p.PassRateNeutral, p.PassRate(0))
	// One score either way is still neutral game script
	assert.Equal(t, p.PassRateNeutral, p.PassRate(-7))
	assert.Equal(t, p.PassRateNeutral, p.PassRate(7))
}

func TestFGMakeRateBands(t *testing.T) {
	p := testProfile(t, "KC")
	p.Dome = true

	assert.Equal(t, p.FGMakeShort, p.FGMakeRate(39))
	assert.Equal(t, p.FGMakeMid, p.FGMakeRate(40))
	assert.Equal(t, p.FGMakeMid, p.FGMakeRate(49))
	assert.Equal(t, p.FGMakeLong, p.FGMakeRate(50))
	assert.Equal(t, p.FGMakeLong, p.FGMakeRate(62))
}

func TestFGMakeRateWeatherAppliesOutdoorsOnly(t *testing.T) {
	p := testProfile(t, "GB")
	p.WeatherFactor = 0.85

	p.Dome = false
	assert.InDelta(t, p.FGMakeMid*0.85, p.FGMakeRate(45), 1e-12)

	p.Dome = true
	assert.Equal(t, p.FGMakeMid, p.FGMakeRate(45))
}
