package gridsim

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// testStats returns a complete, league-average-ish stat map the profile
// constructor accepts. Tests mutate a copy to provoke specific failures.
func testStats() map[string]Stat {
	values := map[string]float64{
		"off_epa":                           0.05,
		"def_epa":                           -0.02,
		"off_pass_epa":                      0.08,
		"off_run_epa":                       -0.03,
		"def_pass_epa":                      -0.05,
		"def_run_epa":                       0.02,
		"off_yards_per_play":                5.6,
		"def_yards_per_play":                5.3,
		"qb_clean_completion_rate":          0.68,
		"qb_clean_yards_per_completion":     11.2,
		"qb_clean_int_rate":                 0.018,
		"qb_clean_sack_rate":                0.03,
		"qb_pressured_completion_rate":      0.48,
		"qb_pressured_yards_per_completion": 9.5,
		"qb_pressured_int_rate":             0.045,
		"qb_pressured_sack_rate":            0.18,
		"ol_pass_block_grade":               68,
		"dl_pass_rush_grade":                72,
		"ol_run_block_grade":                65,
		"dl_run_stop_grade":                 60,
		"pass_rate_neutral":                 0.58,
		"pass_rate_trailing":                0.70,
		"pass_rate_leading":                 0.45,
		"pace_seconds_per_play":             29.5,
		"red_zone_td_rate":                  0.58,
		"turnover_regression":               1.0,
		"fg_make_short":                     0.96,
		"fg_make_mid":                       0.85,
		"fg_make_long":                      0.68,
		"punt_net_yards":                    41.5,
		"weather_factor":                    1.0,
	}
	stats := make(map[string]Stat, len(values))
	for name, v := range values {
		stats[name] = OkStat(v)
	}
	return stats
}

func testProfile(t *testing.T, teamID string) *TeamProfile {
	t.Helper()
	p, err := NewTeamProfile(teamID, 2025, 5, testStats())
	require.NoError(t, err)
	return p
}

func testSimulator(t *testing.T, cfg *SimConfig) *GameSimulator {
	t.Helper()
	if cfg == nil {
		cfg = DefaultSimConfig()
	}
	sim, err := NewGameSimulator(cfg, testProfile(t, "KC"), testProfile(t, "BUF"))
	require.NoError(t, err)
	return sim
}
