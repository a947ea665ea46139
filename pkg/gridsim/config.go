package gridsim

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// SimConfig contains every configurable parameter that influences simulation
// outcomes. This centralizes all calibration constants so that a given
// configuration snapshot is a first-class, comparable artifact: it can be
// saved, diffed and reloaded, and two predictions made with the same snapshot
// and seed are bit-for-bit reproducible.
//
// A SimConfig is passed into the simulator constructors. It is never held as
// package state, so concurrent predictions with different calibrations cannot
// interfere with each other.
type SimConfig struct {
	// Version identifies the calibration snapshot this config came from
	Version string `yaml:"version"`

	// === MONTE CARLO SETTINGS ===

	Trials                 int     `yaml:"trials"`                    // Number of full-game trials per prediction (default: 10000)
	Workers                int     `yaml:"workers"`                   // Worker goroutines for the batch; 0 means GOMAXPROCS
	MinBatchSize           int     `yaml:"min_batch_size"`            // A partial batch below this size is rejected (default: 1000)
	MaxFailedTrialFraction float64 `yaml:"max_failed_trial_fraction"` // Tolerated fraction of failed trials before the whole prediction fails

	// === CLOCK AND PACE ===

	Quarters              int     `yaml:"quarters"`                // Regulation periods (default: 4)
	QuarterSeconds        int     `yaml:"quarter_seconds"`         // Seconds per period (default: 900)
	OvertimeSeconds       int     `yaml:"overtime_seconds"`        // Length of the single sudden-death overtime period
	SecondsRunPlay        int     `yaml:"seconds_run_play"`        // Base clock consumed by an in-bounds run
	SecondsCompletedPass  int     `yaml:"seconds_completed_pass"`  // Base clock consumed by a completed pass
	SecondsIncompletePass int     `yaml:"seconds_incomplete_pass"` // Base clock consumed by an incompletion (clock stops)
	SecondsSpecialTeams   int     `yaml:"seconds_special_teams"`   // Base clock consumed by punts and field goal attempts
	SecondsKneel          int     `yaml:"seconds_kneel"`           // Base clock consumed by a kneel-down
	MinPlaySeconds        int     `yaml:"min_play_seconds"`        // Per-play clock clamp, lower bound
	MaxPlaySeconds        int     `yaml:"max_play_seconds"`        // Per-play clock clamp, upper bound
	LeaguePaceSeconds     float64 `yaml:"league_pace_seconds"`     // League-average seconds per play; team pace scales against this

	// === DRIVES AND FIELD POSITION ===

	MaxPlaysPerDrive  int `yaml:"max_plays_per_drive"` // Hard safety cap; the drive is force-terminated at this count
	TouchbackYardline int `yaml:"touchback_yardline"`  // Starting yardline after a kickoff touchback (default: 25)

	// === FOURTH DOWN POLICY ===

	FieldGoalRangeYards     int `yaml:"field_goal_range_yards"`    // Attempt a field goal only within this many yards of the goal line
	GoForItMaxDistance      int `yaml:"go_for_it_max_distance"`    // Go for it when distance-to-go is at most this
	GoForItMinYardline      int `yaml:"go_for_it_min_yardline"`    // ...and the offense is at or beyond this yardline
	DesperationDeficit      int `yaml:"desperation_deficit"`       // Trailing by more than this forces going for it late
	DesperationClockSeconds int `yaml:"desperation_clock_seconds"` // Game seconds remaining that trigger desperation mode

	// === PASS MODEL ===

	LeaguePressureRate float64 `yaml:"league_pressure_rate"` // League baseline pressure rate (default: 0.24)
	PressureGradeCoeff float64 `yaml:"pressure_grade_coeff"` // Pressure-rate delta per point of DL-vs-OL grade differential
	PressureRateMin    float64 `yaml:"pressure_rate_min"`    // Realistic pressure-rate clamp, lower bound
	PressureRateMax    float64 `yaml:"pressure_rate_max"`    // Realistic pressure-rate clamp, upper bound
	CompletionEPACoeff float64 `yaml:"completion_epa_coeff"` // Completion-probability delta per point of pass EPA differential
	YardsEPACoeff      float64 `yaml:"yards_epa_coeff"`      // Fractional yards-per-completion adjustment per point of pass EPA differential
	PassYardsSigma     float64 `yaml:"pass_yards_sigma"`     // Log-normal sigma for completed pass yardage (heavy tail)
	ExplosivePassYards int     `yaml:"explosive_pass_yards"` // Completions of at least this many yards are flagged explosive
	SackYardsMean      float64 `yaml:"sack_yards_mean"`      // Average yardage lost on a sack

	// === PLAY CALLING ===

	ShortYardageDistance  int     `yaml:"short_yardage_distance"`   // Distance at or under this leans run
	LongYardageDistance   int     `yaml:"long_yardage_distance"`    // Distance at or over this leans pass
	ShortYardagePassShift float64 `yaml:"short_yardage_pass_shift"` // Added to the pass rate in short yardage (negative)
	LongYardagePassShift  float64 `yaml:"long_yardage_pass_shift"`  // Added to the pass rate in long yardage
	LateDownPassShift     float64 `yaml:"late_down_pass_shift"`     // Added on third and fourth down with medium-plus distance

	// === RUN MODEL ===

	RunYardsSigma      float64 `yaml:"run_yards_sigma"`       // Log-normal sigma for run yardage
	RunYardsShift      float64 `yaml:"run_yards_shift"`       // Left shift of the run distribution so losses are possible
	RunBlockGradeCoeff float64 `yaml:"run_block_grade_coeff"` // Mean run yards per point of OL-vs-DL run grade differential
	RunEPACoeff        float64 `yaml:"run_epa_coeff"`         // Fractional run yards adjustment per point of run EPA differential
	ExplosiveRunYards  int     `yaml:"explosive_run_yards"`   // Runs of at least this many yards are flagged explosive

	// === TURNOVERS ===

	FumbleRateRun         float64 `yaml:"fumble_rate_run"`         // Fumble probability on a run play
	FumbleRateSack        float64 `yaml:"fumble_rate_sack"`        // Strip-sack probability given a sack
	FumbleRecoveryRate    float64 `yaml:"fumble_recovery_rate"`    // Probability the defense recovers a fumble
	TurnoverRegressionMin float64 `yaml:"turnover_regression_min"` // Clamp on the per-team turnover regression multiplier
	TurnoverRegressionMax float64 `yaml:"turnover_regression_max"`

	// === RED ZONE ===

	RedZoneYardline   int     `yaml:"red_zone_yardline"`     // Distance from goal at which red-zone scaling begins (default: 20)
	RedZoneTDBoostMax float64 `yaml:"red_zone_td_boost_max"` // Maximum multiplicative TD conversion boost at the goal line

	// === SPECIAL TEAMS ===

	FieldGoalHoldYards int     `yaml:"field_goal_hold_yards"` // Added to distance-to-goal for kick length (snap, hold, end zone)
	PuntNetSigma       float64 `yaml:"punt_net_sigma"`        // Spread around the team's net punt average
	PuntBlockRate      float64 `yaml:"punt_block_rate"`       // Probability a punt is blocked (distinct from a missed field goal)
	ExtraPointRate     float64 `yaml:"extra_point_rate"`      // Extra point conversion probability

	// === MARKET CENTERING ===

	CenterScaleMin   float64 `yaml:"center_scale_min"`   // Clamp on the multiplicative rescale step
	CenterScaleMax   float64 `yaml:"center_scale_max"`
	CenterEpsilon    float64 `yaml:"center_epsilon"`     // Tolerance for the post-centering mean invariants (points)
	DegenerateStdDev float64 `yaml:"degenerate_std_dev"` // Below this raw total stddev the rescale step is skipped

	// === BETTING EDGE ===

	EdgeCap        float64 `yaml:"edge_cap"`         // Outlier guard; edges are capped here before tier assignment
	HighTierEdge   float64 `yaml:"high_tier_edge"`   // Minimum capped edge for a HIGH conviction recommendation
	MediumTierEdge float64 `yaml:"medium_tier_edge"` // Minimum capped edge for MEDIUM
	LowTierEdge    float64 `yaml:"low_tier_edge"`    // Minimum capped edge for LOW; below this is PASS
	DefaultPrice   int     `yaml:"default_price"`    // American price assumed when none is supplied (default: -110)
}

// DefaultSimConfig returns the default configuration with all standard values
func DefaultSimConfig() *SimConfig {
	return &SimConfig{
		Version: "2025.1",

		// === MONTE CARLO SETTINGS ===
		Trials:                 10000,
		Workers:                0,
		MinBatchSize:           1000,
		MaxFailedTrialFraction: 0.02,

		// === CLOCK AND PACE ===
		Quarters:              4,
		QuarterSeconds:        900,
		OvertimeSeconds:       600,
		SecondsRunPlay:        38,
		SecondsCompletedPass:  34,
		SecondsIncompletePass: 22,
		SecondsSpecialTeams:   28,
		SecondsKneel:          42,
		MinPlaySeconds:        16,
		MaxPlaySeconds:        45,
		LeaguePaceSeconds:     30.0,

		// === DRIVES AND FIELD POSITION ===
		MaxPlaysPerDrive:  25,
		TouchbackYardline: 25,

		// === FOURTH DOWN POLICY ===
		FieldGoalRangeYards:     38,
		GoForItMaxDistance:      2,
		GoForItMinYardline:      55,
		DesperationDeficit:      3,
		DesperationClockSeconds: 120,

		// === PASS MODEL ===
		LeaguePressureRate: 0.24,
		PressureGradeCoeff: 0.004,
		PressureRateMin:    0.10,
		PressureRateMax:    0.45,
		CompletionEPACoeff: 0.22,
		YardsEPACoeff:      0.55,
		PassYardsSigma:     0.78,
		ExplosivePassYards: 20,
		SackYardsMean:      6.5,

		// === PLAY CALLING ===
		ShortYardageDistance:  2,
		LongYardageDistance:   8,
		ShortYardagePassShift: -0.22,
		LongYardagePassShift:  0.18,
		LateDownPassShift:     0.15,

		// === RUN MODEL ===
		RunYardsSigma:      0.62,
		RunYardsShift:      3.0,
		RunBlockGradeCoeff: 0.03,
		RunEPACoeff:        0.45,
		ExplosiveRunYards:  12,

		// === TURNOVERS ===
		FumbleRateRun:         0.012,
		FumbleRateSack:        0.10,
		FumbleRecoveryRate:    0.5,
		TurnoverRegressionMin: 0.5,
		TurnoverRegressionMax: 1.6,

		// === RED ZONE ===
		RedZoneYardline:   20,
		RedZoneTDBoostMax: 1.30,

		// === SPECIAL TEAMS ===
		FieldGoalHoldYards: 17,
		PuntNetSigma:       6.0,
		PuntBlockRate:      0.0018,
		ExtraPointRate:     0.94,

		// === MARKET CENTERING ===
		CenterScaleMin:   0.75,
		CenterScaleMax:   1.30,
		CenterEpsilon:    0.01,
		DegenerateStdDev: 0.5,

		// === BETTING EDGE ===
		EdgeCap:        0.15,
		HighTierEdge:   0.055,
		MediumTierEdge: 0.03,
		LowTierEdge:    0.015,
		DefaultPrice:   -110,
	}
}

// === CONFIGURATION VALIDATION ===

// Validate ensures all configuration values are within reasonable ranges
func (c *SimConfig) Validate() error {
	if c.Trials < 100 {
		return fmt.Errorf("Trials should be at least 100 for a usable distribution, got: %d", c.Trials)
	}

	if c.MinBatchSize < 2 || c.MinBatchSize > c.Trials {
		return fmt.Errorf("MinBatchSize must be between 2 and Trials (%d), got: %d", c.Trials, c.MinBatchSize)
	}

	if c.MaxFailedTrialFraction < 0.0 || c.MaxFailedTrialFraction > 0.5 {
		return fmt.Errorf("MaxFailedTrialFraction must be between 0.0 and 0.5, got: %f", c.MaxFailedTrialFraction)
	}

	if c.Quarters < 1 || c.QuarterSeconds < 60 {
		return fmt.Errorf("Quarters/QuarterSeconds describe an implausible game: %d x %ds", c.Quarters, c.QuarterSeconds)
	}

	if c.MinPlaySeconds < 1 || c.MaxPlaySeconds <= c.MinPlaySeconds {
		return fmt.Errorf("play second clamp is inverted: min %d, max %d", c.MinPlaySeconds, c.MaxPlaySeconds)
	}

	if c.MaxPlaysPerDrive < 4 {
		return fmt.Errorf("MaxPlaysPerDrive must allow at least one set of downs, got: %d", c.MaxPlaysPerDrive)
	}

	if c.LeaguePressureRate < c.PressureRateMin || c.LeaguePressureRate > c.PressureRateMax {
		return fmt.Errorf("LeaguePressureRate %f lies outside its own clamp [%f, %f]",
			c.LeaguePressureRate, c.PressureRateMin, c.PressureRateMax)
	}

	rates := map[string]float64{
		"FumbleRateRun":      c.FumbleRateRun,
		"FumbleRateSack":     c.FumbleRateSack,
		"FumbleRecoveryRate": c.FumbleRecoveryRate,
		"PuntBlockRate":      c.PuntBlockRate,
		"ExtraPointRate":     c.ExtraPointRate,
	}
	for name, rate := range rates {
		if rate < 0.0 || rate > 1.0 {
			return fmt.Errorf("%s must be between 0.0 and 1.0, got: %f", name, rate)
		}
	}

	if c.TurnoverRegressionMin <= 0 || c.TurnoverRegressionMax < c.TurnoverRegressionMin {
		return fmt.Errorf("turnover regression clamp is invalid: [%f, %f]",
			c.TurnoverRegressionMin, c.TurnoverRegressionMax)
	}

	if c.RedZoneTDBoostMax < 1.0 || c.RedZoneTDBoostMax > 2.0 {
		return fmt.Errorf("RedZoneTDBoostMax should be between 1.0 and 2.0, got: %f", c.RedZoneTDBoostMax)
	}

	if c.CenterScaleMin <= 0 || c.CenterScaleMax < c.CenterScaleMin {
		return fmt.Errorf("centering scale clamp is invalid: [%f, %f]", c.CenterScaleMin, c.CenterScaleMax)
	}

	if c.CenterEpsilon <= 0 {
		return fmt.Errorf("CenterEpsilon must be positive, got: %f", c.CenterEpsilon)
	}

	if c.EdgeCap <= 0 || c.EdgeCap > 0.5 {
		return fmt.Errorf("EdgeCap should be between 0.0 and 0.5, got: %f", c.EdgeCap)
	}

	if !(c.LowTierEdge < c.MediumTierEdge && c.MediumTierEdge < c.HighTierEdge && c.HighTierEdge <= c.EdgeCap) {
		return fmt.Errorf("conviction tier thresholds must satisfy low < medium < high <= cap, got: %f %f %f cap %f",
			c.LowTierEdge, c.MediumTierEdge, c.HighTierEdge, c.EdgeCap)
	}

	return nil
}

// LoadSimConfig reads a calibration snapshot from a YAML file and validates it
func LoadSimConfig(path string) (*SimConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	config := DefaultSimConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config %s is invalid: %w", path, err)
	}

	return config, nil
}

// Save writes the configuration snapshot to a YAML file
func (c *SimConfig) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config %s: %w", path, err)
	}

	return nil
}
