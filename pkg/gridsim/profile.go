package gridsim

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// StatStatus tags how a statistical input was obtained.
type StatStatus int

const (
	// StatOK means the value was computed from sufficient team data
	StatOK StatStatus = iota
	// StatFallback means a substitute (usually a league average) was used;
	// the reason travels with the value so callers can decide whether the
	// fallback is acceptable for their confidence tier
	StatFallback
	// StatMissing means no value is available at all
	StatMissing
)

// Stat is a tagged statistical input. The data layer hands these to the
// profile constructor instead of silently baking league averages into team
// numbers.
type Stat struct {
	Value  float64
	Status StatStatus
	Reason string
}

// OkStat wraps a directly computed value
func OkStat(v float64) Stat { return Stat{Value: v, Status: StatOK} }

// FallbackStat wraps a substituted value together with the reason for the substitution
func FallbackStat(v float64, reason string) Stat {
	return Stat{Value: v, Status: StatFallback, Reason: reason}
}

// MissingStat marks a value the data layer could not supply
func MissingStat() Stat { return Stat{Status: StatMissing} }

// Compile-time check to ensure TeamProfile implements Persistable interface
var _ Persistable = (*TeamProfile)(nil)

// TeamProfile represents one team's statistical inputs as of a given week.
// Profiles are immutable during simulation: the loader builds and validates
// one snapshot per team, and every trial reads the same snapshot.
//
// All per-play efficiency fields are EPA-like values (expected points added
// per play); grades are on a 0-100 scale; rates are probabilities.
type TeamProfile struct {
	// Compound primary key fields
	TeamID string `json:"teamId" column:"team_id" dbtype:"TEXT NOT NULL" primary:"true" index:"true"`
	Season int    `json:"season" column:"season" dbtype:"INTEGER NOT NULL" primary:"true" index:"true"`
	Week   int    `json:"week" column:"week" dbtype:"INTEGER NOT NULL" primary:"true" index:"true"`

	// Overall efficiency
	OffEPA float64 `json:"offEpa" column:"off_epa" dbtype:"REAL DEFAULT -99.0"`
	DefEPA float64 `json:"defEpa" column:"def_epa" dbtype:"REAL DEFAULT -99.0"`

	// Pass/run efficiency splits
	OffPassEPA      float64 `json:"offPassEpa" column:"off_pass_epa" dbtype:"REAL DEFAULT -99.0"`
	OffRunEPA       float64 `json:"offRunEpa" column:"off_run_epa" dbtype:"REAL DEFAULT -99.0"`
	DefPassEPA      float64 `json:"defPassEpa" column:"def_pass_epa" dbtype:"REAL DEFAULT -99.0"`
	DefRunEPA       float64 `json:"defRunEpa" column:"def_run_epa" dbtype:"REAL DEFAULT -99.0"`
	OffYardsPerPlay float64 `json:"offYardsPerPlay" column:"off_yards_per_play" dbtype:"REAL DEFAULT -1.0"`
	DefYardsPerPlay float64 `json:"defYardsPerPlay" column:"def_yards_per_play" dbtype:"REAL DEFAULT -1.0"`

	// Quarterback clean-pocket splits
	QBCleanCompletionRate     float64 `json:"qbCleanCompletionRate" column:"qb_clean_completion_rate" dbtype:"REAL DEFAULT -1.0"`
	QBCleanYardsPerCompletion float64 `json:"qbCleanYardsPerCompletion" column:"qb_clean_yards_per_completion" dbtype:"REAL DEFAULT -1.0"`
	QBCleanINTRate            float64 `json:"qbCleanIntRate" column:"qb_clean_int_rate" dbtype:"REAL DEFAULT -1.0"`
	QBCleanSackRate           float64 `json:"qbCleanSackRate" column:"qb_clean_sack_rate" dbtype:"REAL DEFAULT -1.0"`

	// Quarterback pressured splits
	QBPressuredCompletionRate     float64 `json:"qbPressuredCompletionRate" column:"qb_pressured_completion_rate" dbtype:"REAL DEFAULT -1.0"`
	QBPressuredYardsPerCompletion float64 `json:"qbPressuredYardsPerCompletion" column:"qb_pressured_yards_per_completion" dbtype:"REAL DEFAULT -1.0"`
	QBPressuredINTRate            float64 `json:"qbPressuredIntRate" column:"qb_pressured_int_rate" dbtype:"REAL DEFAULT -1.0"`
	QBPressuredSackRate           float64 `json:"qbPressuredSackRate" column:"qb_pressured_sack_rate" dbtype:"REAL DEFAULT -1.0"`

	// Line matchup grades (0-100)
	OLPassBlockGrade float64 `json:"olPassBlockGrade" column:"ol_pass_block_grade" dbtype:"REAL DEFAULT -1.0"`
	DLPassRushGrade  float64 `json:"dlPassRushGrade" column:"dl_pass_rush_grade" dbtype:"REAL DEFAULT -1.0"`
	OLRunBlockGrade  float64 `json:"olRunBlockGrade" column:"ol_run_block_grade" dbtype:"REAL DEFAULT -1.0"`
	DLRunStopGrade   float64 `json:"dlRunStopGrade" column:"dl_run_stop_grade" dbtype:"REAL DEFAULT -1.0"`

	// Play-calling tendency by score situation; down/distance shifts come from SimConfig
	PassRateNeutral  float64 `json:"passRateNeutral" column:"pass_rate_neutral" dbtype:"REAL DEFAULT -1.0"`
	PassRateTrailing float64 `json:"passRateTrailing" column:"pass_rate_trailing" dbtype:"REAL DEFAULT -1.0"`
	PassRateLeading  float64 `json:"passRateLeading" column:"pass_rate_leading" dbtype:"REAL DEFAULT -1.0"`

	// Pace and situational rates
	PaceSecondsPerPlay float64 `json:"paceSecondsPerPlay" column:"pace_seconds_per_play" dbtype:"REAL DEFAULT -1.0"`
	RedZoneTDRate      float64 `json:"redZoneTdRate" column:"red_zone_td_rate" dbtype:"REAL DEFAULT -1.0"`
	TurnoverRegression float64 `json:"turnoverRegression" column:"turnover_regression" dbtype:"REAL DEFAULT -1.0"`

	// Special teams
	FGMakeShort  float64 `json:"fgMakeShort" column:"fg_make_short" dbtype:"REAL DEFAULT -1.0"`  // kicks under 40 yards
	FGMakeMid    float64 `json:"fgMakeMid" column:"fg_make_mid" dbtype:"REAL DEFAULT -1.0"`      // 40-49 yards
	FGMakeLong   float64 `json:"fgMakeLong" column:"fg_make_long" dbtype:"REAL DEFAULT -1.0"`    // 50+ yards
	PuntNetYards float64 `json:"puntNetYards" column:"punt_net_yards" dbtype:"REAL DEFAULT -1.0"`

	// Situational modifiers
	RestDays      int     `json:"restDays" column:"rest_days" dbtype:"INTEGER DEFAULT 7"`
	Dome          bool    `json:"dome" column:"dome" dbtype:"INTEGER DEFAULT 0"`
	WeatherFactor float64 `json:"weatherFactor" column:"weather_factor" dbtype:"REAL DEFAULT 1.0"`

	// FallbackFields records which inputs were substituted and why, as
	// "field=reason" pairs. Callers gate recommendations on this.
	FallbackFields string `json:"fallbackFields" column:"fallback_fields" dbtype:"TEXT DEFAULT ''"`

	// Metadata
	CreatedAt time.Time `json:"createdAt" column:"created_at" dbtype:"DATETIME DEFAULT CURRENT_TIMESTAMP"`
	UpdatedAt time.Time `json:"updatedAt" column:"updated_at" dbtype:"DATETIME DEFAULT CURRENT_TIMESTAMP"`
}

// profileBound describes the documented range of one profile field
type profileBound struct {
	name string
	get  func(*TeamProfile) float64
	min  float64
	max  float64
}

// profileBounds is the validation table for every statistical input. A value
// of NaN, or outside its documented range, means the data layer failed and
// the profile must not be used for simulation.
var profileBounds = []profileBound{
	{"off_epa", func(p *TeamProfile) float64 { return p.OffEPA }, -0.6, 0.6},
	{"def_epa", func(p *TeamProfile) float64 { return p.DefEPA }, -0.6, 0.6},
	{"off_pass_epa", func(p *TeamProfile) float64 { return p.OffPassEPA }, -0.8, 0.8},
	{"off_run_epa", func(p *TeamProfile) float64 { return p.OffRunEPA }, -0.8, 0.8},
	{"def_pass_epa", func(p *TeamProfile) float64 { return p.DefPassEPA }, -0.8, 0.8},
	{"def_run_epa", func(p *TeamProfile) float64 { return p.DefRunEPA }, -0.8, 0.8},
	{"off_yards_per_play", func(p *TeamProfile) float64 { return p.OffYardsPerPlay }, 3.0, 9.0},
	{"def_yards_per_play", func(p *TeamProfile) float64 { return p.DefYardsPerPlay }, 3.0, 9.0},
	{"qb_clean_completion_rate", func(p *TeamProfile) float64 { return p.QBCleanCompletionRate }, 0.0, 1.0},
	{"qb_clean_yards_per_completion", func(p *TeamProfile) float64 { return p.QBCleanYardsPerCompletion }, 4.0, 20.0},
	{"qb_clean_int_rate", func(p *TeamProfile) float64 { return p.QBCleanINTRate }, 0.0, 1.0},
	{"qb_clean_sack_rate", func(p *TeamProfile) float64 { return p.QBCleanSackRate }, 0.0, 1.0},
	{"qb_pressured_completion_rate", func(p *TeamProfile) float64 { return p.QBPressuredCompletionRate }, 0.0, 1.0},
	{"qb_pressured_yards_per_completion", func(p *TeamProfile) float64 { return p.QBPressuredYardsPerCompletion }, 4.0, 20.0},
	{"qb_pressured_int_rate", func(p *TeamProfile) float64 { return p.QBPressuredINTRate }, 0.0, 1.0},
	{"qb_pressured_sack_rate", func(p *TeamProfile) float64 { return p.QBPressuredSackRate }, 0.0, 1.0},
	{"ol_pass_block_grade", func(p *TeamProfile) float64 { return p.OLPassBlockGrade }, 0.0, 100.0},
	{"dl_pass_rush_grade", func(p *TeamProfile) float64 { return p.DLPassRushGrade }, 0.0, 100.0},
	{"ol_run_block_grade", func(p *TeamProfile) float64 { return p.OLRunBlockGrade }, 0.0, 100.0},
	{"dl_run_stop_grade", func(p *TeamProfile) float64 { return p.DLRunStopGrade }, 0.0, 100.0},
	{"pass_rate_neutral", func(p *TeamProfile) float64 { return p.PassRateNeutral }, 0.0, 1.0},
	{"pass_rate_trailing", func(p *TeamProfile) float64 { return p.PassRateTrailing }, 0.0, 1.0},
	{"pass_rate_leading", func(p *TeamProfile) float64 { return p.PassRateLeading }, 0.0, 1.0},
	{"pace_seconds_per_play", func(p *TeamProfile) float64 { return p.PaceSecondsPerPlay }, 20.0, 40.0},
	{"red_zone_td_rate", func(p *TeamProfile) float64 { return p.RedZoneTDRate }, 0.0, 1.0},
	{"turnover_regression", func(p *TeamProfile) float64 { return p.TurnoverRegression }, 0.25, 2.0},
	{"fg_make_short", func(p *TeamProfile) float64 { return p.FGMakeShort }, 0.0, 1.0},
	{"fg_make_mid", func(p *TeamProfile) float64 { return p.FGMakeMid }, 0.0, 1.0},
	{"fg_make_long", func(p *TeamProfile) float64 { return p.FGMakeLong }, 0.0, 1.0},
	{"punt_net_yards", func(p *TeamProfile) float64 { return p.PuntNetYards }, 25.0, 55.0},
	{"weather_factor", func(p *TeamProfile) float64 { return p.WeatherFactor }, 0.6, 1.1},
}

// Validate checks every statistical field against its documented range.
// It fails fast on the first bad metric, naming it, so that upstream data
// problems surface before any random draw.
func (p *TeamProfile) Validate() error {
	if p.TeamID == "" {
		return &MissingDataError{Team: p.TeamID, Season: p.Season, Week: p.Week,
			Field: "team_id", Detail: "is empty"}
	}

	for _, b := range profileBounds {
		v := b.get(p)
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return &MissingDataError{Team: p.TeamID, Season: p.Season, Week: p.Week,
				Field: b.name, Detail: "is not a finite number"}
		}
		if v < b.min || v > b.max {
			return &MissingDataError{Team: p.TeamID, Season: p.Season, Week: p.Week,
				Field: b.name, Detail: fmt.Sprintf("value %g outside range [%g, %g]", v, b.min, b.max)}
		}
	}

	return nil
}

// setters maps stat names to profile field assignments for the tagged constructor
var profileSetters = map[string]func(*TeamProfile, float64){
	"off_epa":                           func(p *TeamProfile, v float64) { p.OffEPA = v },
	"def_epa":                           func(p *TeamProfile, v float64) { p.DefEPA = v },
	"off_pass_epa":                      func(p *TeamProfile, v float64) { p.OffPassEPA = v },
	"off_run_epa":                       func(p *TeamProfile, v float64) { p.OffRunEPA = v },
	"def_pass_epa":                      func(p *TeamProfile, v float64) { p.DefPassEPA = v },
	"def_run_epa":                       func(p *TeamProfile, v float64) { p.DefRunEPA = v },
	"off_yards_per_play":                func(p *TeamProfile, v float64) { p.OffYardsPerPlay = v },
	"def_yards_per_play":                func(p *TeamProfile, v float64) { p.DefYardsPerPlay = v },
	"qb_clean_completion_rate":          func(p *TeamProfile, v float64) { p.QBCleanCompletionRate = v },
	"qb_clean_yards_per_completion":     func(p *TeamProfile, v float64) { p.QBCleanYardsPerCompletion = v },
	"qb_clean_int_rate":                 func(p *TeamProfile, v float64) { p.QBCleanINTRate = v },
	"qb_clean_sack_rate":                func(p *TeamProfile, v float64) { p.QBCleanSackRate = v },
	"qb_pressured_completion_rate":      func(p *TeamProfile, v float64) { p.QBPressuredCompletionRate = v },
	"qb_pressured_yards_per_completion": func(p *TeamProfile, v float64) { p.QBPressuredYardsPerCompletion = v },
	"qb_pressured_int_rate":             func(p *TeamProfile, v float64) { p.QBPressuredINTRate = v },
	"qb_pressured_sack_rate":            func(p *TeamProfile, v float64) { p.QBPressuredSackRate = v },
	"ol_pass_block_grade":               func(p *TeamProfile, v float64) { p.OLPassBlockGrade = v },
	"dl_pass_rush_grade":                func(p *TeamProfile, v float64) { p.DLPassRushGrade = v },
	"ol_run_block_grade":                func(p *TeamProfile, v float64) { p.OLRunBlockGrade = v },
	"dl_run_stop_grade":                 func(p *TeamProfile, v float64) { p.DLRunStopGrade = v },
	"pass_rate_neutral":                 func(p *TeamProfile, v float64) { p.PassRateNeutral = v },
	"pass_rate_trailing":                func(p *TeamProfile, v float64) { p.PassRateTrailing = v },
	"pass_rate_leading":                 func(p *TeamProfile, v float64) { p.PassRateLeading = v },
	"pace_seconds_per_play":             func(p *TeamProfile, v float64) { p.PaceSecondsPerPlay = v },
	"red_zone_td_rate":                  func(p *TeamProfile, v float64) { p.RedZoneTDRate = v },
	"turnover_regression":               func(p *TeamProfile, v float64) { p.TurnoverRegression = v },
	"fg_make_short":                     func(p *TeamProfile, v float64) { p.FGMakeShort = v },
	"fg_make_mid":                       func(p *TeamProfile, v float64) { p.FGMakeMid = v },
	"fg_make_long":                      func(p *TeamProfile, v float64) { p.FGMakeLong = v },
	"punt_net_yards":                    func(p *TeamProfile, v float64) { p.PuntNetYards = v },
	"weather_factor":                    func(p *TeamProfile, v float64) { p.WeatherFactor = v },
}

// NewTeamProfile builds a profile from tagged stats supplied by the data
// layer. A StatMissing entry, or an absent required stat, raises a
// MissingDataError naming the field; StatFallback values are accepted but
// recorded in FallbackFields so downstream consumers can gate on them.
func NewTeamProfile(teamID string, season, week int, stats map[string]Stat) (*TeamProfile, error) {
	p := &TeamProfile{
		TeamID:        teamID,
		Season:        season,
		Week:          week,
		RestDays:      7,
		WeatherFactor: 1.0,
	}

	var fallbacks []string
	for name, set := range profileSetters {
		stat, ok := stats[name]
		if !ok || stat.Status == StatMissing {
			return nil, &MissingDataError{Team: teamID, Season: season, Week: week,
				Field: name, Detail: "not supplied by data layer"}
		}
		if stat.Status == StatFallback {
			fallbacks = append(fallbacks, name+"="+stat.Reason)
		}
		set(p, stat.Value)
	}
	p.FallbackFields = strings.Join(fallbacks, ",")

	if err := p.Validate(); err != nil {
		return nil, err
	}

	return p, nil
}

// HasFallbacks reports whether any input was substituted rather than computed
func (p *TeamProfile) HasFallbacks() bool {
	return p.FallbackFields != ""
}

// PassRate returns this team's pass-play probability for a score situation.
// Down/distance shifts are applied by the play simulator from SimConfig.
func (p *TeamProfile) PassRate(scoreDiff int) float64 {
	switch {
	case scoreDiff < -7:
		return p.PassRateTrailing
	case scoreDiff > 7:
		return p.PassRateLeading
	default:
		return p.PassRateNeutral
	}
}

// FGMakeRate returns the make probability for a kick of the given length,
// scaled by the weather factor for outdoor venues.
func (p *TeamProfile) FGMakeRate(kickYards int) float64 {
	var base float64
	switch {
	case kickYards < 40:
		base = p.FGMakeShort
	case kickYards < 50:
		base = p.FGMakeMid
	default:
		base = p.FGMakeLong
	}
	if !p.Dome {
		base *= p.WeatherFactor
	}
	return base
}

/////////////////////////////////////////////////////////////////////////
////// Persistable Interface Implementation
/////////////////////////////////////////////////////////////////////////

// GetPrimaryKey returns the compound primary key as a map
func (p *TeamProfile) GetPrimaryKey() map[string]interface{} {
	return map[string]any{
		"team_id": p.TeamID,
		"season":  p.Season,
		"week":    p.Week,
	}
}

// SetPrimaryKey sets the compound primary key from a map
func (p *TeamProfile) SetPrimaryKey(pk map[string]interface{}) error {
	teamID, ok := pk["team_id"].(string)
	if !ok {
		return fmt.Errorf("primary key 'team_id' must be a string")
	}
	p.TeamID = teamID

	season, err := pkInt(pk, "season")
	if err != nil {
		return err
	}
	p.Season = season

	week, err := pkInt(pk, "week")
	if err != nil {
		return err
	}
	p.Week = week

	return nil
}

func pkInt(pk map[string]interface{}, key string) (int, error) {
	v, ok := pk[key]
	if !ok {
		return 0, fmt.Errorf("primary key %q not found", key)
	}
	switch n := v.(type) {
	case int:
		return n, nil
	case int64:
		return int(n), nil
	default:
		return 0, fmt.Errorf("primary key %q must be an integer", key)
	}
}

// GetTableName returns the table name for team profiles
func (p *TeamProfile) GetTableName() string {
	return "team_profile"
}

// BeforeSave is called before saving the profile
func (p *TeamProfile) BeforeSave() error {
	if err := p.Validate(); err != nil {
		return err
	}
	now := time.Now()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	p.UpdatedAt = now
	return nil
}

// AfterSave is called after saving the profile
func (p *TeamProfile) AfterSave() error { return nil }

// BeforeDelete is called before deleting the profile
func (p *TeamProfile) BeforeDelete() error { return nil }

// AfterDelete is called after deleting the profile
func (p *TeamProfile) AfterDelete() error { return nil }

// LoadTeamProfile retrieves the most recent stored profile for a team
// strictly before the prediction week. The week-1 cutoff prevents look-ahead
// leakage: predicting week N may only use data through week N-1.
func LoadTeamProfile(teamID string, season, week int) (*TeamProfile, error) {
	whereClause := "team_id = ? AND season = ? AND week < ? ORDER BY week DESC LIMIT 1"

	results, err := FindWhere(&TeamProfile{}, whereClause, teamID, season, week)
	if err != nil {
		return nil, fmt.Errorf("failed to query profile for team %s season %d week %d: %w",
			teamID, season, week, err)
	}

	if len(results) == 0 {
		return nil, &MissingDataError{Team: teamID, Season: season, Week: week,
			Field: "profile", Detail: "no stored profile before this week"}
	}

	profile, ok := results[0].(*TeamProfile)
	if !ok {
		return nil, fmt.Errorf("unexpected type in profile results for team %s", teamID)
	}

	if err := profile.Validate(); err != nil {
		return nil, err
	}

	return profile, nil
}
