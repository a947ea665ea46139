package gridsim

import (
	"fmt"

	"github.com/StevenRidder/Football-sub002/internal/logger"
)

// CalibrationSample aggregates GameStats across many simulated games so rates
// can be checked against league-wide bands.
type CalibrationSample struct {
	Games int
	Stats GameStats
}

// Add folds one game's aggregates into the sample
func (s *CalibrationSample) Add(gs *GameStats) {
	s.Games++
	s.Stats.Drives += gs.Drives
	s.Stats.Plays += gs.Plays
	s.Stats.Touchdowns += gs.Touchdowns
	s.Stats.FieldGoals += gs.FieldGoals
	s.Stats.MissedFieldGoals += gs.MissedFieldGoals
	s.Stats.Punts += gs.Punts
	s.Stats.Turnovers += gs.Turnovers
	s.Stats.Safeties += gs.Safeties
	s.Stats.ExplosivePlays += gs.ExplosivePlays
	s.Stats.Points += gs.Points
}

// PlaysPerDrive returns average scrimmage plays per drive
func (s *CalibrationSample) PlaysPerDrive() float64 {
	if s.Stats.Drives == 0 {
		return 0
	}
	return float64(s.Stats.Plays) / float64(s.Stats.Drives)
}

// PointsPerGame returns combined points per game
func (s *CalibrationSample) PointsPerGame() float64 {
	if s.Games == 0 {
		return 0
	}
	return float64(s.Stats.Points) / float64(s.Games)
}

// TouchdownRate returns touchdowns per drive
func (s *CalibrationSample) TouchdownRate() float64 {
	if s.Stats.Drives == 0 {
		return 0
	}
	return float64(s.Stats.Touchdowns) / float64(s.Stats.Drives)
}

// FieldGoalMakeRate returns made field goals per attempt
func (s *CalibrationSample) FieldGoalMakeRate() float64 {
	attempts := s.Stats.FieldGoals + s.Stats.MissedFieldGoals
	if attempts == 0 {
		return 0
	}
	return float64(s.Stats.FieldGoals) / float64(attempts)
}

// TurnoverRate returns turnovers per drive
func (s *CalibrationSample) TurnoverRate() float64 {
	if s.Stats.Drives == 0 {
		return 0
	}
	return float64(s.Stats.Turnovers) / float64(s.Stats.Drives)
}

// PuntRate returns punts per drive
func (s *CalibrationSample) PuntRate() float64 {
	if s.Stats.Drives == 0 {
		return 0
	}
	return float64(s.Stats.Punts) / float64(s.Stats.Drives)
}

// ExplosivePerGame returns explosive plays per game, both teams combined
func (s *CalibrationSample) ExplosivePerGame() float64 {
	if s.Games == 0 {
		return 0
	}
	return float64(s.Stats.ExplosivePlays) / float64(s.Games)
}

// CalibrationTarget is one declarative acceptance band: a named measure of
// the sample with the range it must land in. Tuning the model means tuning
// SimConfig until every target passes, never editing the bands to fit.
type CalibrationTarget struct {
	Name    string
	Min     float64
	Max     float64
	Measure func(*CalibrationSample) float64
}

// DefaultCalibrationTargets returns the league-realism bands. Ranges are
// deliberately loose; they catch structural breakage, not week-to-week noise.
func DefaultCalibrationTargets() []CalibrationTarget {
	return []CalibrationTarget{
		{Name: "plays per drive", Min: 4.5, Max: 7.0, Measure: (*CalibrationSample).PlaysPerDrive},
		{Name: "points per game", Min: 32.0, Max: 58.0, Measure: (*CalibrationSample).PointsPerGame},
		{Name: "touchdowns per drive", Min: 0.15, Max: 0.32, Measure: (*CalibrationSample).TouchdownRate},
		{Name: "field goal make rate", Min: 0.72, Max: 0.95, Measure: (*CalibrationSample).FieldGoalMakeRate},
		{Name: "turnovers per drive", Min: 0.05, Max: 0.18, Measure: (*CalibrationSample).TurnoverRate},
		{Name: "punts per drive", Min: 0.20, Max: 0.50, Measure: (*CalibrationSample).PuntRate},
	}
}

// CalibrationResult is one target's evaluation
type CalibrationResult struct {
	Name  string
	Value float64
	Min   float64
	Max   float64
	Pass  bool
}

func (r CalibrationResult) String() string {
	status := "PASS"
	if !r.Pass {
		status = "FAIL"
	}
	return fmt.Sprintf("%s: %s %.3f (band %.3f-%.3f)", status, r.Name, r.Value, r.Min, r.Max)
}

// EvaluateCalibration checks the sample against every target band
func EvaluateCalibration(sample *CalibrationSample, targets []CalibrationTarget) []CalibrationResult {
	results := make([]CalibrationResult, 0, len(targets))
	for _, t := range targets {
		v := t.Measure(sample)
		results = append(results, CalibrationResult{
			Name:  t.Name,
			Value: v,
			Min:   t.Min,
			Max:   t.Max,
			Pass:  v >= t.Min && v <= t.Max,
		})
	}
	return results
}

// CalibrationPasses reports whether every target landed inside its band
func CalibrationPasses(results []CalibrationResult) bool {
	for _, r := range results {
		if !r.Pass {
			return false
		}
	}
	return true
}

// RunCalibration simulates the given number of games between the simulator's
// two profiles and aggregates their stats. Seeds derive from baseSeed the
// same way the Monte Carlo driver does, so a calibration run is reproducible.
func RunCalibration(g *GameSimulator, games int, baseSeed uint64) (*CalibrationSample, error) {
	sample := &CalibrationSample{}
	for i := 0; i < games; i++ {
		stats := &GameStats{}
		if _, err := g.SimulateOneTraced(baseSeed+uint64(i), nil, stats); err != nil {
			return nil, err
		}
		sample.Add(stats)
	}
	logger.Debug("calibration sample", sample.Games, "games", sample.Stats.Drives, "drives")
	return sample, nil
}
