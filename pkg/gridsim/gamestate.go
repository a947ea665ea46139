package gridsim

import (
	"fmt"
	"math"
)

// Possession identifies which team has the ball
type Possession int

const (
	HomePossession Possession = iota
	AwayPossession
)

func (p Possession) String() string {
	if p == HomePossession {
		return "HOME"
	}
	return "AWAY"
}

// Other returns the opposing side
func (p Possession) Other() Possession {
	if p == HomePossession {
		return AwayPossession
	}
	return HomePossession
}

// FourthDownCall is the outcome of the fourth-down decision rule
type FourthDownCall int

const (
	CallPunt FourthDownCall = iota
	CallFieldGoal
	CallGoForIt
)

func (c FourthDownCall) String() string {
	switch c {
	case CallPunt:
		return "PUNT"
	case CallFieldGoal:
		return "FIELD_GOAL"
	case CallGoForIt:
		return "GO_FOR_IT"
	default:
		return "UNKNOWN"
	}
}

// GameState is the mutable record of one simulated game's situation.
// Yardline is the offense's distance from its own goal line, so 100-Yardline
// yards remain to score. It is created at kickoff, mutated after every play,
// and terminal when the final period's clock reaches zero.
type GameState struct {
	Down       int // 1-4
	Distance   int // yards to go for a first down
	Yardline   int // 0-100, offense perspective
	Quarter    int // 1-based; Quarter > cfg.Quarters means overtime
	Clock      int // seconds remaining in the current period
	HomeScore  int
	AwayScore  int
	Possession Possession
	Drive      int // drive counter across the game
	DrivePlays int // plays in the current drive, for the hard safety cap
	Overtime   bool
}

// NewGameState creates the opening state with the given team receiving the
// kickoff at the touchback spot.
func NewGameState(receiving Possession, cfg *SimConfig) *GameState {
	return &GameState{
		Down:       1,
		Distance:   10,
		Yardline:   cfg.TouchbackYardline,
		Quarter:    1,
		Clock:      cfg.QuarterSeconds,
		Possession: receiving,
		Drive:      1,
	}
}

// Validate checks the state invariants. A violation is a programming error:
// the current trial is aborted, never retried.
func (gs *GameState) Validate() error {
	if gs.Down < 1 || gs.Down > 4 {
		return &InvalidStateError{Field: "down", Detail: fmt.Sprintf("value %d outside 1-4", gs.Down)}
	}
	if gs.Distance < 1 {
		return &InvalidStateError{Field: "distance", Detail: fmt.Sprintf("value %d below 1", gs.Distance)}
	}
	if gs.Yardline < 0 || gs.Yardline > 100 {
		return &InvalidStateError{Field: "yardline", Detail: fmt.Sprintf("value %d outside 0-100", gs.Yardline)}
	}
	if gs.Clock < 0 {
		return &InvalidStateError{Field: "clock", Detail: fmt.Sprintf("value %d below 0", gs.Clock)}
	}
	if gs.HomeScore < 0 || gs.AwayScore < 0 {
		return &InvalidStateError{Field: "score", Detail: fmt.Sprintf("negative score %d-%d", gs.HomeScore, gs.AwayScore)}
	}
	if gs.Quarter < 1 {
		return &InvalidStateError{Field: "quarter", Detail: fmt.Sprintf("value %d below 1", gs.Quarter)}
	}
	return nil
}

// YardsToGoal returns the offense's remaining yards to the opponent end zone
func (gs *GameState) YardsToGoal() int {
	return 100 - gs.Yardline
}

// ScoreDiff returns offense score minus defense score
func (gs *GameState) ScoreDiff() int {
	if gs.Possession == HomePossession {
		return gs.HomeScore - gs.AwayScore
	}
	return gs.AwayScore - gs.HomeScore
}

// GameSecondsRemaining returns the seconds left in regulation, or in the
// overtime period when the game has gone past regulation.
func (gs *GameState) GameSecondsRemaining(cfg *SimConfig) int {
	if gs.Overtime {
		return gs.Clock
	}
	return gs.Clock + (cfg.Quarters-gs.Quarter)*cfg.QuarterSeconds
}

// FourthDownDecision resolves the punt / field goal / go-for-it branch.
//
// Policy: desperation mode (trailing by more than a field goal with the game
// clock nearly out) overrides everything toward going for it. Short yardage
// beyond the go-for-it yardline also goes. Otherwise a field goal is
// attempted whenever in range, taking precedence over the punt.
func (gs *GameState) FourthDownDecision(cfg *SimConfig) FourthDownCall {
	trailingBy := -gs.ScoreDiff()
	if trailingBy > cfg.DesperationDeficit && gs.GameSecondsRemaining(cfg) <= cfg.DesperationClockSeconds {
		return CallGoForIt
	}

	if gs.Distance <= cfg.GoForItMaxDistance && gs.Yardline >= cfg.GoForItMinYardline {
		return CallGoForIt
	}

	if gs.YardsToGoal() <= cfg.FieldGoalRangeYards {
		return CallFieldGoal
	}

	return CallPunt
}

// ConsumeClock burns play-type base seconds modulated by the offense's pace,
// clamped to a realistic per-play range. The clock never goes below zero; the
// drive loop treats a zero clock as period expiry.
func (gs *GameState) ConsumeClock(baseSeconds int, paceSecondsPerPlay float64, cfg *SimConfig) {
	factor := paceSecondsPerPlay / cfg.LeaguePaceSeconds
	seconds := int(math.Round(float64(baseSeconds) * factor))
	if seconds < cfg.MinPlaySeconds {
		seconds = cfg.MinPlaySeconds
	}
	if seconds > cfg.MaxPlaySeconds {
		seconds = cfg.MaxPlaySeconds
	}
	gs.Clock -= seconds
	if gs.Clock < 0 {
		gs.Clock = 0
	}
}

// StartDrive hands the ball to the given side at the given yardline and
// resets down, distance and the per-drive play counter.
func (gs *GameState) StartDrive(side Possession, yardline int) {
	gs.Possession = side
	gs.Yardline = yardline
	gs.Down = 1
	gs.Distance = 10
	if gs.YardsToGoal() < 10 {
		gs.Distance = gs.YardsToGoal()
	}
	gs.Drive++
	gs.DrivePlays = 0
}

// AddPoints credits the given side
func (gs *GameState) AddPoints(side Possession, points int) {
	if side == HomePossession {
		gs.HomeScore += points
	} else {
		gs.AwayScore += points
	}
}

// DriveResult is the terminal event of a drive
type DriveResult string

const (
	DriveTouchdown       DriveResult = "TOUCHDOWN"
	DriveFieldGoal       DriveResult = "FIELD_GOAL"
	DriveMissedFieldGoal DriveResult = "MISSED_FIELD_GOAL"
	DrivePunt            DriveResult = "PUNT"
	DriveBlockedPunt     DriveResult = "BLOCKED_PUNT"
	DriveTurnover        DriveResult = "TURNOVER"
	DriveDowns           DriveResult = "TURNOVER_ON_DOWNS"
	DriveSafety          DriveResult = "SAFETY"
	DriveEndOfPeriod     DriveResult = "END_OF_PERIOD"
	DrivePlayCapReached  DriveResult = "PLAY_CAP"
)

// DriveRecord is the per-drive audit trail, produced only when tracing or
// calibration aggregation is enabled.
type DriveRecord struct {
	Number        int
	Possession    Possession
	Plays         int
	SecondsUsed   int
	StartYardline int
	Result        DriveResult
	Points        int
}
