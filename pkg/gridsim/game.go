package gridsim

import (
	"fmt"

	"golang.org/x/exp/rand"
)

// FinalScore is the terminal score of one simulated game
type FinalScore struct {
	Home int
	Away int
}

// GameSimulator orchestrates full games between two validated profiles. The
// profiles are read-only during simulation, so one GameSimulator can serve
// many concurrent trials.
type GameSimulator struct {
	cfg  *SimConfig
	home *TeamProfile
	away *TeamProfile
}

// NewGameSimulator validates the configuration and both profiles before any
// simulation can run. Data problems surface here, not mid-trial.
func NewGameSimulator(cfg *SimConfig, home, away *TeamProfile) (*GameSimulator, error) {
	if cfg == nil {
		return nil, fmt.Errorf("nil config")
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config invalid: %w", err)
	}
	if err := home.Validate(); err != nil {
		return nil, err
	}
	if err := away.Validate(); err != nil {
		return nil, err
	}
	return &GameSimulator{cfg: cfg, home: home, away: away}, nil
}

// SimulateOne runs a single full game from the given seed. The same seed and
// profiles always produce the same final score.
func (g *GameSimulator) SimulateOne(seed uint64) (FinalScore, error) {
	return g.SimulateOneTraced(seed, nil, nil)
}

// SimulateOneTraced runs a single game, optionally emitting trace events and
// accumulating calibration aggregates.
func (g *GameSimulator) SimulateOneTraced(seed uint64, tracer *Tracer, stats *GameStats) (FinalScore, error) {
	rng := rand.New(rand.NewSource(seed))
	ps := NewPlaySimulator(g.cfg, rng, tracer)

	// Coin toss decides the opening possession; a fixed receiver would bake
	// a sequencing bias into the home side.
	opening := HomePossession
	if rng.Float64() < 0.5 {
		opening = AwayPossession
	}
	gs := NewGameState(opening, g.cfg)

	for {
		rec, err := g.runDrive(ps, gs, tracer, stats)
		if err != nil {
			return FinalScore{}, err
		}
		tracer.DriveEnd(gs, rec)
		if stats != nil {
			stats.addDrive(rec)
		}

		if gs.Overtime && gs.HomeScore != gs.AwayScore {
			break // sudden death decided
		}

		if gs.Clock > 0 {
			continue
		}

		// Period expired
		if gs.Overtime {
			break // overtime exhausted, tie stands
		}
		if gs.Quarter < g.cfg.Quarters {
			gs.Quarter++
			gs.Clock = g.cfg.QuarterSeconds
			if gs.Quarter == g.cfg.Quarters/2+1 {
				// Second-half kickoff goes to the opening kicker
				gs.StartDrive(opening.Other(), g.cfg.TouchbackYardline)
			} else {
				// The situation carries over; only the drive record closes
				gs.Drive++
				gs.DrivePlays = 0
			}
			continue
		}

		// Regulation complete
		if gs.HomeScore != gs.AwayScore {
			break
		}
		// Sudden-death overtime: fresh toss, one bounded period
		gs.Overtime = true
		gs.Quarter++
		gs.Clock = g.cfg.OvertimeSeconds
		receiver := HomePossession
		if rng.Float64() < 0.5 {
			receiver = AwayPossession
		}
		gs.StartDrive(receiver, g.cfg.TouchbackYardline)
	}

	score := FinalScore{Home: gs.HomeScore, Away: gs.AwayScore}
	tracer.GameEnd(gs, score)
	return score, nil
}

func (g *GameSimulator) offenseDefense(gs *GameState) (*TeamProfile, *TeamProfile) {
	if gs.Possession == HomePossession {
		return g.home, g.away
	}
	return g.away, g.home
}

// runDrive advances the game one possession: plays are simulated and folded
// into the state until a terminal drive event or period expiry. The next
// drive's field position is set before returning.
func (g *GameSimulator) runDrive(ps *PlaySimulator, gs *GameState, tracer *Tracer, stats *GameStats) (*DriveRecord, error) {
	offense, defense := g.offenseDefense(gs)
	rec := &DriveRecord{
		Number:        gs.Drive,
		Possession:    gs.Possession,
		StartYardline: gs.Yardline,
	}
	startClock := gs.Clock

	for {
		if gs.Clock == 0 {
			rec.Result = DriveEndOfPeriod
			rec.SecondsUsed = startClock
			return rec, nil
		}

		// Hard safety limit against degenerate loops: the drive is forced
		// dead as a turnover on downs at the cap.
		if gs.DrivePlays >= g.cfg.MaxPlaysPerDrive {
			rec.Result = DrivePlayCapReached
			rec.SecondsUsed = startClock - gs.Clock
			gs.StartDrive(gs.Possession.Other(), 100-gs.Yardline)
			return rec, nil
		}

		out, err := ps.SimulatePlay(offense, defense, gs)
		if err != nil {
			return nil, err
		}
		gs.DrivePlays++
		rec.Plays++
		tracer.Play(gs, out)
		if stats != nil && out.Explosive {
			stats.ExplosivePlays++
		}

		var base int
		switch out.Type {
		case PlayRun:
			base = g.cfg.SecondsRunPlay
		case PlayPass:
			if out.Sack {
				base = g.cfg.SecondsRunPlay
			} else if out.Complete {
				base = g.cfg.SecondsCompletedPass
			} else {
				base = g.cfg.SecondsIncompletePass
			}
		case PlayPunt, PlayFieldGoal:
			base = g.cfg.SecondsSpecialTeams
		case PlayKneel:
			base = g.cfg.SecondsKneel
		}
		gs.ConsumeClock(base, offense.PaceSecondsPerPlay, g.cfg)

		done, err := g.applyOutcome(ps, gs, out, rec)
		if err != nil {
			return nil, err
		}
		if done {
			rec.SecondsUsed = startClock - gs.Clock
			return rec, nil
		}
	}
}

// applyOutcome folds one play outcome into the game state. It returns true
// when the drive has terminated.
func (g *GameSimulator) applyOutcome(ps *PlaySimulator, gs *GameState, out *PlayOutcome, rec *DriveRecord) (bool, error) {
	offenseSide := gs.Possession
	defenseSide := offenseSide.Other()

	switch out.Type {
	case PlayPunt:
		if out.Blocked {
			rec.Result = DriveBlockedPunt
			gs.StartDrive(defenseSide, 100-gs.Yardline)
			return true, nil
		}
		rec.Result = DrivePunt
		receiving := 100 - (gs.Yardline + out.Net)
		if receiving < 1 {
			receiving = g.cfg.TouchbackYardline
		}
		gs.StartDrive(defenseSide, receiving)
		return true, nil

	case PlayFieldGoal:
		if out.Good {
			gs.AddPoints(offenseSide, 3)
			rec.Result = DriveFieldGoal
			rec.Points = 3
			gs.StartDrive(defenseSide, g.cfg.TouchbackYardline)
			return true, nil
		}
		rec.Result = DriveMissedFieldGoal
		// Opponent takes over at the spot of the kick
		spot := 100 - gs.Yardline + 7
		if spot > 80 {
			spot = 80
		}
		gs.StartDrive(defenseSide, spot)
		return true, nil

	case PlayKneel:
		gs.Yardline += out.Yards
		if gs.Yardline < 1 {
			gs.Yardline = 1
		}
		if gs.Down < 4 {
			gs.Down++
			gs.Distance -= out.Yards
		} else {
			rec.Result = DriveDowns
			gs.StartDrive(defenseSide, 100-gs.Yardline)
			return true, nil
		}
		return false, nil

	default: // pass or run
		if out.Turnover != NoTurnover {
			rec.Result = DriveTurnover
			spot := gs.Yardline + out.Yards
			var takeover int
			if spot <= 0 {
				takeover = g.cfg.TouchbackYardline
			} else {
				takeover = 100 - spot
				if takeover < 1 {
					takeover = 1
				}
				if takeover > 99 {
					takeover = 99
				}
			}
			gs.StartDrive(defenseSide, takeover)
			return true, nil
		}

		gs.Yardline += out.Yards

		if out.Touchdown || gs.Yardline >= 100 {
			points := 6
			if ps.ExtraPoint() {
				points = 7
			}
			gs.AddPoints(offenseSide, points)
			rec.Result = DriveTouchdown
			rec.Points = points
			gs.StartDrive(defenseSide, g.cfg.TouchbackYardline)
			return true, nil
		}

		if gs.Yardline <= 0 {
			// Tackled in the own end zone
			gs.AddPoints(defenseSide, 2)
			rec.Result = DriveSafety
			rec.Points = 2
			// Free kick after a safety leaves the receiver better placed
			// than a normal kickoff
			gs.StartDrive(defenseSide, g.cfg.TouchbackYardline+10)
			return true, nil
		}

		if out.Yards >= gs.Distance {
			gs.Down = 1
			gs.Distance = 10
			if gs.YardsToGoal() < 10 {
				gs.Distance = gs.YardsToGoal()
			}
			return false, nil
		}

		if gs.Down == 4 {
			rec.Result = DriveDowns
			gs.StartDrive(defenseSide, 100-gs.Yardline)
			return true, nil
		}
		gs.Down++
		gs.Distance -= out.Yards
		return false, nil
	}
}

// GameStats accumulates per-game aggregates for calibration checks
type GameStats struct {
	Drives           int
	Plays            int
	Touchdowns       int
	FieldGoals       int
	MissedFieldGoals int
	Punts            int
	Turnovers        int
	Safeties         int
	ExplosivePlays   int
	Points           int
}

func (s *GameStats) addDrive(rec *DriveRecord) {
	s.Drives++
	s.Plays += rec.Plays
	s.Points += rec.Points
	switch rec.Result {
	case DriveTouchdown:
		s.Touchdowns++
	case DriveFieldGoal:
		s.FieldGoals++
	case DriveMissedFieldGoal:
		s.MissedFieldGoals++
	case DrivePunt, DriveBlockedPunt:
		s.Punts++
	case DriveTurnover:
		s.Turnovers++
	case DriveSafety:
		s.Safeties++
	}
}
