package gridsim

import (
	"fmt"
	"math"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/distuv"
)

// PlayType classifies a single simulated play
type PlayType int

const (
	PlayPass PlayType = iota
	PlayRun
	PlayPunt
	PlayFieldGoal
	PlayKneel
)

func (t PlayType) String() string {
	switch t {
	case PlayPass:
		return "PASS"
	case PlayRun:
		return "RUN"
	case PlayPunt:
		return "PUNT"
	case PlayFieldGoal:
		return "FIELD_GOAL"
	case PlayKneel:
		return "KNEEL"
	default:
		return "UNKNOWN"
	}
}

// TurnoverType distinguishes how possession was lost on a play
type TurnoverType int

const (
	NoTurnover TurnoverType = iota
	TurnoverInterception
	TurnoverFumble
)

// PlayOutcome is the result of one simulated play. It is created once per
// play and immediately folded into the game state; it is not retained beyond
// the play unless tracing is enabled.
type PlayOutcome struct {
	Type      PlayType
	Yards     int
	Complete  bool
	Touchdown bool
	Turnover  TurnoverType
	Sack      bool
	Pressured bool
	Explosive bool

	// Special teams specifics
	Good    bool // field goal made
	Blocked bool // punt blocked (a distinct failure from a missed field goal)
	Net     int  // punt net yards

	ClockStops bool
}

// PlaySimulator produces one play outcome from the two opposing profiles and
// the current game state. One instance serves one trial; it carries the
// trial's private random stream and is not safe for concurrent use.
type PlaySimulator struct {
	cfg    *SimConfig
	rng    *rand.Rand
	tracer *Tracer
}

// NewPlaySimulator wires a play simulator to a trial's random stream
func NewPlaySimulator(cfg *SimConfig, rng *rand.Rand, tracer *Tracer) *PlaySimulator {
	return &PlaySimulator{cfg: cfg, rng: rng, tracer: tracer}
}

// checkRate fails fast when a probability about to be sampled is not a finite
// number. Bad upstream data must surface with the metric's name, never be
// silently clamped away.
func checkRate(metric string, p float64) error {
	if math.IsNaN(p) || math.IsInf(p, 0) {
		return fmt.Errorf("metric %q is not a finite probability: %v", metric, p)
	}
	return nil
}

// clip01 bounds a derived probability before sampling
func clip01(p float64) float64 {
	if p < 0 {
		return 0
	}
	if p > 1 {
		return 1
	}
	return p
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// SimulatePlay runs one play for the current state. On fourth down the
// decision rule selects punt, field goal or a scrimmage play; otherwise the
// offense's tendency table picks pass or run, with a kneel when the offense
// is killing a won game.
func (ps *PlaySimulator) SimulatePlay(offense, defense *TeamProfile, gs *GameState) (*PlayOutcome, error) {
	if err := gs.Validate(); err != nil {
		return nil, err
	}

	if gs.Down == 4 {
		switch call := gs.FourthDownDecision(ps.cfg); call {
		case CallPunt:
			ps.tracer.FourthDown(gs, call)
			return ps.simulatePunt(offense)
		case CallFieldGoal:
			ps.tracer.FourthDown(gs, call)
			return ps.simulateFieldGoal(offense, gs)
		default:
			ps.tracer.FourthDown(gs, call)
			// fall through to a scrimmage play
		}
	}

	if ps.shouldKneel(gs) {
		return &PlayOutcome{Type: PlayKneel, Yards: -1}, nil
	}

	passProb, err := ps.passProbability(offense, gs)
	if err != nil {
		return nil, err
	}

	if ps.rng.Float64() < passProb {
		return ps.simulatePass(offense, defense, gs)
	}
	return ps.simulateRun(offense, defense, gs)
}

// shouldKneel reports whether the offense can end the game by kneeling
func (ps *PlaySimulator) shouldKneel(gs *GameState) bool {
	if gs.ScoreDiff() <= 0 {
		return false
	}
	if !gs.Overtime && gs.Quarter < ps.cfg.Quarters {
		return false
	}
	// Enough kneels remain to exhaust the clock
	kneelsLeft := 4 - gs.Down + 1
	return gs.Clock <= kneelsLeft*ps.cfg.SecondsKneel
}

// passProbability reads the offense's tendency for the score situation and
// applies the configured down/distance shifts.
func (ps *PlaySimulator) passProbability(offense *TeamProfile, gs *GameState) (float64, error) {
	p := offense.PassRate(gs.ScoreDiff())

	// Down and distance shape the call: short yardage leans run, long
	// yardage and late downs lean pass.
	if gs.Distance <= ps.cfg.ShortYardageDistance {
		p += ps.cfg.ShortYardagePassShift
	} else if gs.Distance >= ps.cfg.LongYardageDistance {
		p += ps.cfg.LongYardagePassShift
	}
	if gs.Down >= 3 && gs.Distance >= 5 {
		p += ps.cfg.LateDownPassShift
	}

	if err := checkRate("pass_rate", p); err != nil {
		return 0, err
	}
	return clip01(p), nil
}

// pressureProbability derives the pass-rush pressure rate from the league
// baseline and the line matchup, clamped to a realistic range.
func (ps *PlaySimulator) pressureProbability(offense, defense *TeamProfile) (float64, error) {
	gradeDiff := defense.DLPassRushGrade - offense.OLPassBlockGrade
	p := ps.cfg.LeaguePressureRate + gradeDiff*ps.cfg.PressureGradeCoeff

	if err := checkRate("pressure_rate", p); err != nil {
		return 0, err
	}
	return clamp(p, ps.cfg.PressureRateMin, ps.cfg.PressureRateMax), nil
}

// turnoverRate applies the per-team regression multiplier to a raw rate,
// with the multiplier clamped to its configured range.
func (ps *PlaySimulator) turnoverRate(metric string, raw float64, offense *TeamProfile) (float64, error) {
	mult := clamp(offense.TurnoverRegression, ps.cfg.TurnoverRegressionMin, ps.cfg.TurnoverRegressionMax)
	p := raw * mult
	if err := checkRate(metric, p); err != nil {
		return 0, err
	}
	return clip01(p), nil
}

// lognormalYards draws from a log-normal with the given mean, producing the
// heavy right tail that generates occasional explosive plays. The mu
// parameter is solved so the distribution's mean equals the requested mean.
func (ps *PlaySimulator) lognormalYards(mean, sigma float64) float64 {
	if mean <= 0 {
		return 0
	}
	dist := distuv.LogNormal{
		Mu:    math.Log(mean) - sigma*sigma/2,
		Sigma: sigma,
		Src:   ps.rng,
	}
	return dist.Rand()
}

// redZoneConvert gives a completed or rushed gain near the goal line a
// distance-scaled second chance to reach the end zone. The boost is
// multiplicative in the team's red-zone conversion rate rather than a flat
// bump, which avoids unrealistic goal-line stalling.
func (ps *PlaySimulator) redZoneConvert(offense *TeamProfile, toGoal int) bool {
	if toGoal > ps.cfg.RedZoneYardline {
		return false
	}
	proximity := 1.0 - float64(toGoal)/float64(ps.cfg.RedZoneYardline)
	bonus := (ps.cfg.RedZoneTDBoostMax - 1.0) * proximity * offense.RedZoneTDRate
	return ps.rng.Float64() < clip01(bonus)
}

// simulatePass models one dropback: pressure, the quarterback's pressured or
// clean split, sack and strip-sack, interception, then the completion draw
// and a heavy-tailed yardage draw.
func (ps *PlaySimulator) simulatePass(offense, defense *TeamProfile, gs *GameState) (*PlayOutcome, error) {
	out := &PlayOutcome{Type: PlayPass}
	toGoal := gs.YardsToGoal()

	pressureProb, err := ps.pressureProbability(offense, defense)
	if err != nil {
		return nil, err
	}
	out.Pressured = ps.rng.Float64() < pressureProb

	// Branch on the quarterback's split
	var compRate, ypc, intRate, sackRate float64
	if out.Pressured {
		compRate = offense.QBPressuredCompletionRate
		ypc = offense.QBPressuredYardsPerCompletion
		intRate = offense.QBPressuredINTRate
		sackRate = offense.QBPressuredSackRate
	} else {
		compRate = offense.QBCleanCompletionRate
		ypc = offense.QBCleanYardsPerCompletion
		intRate = offense.QBCleanINTRate
		sackRate = offense.QBCleanSackRate
	}

	// Zero-mean efficiency adjustment: both sides' pass EPA have league mean
	// zero, so the sum shifts this matchup without moving the league-wide
	// baseline.
	epaDiff := offense.OffPassEPA + defense.DefPassEPA

	ps.tracer.Pressure(gs, pressureProb, out.Pressured, compRate)

	if err := checkRate("sack_rate", sackRate); err != nil {
		return nil, err
	}
	if ps.rng.Float64() < clip01(sackRate) {
		out.Sack = true
		out.Yards = -int(math.Round(ps.cfg.SackYardsMean + ps.rng.NormFloat64()*1.5))
		if out.Yards > 0 {
			out.Yards = 0
		}

		stripProb, err := ps.turnoverRate("strip_sack_rate", ps.cfg.FumbleRateSack, offense)
		if err != nil {
			return nil, err
		}
		if ps.rng.Float64() < stripProb && ps.rng.Float64() < ps.cfg.FumbleRecoveryRate {
			out.Turnover = TurnoverFumble
		}
		return out, nil
	}

	intProb, err := ps.turnoverRate("int_rate", intRate, offense)
	if err != nil {
		return nil, err
	}
	if ps.rng.Float64() < intProb {
		out.Turnover = TurnoverInterception
		out.ClockStops = true
		return out, nil
	}

	compProb := compRate + epaDiff*ps.cfg.CompletionEPACoeff
	if err := checkRate("completion_rate", compProb); err != nil {
		return nil, err
	}
	out.Complete = ps.rng.Float64() < clip01(compProb)
	if !out.Complete {
		out.ClockStops = true
		return out, nil
	}

	meanYards := ypc * (1 + epaDiff*ps.cfg.YardsEPACoeff)
	yards := int(math.Round(ps.lognormalYards(meanYards, ps.cfg.PassYardsSigma)))
	if yards >= toGoal {
		yards = toGoal
		out.Touchdown = true
	} else if ps.redZoneConvert(offense, toGoal) {
		yards = toGoal
		out.Touchdown = true
	}
	out.Yards = yards
	out.Explosive = yards >= ps.cfg.ExplosivePassYards

	return out, nil
}

// simulateRun models one rush: an efficiency- and blocking-adjusted shifted
// log-normal gain, with rarer fumbles than pass plays.
func (ps *PlaySimulator) simulateRun(offense, defense *TeamProfile, gs *GameState) (*PlayOutcome, error) {
	out := &PlayOutcome{Type: PlayRun}
	toGoal := gs.YardsToGoal()

	epaDiff := offense.OffRunEPA + defense.DefRunEPA
	gradeDiff := offense.OLRunBlockGrade - defense.DLRunStopGrade

	base := (offense.OffYardsPerPlay + defense.DefYardsPerPlay) / 2
	meanYards := base*(1+epaDiff*ps.cfg.RunEPACoeff) + gradeDiff*ps.cfg.RunBlockGradeCoeff

	// Shifted draw so losses are possible while keeping the heavy tail
	raw := ps.lognormalYards(meanYards+ps.cfg.RunYardsShift, ps.cfg.RunYardsSigma)
	yards := int(math.Round(raw - ps.cfg.RunYardsShift))

	if yards >= toGoal {
		yards = toGoal
		out.Touchdown = true
	} else if yards > 0 && ps.redZoneConvert(offense, toGoal) {
		yards = toGoal
		out.Touchdown = true
	}
	out.Yards = yards
	out.Explosive = yards >= ps.cfg.ExplosiveRunYards

	fumbleProb, err := ps.turnoverRate("fumble_rate_run", ps.cfg.FumbleRateRun, offense)
	if err != nil {
		return nil, err
	}
	if ps.rng.Float64() < fumbleProb && ps.rng.Float64() < ps.cfg.FumbleRecoveryRate {
		out.Turnover = TurnoverFumble
		out.Touchdown = false
	}

	return out, nil
}

// ExtraPoint draws the league-wide point-after conversion
func (ps *PlaySimulator) ExtraPoint() bool {
	return ps.rng.Float64() < ps.cfg.ExtraPointRate
}

// simulatePunt draws the team's net punt yardage; a blocked punt is a
// distinct failure that hands the ball over at the spot.
func (ps *PlaySimulator) simulatePunt(offense *TeamProfile) (*PlayOutcome, error) {
	out := &PlayOutcome{Type: PlayPunt, ClockStops: true}

	if err := checkRate("punt_block_rate", ps.cfg.PuntBlockRate); err != nil {
		return nil, err
	}
	if ps.rng.Float64() < ps.cfg.PuntBlockRate {
		out.Blocked = true
		out.Turnover = TurnoverFumble
		return out, nil
	}

	net := offense.PuntNetYards + ps.rng.NormFloat64()*ps.cfg.PuntNetSigma
	if net < 10 {
		net = 10
	}
	out.Net = int(math.Round(net))
	return out, nil
}

// simulateFieldGoal attempts a kick from the current spot using the team's
// distance-banded make rates.
func (ps *PlaySimulator) simulateFieldGoal(offense *TeamProfile, gs *GameState) (*PlayOutcome, error) {
	out := &PlayOutcome{Type: PlayFieldGoal, ClockStops: true}

	kickYards := gs.YardsToGoal() + ps.cfg.FieldGoalHoldYards
	makeProb := offense.FGMakeRate(kickYards)
	if err := checkRate("fg_make_rate", makeProb); err != nil {
		return nil, err
	}

	out.Good = ps.rng.Float64() < clip01(makeProb)
	return out, nil
}
