package gridsim

import (
	"io"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Tracer emits one JSON line per simulation event to a writer. A nil *Tracer
// is valid and records nothing, so the hot path carries no conditionals at
// call sites. Tracing a full game is expensive and is meant for auditing
// single trials, not batch runs.
type Tracer struct {
	log    *logrus.Logger
	gameID string
}

// NewTracer builds a tracer writing line-delimited JSON events to w. Each
// tracer is scoped to one game and stamps every event with a fresh game id.
func NewTracer(w io.Writer) *Tracer {
	log := logrus.New()
	log.SetOutput(w)
	log.SetFormatter(&logrus.JSONFormatter{})
	log.SetLevel(logrus.InfoLevel)
	return &Tracer{
		log:    log,
		gameID: uuid.New().String(),
	}
}

// GameID returns the identifier stamped on this tracer's events
func (t *Tracer) GameID() string {
	if t == nil {
		return ""
	}
	return t.gameID
}

func (t *Tracer) situation(gs *GameState) *logrus.Entry {
	return t.log.WithFields(logrus.Fields{
		"game_id":    t.gameID,
		"quarter":    gs.Quarter,
		"clock":      gs.Clock,
		"possession": gs.Possession.String(),
		"down":       gs.Down,
		"distance":   gs.Distance,
		"yardline":   gs.Yardline,
		"home_score": gs.HomeScore,
		"away_score": gs.AwayScore,
	})
}

// FourthDown records the decision rule's branch before the play runs
func (t *Tracer) FourthDown(gs *GameState, call FourthDownCall) {
	if t == nil {
		return
	}
	t.situation(gs).WithField("call", call.String()).Info("fourth_down_decision")
}

// Pressure records the pressure draw and the quarterback split it selected
func (t *Tracer) Pressure(gs *GameState, pressureProb float64, pressured bool, compRate float64) {
	if t == nil {
		return
	}
	t.situation(gs).WithFields(logrus.Fields{
		"pressure_prob":   pressureProb,
		"pressured":       pressured,
		"completion_rate": compRate,
	}).Info("pressure_draw")
}

// Play records a resolved play outcome
func (t *Tracer) Play(gs *GameState, out *PlayOutcome) {
	if t == nil {
		return
	}
	entry := t.situation(gs).WithFields(logrus.Fields{
		"play_type": out.Type.String(),
		"yards":     out.Yards,
		"touchdown": out.Touchdown,
		"explosive": out.Explosive,
	})
	if out.Type == PlayPass {
		entry = entry.WithFields(logrus.Fields{
			"complete":  out.Complete,
			"sack":      out.Sack,
			"pressured": out.Pressured,
		})
	}
	if out.Turnover != NoTurnover {
		entry = entry.WithField("turnover", int(out.Turnover))
	}
	entry.Info("play")
}

// DriveEnd records a terminated drive
func (t *Tracer) DriveEnd(gs *GameState, rec *DriveRecord) {
	if t == nil {
		return
	}
	t.log.WithFields(logrus.Fields{
		"game_id":        t.gameID,
		"drive":          rec.Number,
		"possession":     rec.Possession.String(),
		"plays":          rec.Plays,
		"seconds_used":   rec.SecondsUsed,
		"start_yardline": rec.StartYardline,
		"result":         string(rec.Result),
		"points":         rec.Points,
	}).Info("drive_end")
}

// GameEnd records the final score
func (t *Tracer) GameEnd(gs *GameState, score FinalScore) {
	if t == nil {
		return
	}
	t.log.WithFields(logrus.Fields{
		"game_id":    t.gameID,
		"home_score": score.Home,
		"away_score": score.Away,
		"overtime":   gs.Overtime,
	}).Info("game_end")
}
