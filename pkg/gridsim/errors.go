package gridsim

import (
	"errors"
	"fmt"
)

// Sentinel error kinds for this package. These allow errors.Is/As from callers.
var (
	ErrMissingData         = errors.New("missing profile data")
	ErrInvalidState        = errors.New("invalid game state")
	ErrCenteringDegenerate = errors.New("degenerate batch for centering")
	ErrBatchIntegrity      = errors.New("batch integrity violated")
)

// MissingDataError reports a required TeamProfile field that is absent or
// invalid for a given team/week. It is raised at profile validation time so
// that bad inputs never reach a random draw.
type MissingDataError struct {
	Team   string
	Season int
	Week   int
	Field  string
	Detail string
}

func (e *MissingDataError) Error() string {
	return fmt.Sprintf("team %s season %d week %d: field %q %s",
		e.Team, e.Season, e.Week, e.Field, e.Detail)
}

func (e *MissingDataError) Unwrap() error { return ErrMissingData }

// InvalidStateError reports a GameState invariant violation. It is fatal for
// the trial in which it occurs and is never retried.
type InvalidStateError struct {
	Field  string
	Detail string
}

func (e *InvalidStateError) Error() string {
	return fmt.Sprintf("game state %s: %s", e.Field, e.Detail)
}

func (e *InvalidStateError) Unwrap() error { return ErrInvalidState }

// BatchIntegrityError reports that too many trials failed within one
// prediction, or that a partial batch is too small to trust. The whole
// prediction fails rather than returning a biased sample from a shrunken N.
type BatchIntegrityError struct {
	Completed int
	Failed    int
	Requested int
	First     error // first per-trial failure, for diagnosis
}

func (e *BatchIntegrityError) Error() string {
	msg := fmt.Sprintf("%d of %d trials failed (%d completed)", e.Failed, e.Requested, e.Completed)
	if e.First != nil {
		msg += ": first failure: " + e.First.Error()
	}
	return msg
}

func (e *BatchIntegrityError) Unwrap() error { return ErrBatchIntegrity }
