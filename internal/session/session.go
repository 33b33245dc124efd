// Package session owns the state of the compliance-check view: the selected
// drone class, the last location reading, and the outcome of the current
// check. Each check carries a generation number; a check whose generation is
// no longer current when it finishes is discarded instead of applied.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/dshills/dronecheck/internal/classify"
	"github.com/dshills/dronecheck/internal/geo"
	"github.com/dshills/dronecheck/internal/logging"
	"github.com/dshills/dronecheck/internal/schema"
)

// ErrSuperseded is returned to a check that was replaced by a newer check or
// a reset before it finished. Its outcome was not applied.
var ErrSuperseded = errors.New("check superseded")

// Phase is the lifecycle position of the current check.
type Phase string

const (
	PhaseIdle       Phase = "idle"
	PhaseLocating   Phase = "locating"
	PhaseEvaluating Phase = "evaluating"
	PhaseDone       Phase = "done"
	PhaseFailed     Phase = "failed"
)

// Evaluator is the classifier capability the session needs.
type Evaluator interface {
	EvaluateDetailed(ctx context.Context, q schema.Query) (*classify.Outcome, error)
}

// State is a point-in-time copy of the session for rendering.
type State struct {
	Generation uint64
	CheckID    string
	Phase      Phase
	ClassID    string
	Location   *schema.Location
	Outcome    *classify.Outcome
	Err        error
}

// Busy reports whether a check is in flight.
func (s State) Busy() bool {
	return s.Phase == PhaseLocating || s.Phase == PhaseEvaluating
}

// Session sequences geolocation then classification for one check at a time.
type Session struct {
	geo       geo.Provider
	evaluator Evaluator
	logger    *slog.Logger

	mu     sync.Mutex
	state  State
	cancel context.CancelFunc
}

// New returns an idle Session.
func New(g geo.Provider, e Evaluator, logger *slog.Logger) *Session {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Session{
		geo:       g,
		evaluator: e,
		logger:    logger,
		state:     State{Phase: PhaseIdle},
	}
}

// Snapshot returns a copy of the current state.
func (s *Session) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Reset abandons any in-flight check and returns to idle. It never waits on
// the abandoned check.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.abandonLocked()
	s.state = State{Generation: s.state.Generation + 1, Phase: PhaseIdle, ClassID: s.state.ClassID}
}

func (s *Session) abandonLocked() {
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
}

// Run starts a check for classID, superseding any check already in flight,
// and blocks until it finishes. The returned state is the one this check
// produced; if the check was superseded meanwhile, ErrSuperseded is returned
// and the session state is left to the newer check.
func (s *Session) Run(ctx context.Context, classID string) (State, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	s.mu.Lock()
	s.abandonLocked()
	gen := s.state.Generation + 1
	checkID := uuid.NewString()
	s.state = State{
		Generation: gen,
		CheckID:    checkID,
		Phase:      PhaseLocating,
		ClassID:    classID,
	}
	s.cancel = cancel
	s.mu.Unlock()

	log := s.logger.With("check_id", checkID, "generation", gen, "class", classID)
	log.Debug("check started")

	loc, err := s.geo.CurrentLocation(ctx)
	if err != nil {
		log.Warn("geolocation failed", "error", err)
		return s.finish(gen, func(st *State) {
			st.Phase = PhaseFailed
			st.Err = err
		})
	}

	if _, err := s.advance(gen, func(st *State) {
		st.Phase = PhaseEvaluating
		st.Location = &loc
	}); err != nil {
		log.Debug("check superseded before evaluation")
		return State{}, err
	}

	out, err := s.evaluator.EvaluateDetailed(ctx, schema.Query{ClassID: classID, Location: loc})
	if err != nil {
		return s.finish(gen, func(st *State) {
			st.Phase = PhaseFailed
			st.Err = err
		})
	}
	return s.finish(gen, func(st *State) {
		st.Phase = PhaseDone
		st.Outcome = out
	})
}

// advance applies fn if gen is still current.
func (s *Session) advance(gen uint64, fn func(*State)) (State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state.Generation != gen {
		return State{}, fmt.Errorf("%w (generation %d, current %d)", ErrSuperseded, gen, s.state.Generation)
	}
	fn(&s.state)
	return s.state, nil
}

// finish applies the final outcome if gen is still current and releases the
// cancel func.
func (s *Session) finish(gen uint64, fn func(*State)) (State, error) {
	st, err := s.advance(gen, func(st *State) {
		fn(st)
		s.cancel = nil
	})
	if err != nil {
		s.logger.Debug("discarding stale check outcome", "generation", gen)
		return State{}, err
	}
	return st, st.Err
}
