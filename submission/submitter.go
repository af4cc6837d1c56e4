// Package submission writes a case and its loved ones to the document store.
//
// A submission runs in order: acquire the case key, write the public case
// document, write the private case document, then write every loved one. A
// failed private write deletes the public document again, and a failed
// private loved-one write deletes that loved one's public document. Loved ones
// are written concurrently and never fail the case itself.
package submission

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/miraclemessages/mm-case-api/databases"
	"github.com/miraclemessages/mm-case-api/logging"
	"github.com/miraclemessages/mm-case-api/models"
)

// DefaultStepTimeout bounds each remote step when no timeout is configured
const DefaultStepTimeout = 15 * time.Second

// Outcome is the single result delivered for a submission
type Outcome struct {
	CaseKey   string           `json:"caseKey,omitempty"`
	State     State            `json:"state"`
	Err       error            `json:"-"`
	LovedOnes []LovedOneResult `json:"lovedOnes"`
}

// OK reports whether the case itself was written. Loved-one failures do not count.
func (o Outcome) OK() bool { return o.Err == nil }

// Kind classifies the outcome's error
func (o Outcome) Kind() Kind { return KindOf(o.Err) }

// LovedOneErrors combines the errors of every failed loved one
func (o Outcome) LovedOneErrors() error {
	var errs []error
	for _, r := range o.LovedOnes {
		if r.Err != nil {
			errs = append(errs, r.Err)
		}
	}
	return multierr.Combine(errs...)
}

// LovedOneResult is the result of writing one loved one
type LovedOneResult struct {
	LocalID string `json:"localId"`
	ID      string `json:"id,omitempty"`
	Err     error  `json:"-"`
}

// OK reports whether both loved-one documents were written
func (r LovedOneResult) OK() bool { return r.Err == nil }

// Option configures a Submitter
type Option func(*Submitter)

// WithStepTimeout sets the timeout of each remote step
func WithStepTimeout(d time.Duration) Option {
	return func(s *Submitter) {
		if d > 0 {
			s.stepTimeout = d
		}
	}
}

// WithClock replaces time.Now, used for the submission date
func WithClock(now func() time.Time) Option {
	return func(s *Submitter) { s.now = now }
}

// Submitter runs case submissions against a store
type Submitter struct {
	store       databases.Store
	stepTimeout time.Duration
	now         func() time.Time
	log         *zap.SugaredLogger

	flight  singleflight.Group
	mu      sync.Mutex
	byCase  map[*models.Case]*flight
	byKey   map[string]*flight
	flights uint64
}

// flight is one running submission and the callers sharing it
type flight struct {
	id  string
	c   *models.Case
	key string
	m   *machine
	fn  func() (interface{}, error)
}

// New returns a Submitter writing to store
func New(store databases.Store, opts ...Option) *Submitter {
	s := &Submitter{
		store:       store,
		stepTimeout: DefaultStepTimeout,
		now:         time.Now,
		log:         logging.New("submission"),
		byCase:      make(map[*models.Case]*flight),
		byKey:       make(map[string]*flight),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Submit validates c and writes it asynchronously. The returned channel
// receives exactly one Outcome and is then closed.
//
// Validation happens before Submit returns; a case missing a required field
// gets a ValidationError outcome and nothing is written. Concurrent calls for
// the same case, or for cases with the same key, share one submission and
// every caller's observers follow it to the end. The case must not be
// modified until the outcome has been delivered.
func (s *Submitter) Submit(ctx context.Context, c *models.Case, observers ...Observer) <-chan Outcome {
	out := make(chan Outcome, 1)
	publish(observers, Event{State: StateValidating, At: time.Now()})

	s.mu.Lock()
	if f := s.inFlight(c); f != nil {
		if err := Validate(c); err != nil {
			s.mu.Unlock()
			s.reject(out, c.Key, err, observers)
			return out
		}
		f.m.join(observers)
		s.deliver(out, s.flight.DoChan(f.id, f.fn))
		s.mu.Unlock()
		return out
	}

	p, err := newPlan(c, s.now())
	if err != nil {
		key := c.Key
		s.mu.Unlock()
		s.reject(out, key, err, observers)
		return out
	}
	c.SubmissionDate = p.submitted
	c.Age = p.age

	s.flights++
	f := &flight{id: fmt.Sprintf("submission-%d", s.flights), c: c, key: c.Key, m: newMachine(observers)}
	f.fn = func() (interface{}, error) {
		o := s.run(ctx, f, p)
		s.land(f)
		return o, nil
	}
	s.byCase[c] = f
	if f.key != "" {
		s.byKey[f.key] = f
	}
	s.deliver(out, s.flight.DoChan(f.id, f.fn))
	s.mu.Unlock()
	return out
}

// inFlight returns the running submission of c, if any. s.mu must be held.
func (s *Submitter) inFlight(c *models.Case) *flight {
	if f, ok := s.byCase[c]; ok {
		return f
	}
	if c.Key != "" {
		return s.byKey[c.Key]
	}
	return nil
}

// land forgets f once its submission has finished
func (s *Submitter) land(f *flight) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.byCase[f.c] == f {
		delete(s.byCase, f.c)
	}
	if f.key != "" && s.byKey[f.key] == f {
		delete(s.byKey, f.key)
	}
}

func (s *Submitter) reject(out chan<- Outcome, key string, err error, observers []Observer) {
	newMachine(observers).fail(key, err)
	out <- Outcome{CaseKey: key, State: StateFailed, Err: err}
	close(out)
}

func (s *Submitter) deliver(out chan<- Outcome, results <-chan singleflight.Result) {
	go func() {
		r := <-results
		out <- r.Val.(Outcome)
		close(out)
	}()
}

func (s *Submitter) run(ctx context.Context, f *flight, p *plan) Outcome {
	c, m := f.c, f.m
	fail := func(key string, err error) Outcome {
		m.fail(key, err)
		return Outcome{CaseKey: key, State: StateFailed, Err: err}
	}

	key := f.key
	if err := ctx.Err(); err != nil {
		return fail(key, &CanceledError{Step: StateAcquiringKey, Err: err})
	}
	m.enter(StateAcquiringKey, key)
	if key == "" {
		key = databases.LastSegment(s.store.ChildByAutoID(databases.CasesPath))
		s.mu.Lock()
		c.Key = key
		f.key = key
		s.byKey[key] = f
		s.mu.Unlock()
	}

	publicPath := databases.CasePath(key)
	m.enter(StateWritingPublic, key)
	if err := s.step(ctx, StateWritingPublic, "write", publicPath, func(ctx context.Context) error {
		return s.store.Write(ctx, publicPath, p.public)
	}); err != nil {
		s.log.Errorw("failed to write case", "key", key, "error", err)
		return fail(key, err)
	}

	privatePath := databases.CasePrivatePath(key)
	m.enter(StateWritingPrivate, key)
	if err := s.step(ctx, StateWritingPrivate, "write", privatePath, func(ctx context.Context) error {
		return s.store.Write(ctx, privatePath, p.private)
	}); err != nil {
		s.log.Errorw("failed to write private case, removing public case", "key", key, "error", err)
		return fail(key, s.compensate(ctx, StateWritingPrivate, publicPath, err))
	}
	s.log.Infow("case successfully written", "key", key)

	m.enter(StateWritingLovedOnes, key)
	lovedOnes := s.writeLovedOnes(ctx, key, c.LovedOnes)

	m.enter(StateDone, key)
	return Outcome{CaseKey: key, State: StateDone, LovedOnes: lovedOnes}
}

func (s *Submitter) writeLovedOnes(ctx context.Context, key string, lovedOnes []*models.LovedOne) []LovedOneResult {
	results := make([]LovedOneResult, len(lovedOnes))
	var g errgroup.Group
	for i, l := range lovedOnes {
		i, l := i, l
		// ids are allocated up front so the goroutines only touch their own result
		if l.ID == "" {
			l.ID = databases.LastSegment(s.store.ChildByAutoID(databases.LovedOnesCollection(key)))
		}
		g.Go(func() error {
			results[i] = s.writeLovedOne(ctx, key, l)
			return nil
		})
	}
	_ = g.Wait()
	return results
}

func (s *Submitter) writeLovedOne(ctx context.Context, key string, l *models.LovedOne) LovedOneResult {
	res := LovedOneResult{LocalID: l.LocalID, ID: l.ID}
	publicPath := databases.LovedOnePath(key, l.ID)
	privatePath := databases.LovedOnePrivatePath(key, l.ID)

	if err := s.step(ctx, StateWritingLovedOnes, "write", publicPath, func(ctx context.Context) error {
		return s.store.Write(ctx, publicPath, l.PublicDocument())
	}); err != nil {
		s.log.Warnw("failed to write loved one", "key", key, "id", l.ID, "error", err)
		res.Err = err
		return res
	}

	if err := s.step(ctx, StateWritingLovedOnes, "write", privatePath, func(ctx context.Context) error {
		return s.store.Write(ctx, privatePath, l.PrivateDocument())
	}); err != nil {
		s.log.Warnw("failed to write private loved one, removing public loved one", "key", key, "id", l.ID, "error", err)
		res.Err = s.compensate(ctx, StateWritingLovedOnes, publicPath, err)
		return res
	}

	s.log.Debugw("loved one successfully written", "key", key, "id", l.ID)
	return res
}

// compensate deletes the document at path after step failed with cause. It
// runs even when ctx has been canceled.
func (s *Submitter) compensate(ctx context.Context, step State, path string, cause error) error {
	partial := &PartialSubmissionError{Step: step, Cause: cause, Compensated: path}
	detached := context.WithoutCancel(ctx)
	err := s.step(detached, step, "delete", path, func(ctx context.Context) error {
		return s.store.Delete(ctx, path)
	})
	if err != nil {
		s.log.Errorw("failed to remove orphaned document", "path", path, "error", err, "cause", cause)
		return &CompensationFailure{Path: path, Err: err, Cause: partial}
	}
	return partial
}

// step runs one remote operation with the step timeout. Stores that ignore
// their context are abandoned once the timeout passes, and their call may
// still land later, after any compensating delete. Cleanup is only
// guaranteed for stores that honor ctx.
func (s *Submitter) step(ctx context.Context, state State, op, path string, fn func(context.Context) error) error {
	if err := ctx.Err(); err != nil {
		return &CanceledError{Step: state, Err: err}
	}
	stepCtx, cancel := context.WithTimeout(ctx, s.stepTimeout)
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- fn(stepCtx) }()

	var err error
	select {
	case err = <-done:
	case <-stepCtx.Done():
		err = stepCtx.Err()
	}
	switch {
	case err == nil:
		return nil
	case errors.Is(stepCtx.Err(), context.DeadlineExceeded):
		return &TimeoutError{Step: state, Path: path, Timeout: s.stepTimeout}
	case ctx.Err() != nil:
		return &CanceledError{Step: state, Err: ctx.Err()}
	default:
		return &RemoteWriteError{Op: op, Path: path, Err: err}
	}
}

// machine tracks the current state of one submission and publishes transitions
type machine struct {
	mu        sync.Mutex
	last      Event
	observers []Observer
}

// newMachine starts in validating. Callers publish that state themselves.
func newMachine(observers []Observer) *machine {
	return &machine{last: Event{State: StateValidating, At: time.Now()}, observers: observers}
}

func (m *machine) enter(next State, key string) {
	m.transition(Event{State: next, CaseKey: key, At: time.Now()})
}

func (m *machine) fail(key string, err error) {
	m.transition(Event{State: StateFailed, CaseKey: key, Kind: KindOf(err), Error: err.Error(), At: time.Now()})
}

// transition publishes under the lock so joining observers never see
// events out of order
func (m *machine) transition(e Event) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.last.State.CanTransition(e.State) {
		zap.S().Warnw("unexpected submission transition", "from", m.last.State, "to", e.State)
	}
	m.last = e
	publish(m.observers, e)
}

// join adds observers to a running submission and replays its current
// state to them
func (m *machine) join(observers []Observer) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.last.State != StateValidating {
		publish(observers, m.last)
	}
	m.observers = append(m.observers, observers...)
}

func publish(observers []Observer, e Event) {
	for _, o := range observers {
		o(e)
	}
}
