// Package session holds the in-progress case of each volunteer workflow.
package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/miraclemessages/mm-case-api/models"
	"github.com/miraclemessages/mm-case-api/submission"
)

const subscriberBuffer = 16

var (
	// ErrSubmissionInFlight is returned when the case is changed or submitted
	// while a submission is still running
	ErrSubmissionInFlight = errors.New("a submission is already in flight")
	// ErrNotFound is returned for unknown session ids
	ErrNotFound = errors.New("session not found")
)

// Session is one volunteer workflow. It owns the case being recorded until
// the workflow is reset.
type Session struct {
	ID        string
	Volunteer models.Volunteer
	Source    models.Source
	CreatedAt time.Time

	mu          sync.Mutex
	subMu       sync.Mutex
	current     *models.Case
	submitting  bool
	lastOutcome *submission.Outcome
	lastActive  time.Time
	subscribers map[chan submission.Event]struct{}
}

func newSession(id string, volunteer models.Volunteer, source models.Source, now time.Time) *Session {
	s := &Session{
		ID:          id,
		Volunteer:   volunteer,
		Source:      source,
		CreatedAt:   now,
		lastActive:  now,
		subscribers: make(map[chan submission.Event]struct{}),
	}
	s.current = s.freshCase()
	return s
}

func (s *Session) freshCase() *models.Case {
	v := s.Volunteer
	return models.NewCase(s.Source, &v)
}

// Reset replaces the current case with an empty one
func (s *Session) Reset() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.submitting {
		return ErrSubmissionInFlight
	}
	s.current = s.freshCase()
	s.lastOutcome = nil
	s.lastActive = time.Now()
	return nil
}

// View calls fn with the current case. fn must not keep or modify it.
func (s *Session) View(fn func(c *models.Case)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(s.current)
}

// Update calls fn to modify the current case
func (s *Session) Update(fn func(c *models.Case) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.submitting {
		return ErrSubmissionInFlight
	}
	s.lastActive = time.Now()
	return fn(s.current)
}

// VideoFileName returns the upload name of the interview video, generating
// it on the first call. It is allowed while a submission is in flight since
// the submission works on a copy of the case.
func (s *Session) VideoFileName(now time.Time) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current.EnsureVideoFileName(now)
}

// Submit starts submitting the current case. A case that fails validation
// returns the ValidationError right away and nothing is submitted.
func (s *Session) Submit(ctx context.Context, submitter *submission.Submitter) (<-chan submission.Outcome, error) {
	s.mu.Lock()
	if s.submitting {
		s.mu.Unlock()
		return nil, ErrSubmissionInFlight
	}
	if err := submission.Validate(s.current); err != nil {
		s.mu.Unlock()
		return nil, err
	}
	current := s.current
	c := current.Clone()
	s.submitting = true
	s.lastActive = time.Now()
	s.mu.Unlock()

	results := submitter.Submit(ctx, c, s.publish)
	out := make(chan submission.Outcome, 1)
	go func() {
		o := <-results
		s.mu.Lock()
		s.submitting = false
		current.CopySubmitted(c)
		s.lastOutcome = &o
		s.lastActive = time.Now()
		s.mu.Unlock()
		if o.OK() {
			zap.S().Infow("case submitted", "session", s.ID, "key", o.CaseKey, "lovedOneErrors", o.LovedOneErrors())
		} else {
			zap.S().Errorw("case submission failed", "session", s.ID, "key", o.CaseKey, "kind", o.Kind(), "error", o.Err)
		}
		out <- o
		close(out)
	}()
	return out, nil
}

// Submitting reports whether a submission is in flight
func (s *Session) Submitting() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.submitting
}

// LastOutcome returns the outcome of the most recent finished submission
func (s *Session) LastOutcome() (submission.Outcome, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.lastOutcome == nil {
		return submission.Outcome{}, false
	}
	return *s.lastOutcome, true
}

// LastActive is when the session was last changed
func (s *Session) LastActive() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastActive
}

// Subscribe returns a channel of submission events and a func to stop
// receiving them. Events are dropped for subscribers that fall behind.
func (s *Session) Subscribe() (<-chan submission.Event, func()) {
	ch := make(chan submission.Event, subscriberBuffer)
	s.subMu.Lock()
	s.subscribers[ch] = struct{}{}
	s.subMu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			s.subMu.Lock()
			delete(s.subscribers, ch)
			s.subMu.Unlock()
			close(ch)
		})
	}
}

func (s *Session) publish(e submission.Event) {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	for ch := range s.subscribers {
		select {
		case ch <- e:
		default:
		}
	}
}
