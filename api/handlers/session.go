package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/miraclemessages/mm-case-api/api"
	"github.com/miraclemessages/mm-case-api/config"
	"github.com/miraclemessages/mm-case-api/mailer"
	"github.com/miraclemessages/mm-case-api/models"
	"github.com/miraclemessages/mm-case-api/session"
	"github.com/miraclemessages/mm-case-api/submission"
)

// Workflow exposes the volunteer sessions that record and submit cases
type Workflow struct {
	Sessions  *session.Registry
	Submitter *submission.Submitter
	Mailer    mailer.Sender
	Config    config.Config
	Now       func() time.Time
}

type createSessionRequest struct {
	Volunteer models.Volunteer `json:"volunteer"`
	Source    models.Source    `json:"source"`
}

type sessionResponse struct {
	ID         string           `json:"id"`
	Volunteer  models.Volunteer `json:"volunteer"`
	Source     models.Source    `json:"source"`
	CreatedAt  time.Time        `json:"createdAt"`
	Submitting bool             `json:"submitting"`
	Case       json.RawMessage  `json:"case"`
}

type lovedOneRequest struct {
	PublicInfo  models.LovedOnePublic  `json:"publicInfo"`
	PrivateInfo models.LovedOnePrivate `json:"privateInfo"`
}

// session returns the session named in the url if it belongs to the
// authenticated volunteer, writing the error response otherwise
func (wf Workflow) session(w http.ResponseWriter, r *http.Request) (*session.Session, bool) {
	id := mux.Vars(r)["session_id"]
	s, err := wf.Sessions.Get(id)
	if err != nil {
		config.ErrorStatus("failed to get session", http.StatusNotFound, w, err)
		return nil, false
	}
	if uid, _ := api.VolunteerUID(r.Context()); uid != s.Volunteer.UID {
		config.ErrorStatus("session belongs to another volunteer", http.StatusForbidden, w, nil)
		return nil, false
	}
	return s, true
}

func (wf Workflow) writeSession(w http.ResponseWriter, status int, s *session.Session) {
	var (
		b   []byte
		err error
	)
	s.View(func(c *models.Case) { b, err = json.Marshal(c) })
	if err != nil {
		config.ErrorStatus("failed to marshal case", http.StatusInternalServerError, w, err)
		return
	}
	writeJSON(w, status, sessionResponse{
		ID:         s.ID,
		Volunteer:  s.Volunteer,
		Source:     s.Source,
		CreatedAt:  s.CreatedAt,
		Submitting: s.Submitting(),
		Case:       b,
	})
}

func (wf Workflow) mutationError(w http.ResponseWriter, err error) {
	if errors.Is(err, session.ErrSubmissionInFlight) {
		config.ErrorStatus("case is being submitted", http.StatusConflict, w, err)
		return
	}
	config.ErrorStatus("failed to update case", http.StatusBadRequest, w, err)
}

// CreateSessionHandler starts a new workflow with an empty case
func (wf Workflow) CreateSessionHandler(w http.ResponseWriter, r *http.Request) {
	var req createSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		config.ErrorStatus("failed to decode request", http.StatusBadRequest, w, err)
		return
	}
	// the token decides who created the case, not the body
	req.Volunteer.UID, _ = api.VolunteerUID(r.Context())

	s := wf.Sessions.Start(req.Volunteer, req.Source)
	zap.S().Infow("session started", "session", s.ID, "volunteer", s.Volunteer.UID, "source", s.Source.Type)
	wf.writeSession(w, http.StatusCreated, s)
}

// SessionHandler returns a session and its current case
func (wf Workflow) SessionHandler(w http.ResponseWriter, r *http.Request) {
	s, ok := wf.session(w, r)
	if !ok {
		return
	}
	wf.writeSession(w, http.StatusOK, s)
}

// DeleteSessionHandler ends a workflow
func (wf Workflow) DeleteSessionHandler(w http.ResponseWriter, r *http.Request) {
	s, ok := wf.session(w, r)
	if !ok {
		return
	}
	if s.Submitting() {
		config.ErrorStatus("case is being submitted", http.StatusConflict, w, session.ErrSubmissionInFlight)
		return
	}
	wf.Sessions.Delete(s.ID)
	w.WriteHeader(http.StatusNoContent)
}

// UpdateCaseHandler sets the fields present in the body on the current case
func (wf Workflow) UpdateCaseHandler(w http.ResponseWriter, r *http.Request) {
	s, ok := wf.session(w, r)
	if !ok {
		return
	}
	var u models.CaseUpdate
	if err := json.NewDecoder(r.Body).Decode(&u); err != nil {
		config.ErrorStatus("failed to decode request", http.StatusBadRequest, w, err)
		return
	}
	if err := s.Update(func(c *models.Case) error { return c.ApplyUpdate(u) }); err != nil {
		wf.mutationError(w, err)
		return
	}
	wf.writeSession(w, http.StatusOK, s)
}

// ResetHandler replaces the current case with an empty one
func (wf Workflow) ResetHandler(w http.ResponseWriter, r *http.Request) {
	s, ok := wf.session(w, r)
	if !ok {
		return
	}
	if err := s.Reset(); err != nil {
		wf.mutationError(w, err)
		return
	}
	wf.writeSession(w, http.StatusOK, s)
}

// AddLovedOneHandler adds a loved one to the current case
func (wf Workflow) AddLovedOneHandler(w http.ResponseWriter, r *http.Request) {
	s, ok := wf.session(w, r)
	if !ok {
		return
	}
	var req lovedOneRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		config.ErrorStatus("failed to decode request", http.StatusBadRequest, w, err)
		return
	}
	l := models.NewLovedOne(req.PublicInfo, req.PrivateInfo)
	var resp models.LovedOne
	if err := s.Update(func(c *models.Case) error {
		c.AddLovedOne(l)
		resp = *l
		return nil
	}); err != nil {
		wf.mutationError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

// UpdateLovedOneHandler replaces the details of a loved one, keeping its ids
func (wf Workflow) UpdateLovedOneHandler(w http.ResponseWriter, r *http.Request) {
	s, ok := wf.session(w, r)
	if !ok {
		return
	}
	var req lovedOneRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		config.ErrorStatus("failed to decode request", http.StatusBadRequest, w, err)
		return
	}
	localID := mux.Vars(r)["local_id"]
	var (
		resp  models.LovedOne
		found bool
	)
	if err := s.Update(func(c *models.Case) error {
		l, ok := c.LovedOne(localID)
		if !ok {
			return nil
		}
		found = true
		l.PublicInfo = req.PublicInfo
		l.PrivateInfo = req.PrivateInfo
		resp = *l
		return nil
	}); err != nil {
		wf.mutationError(w, err)
		return
	}
	if !found {
		config.ErrorStatus("loved one not found", http.StatusNotFound, w, nil)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// RemoveLovedOneHandler removes a loved one from the current case
func (wf Workflow) RemoveLovedOneHandler(w http.ResponseWriter, r *http.Request) {
	s, ok := wf.session(w, r)
	if !ok {
		return
	}
	localID := mux.Vars(r)["local_id"]
	removed := false
	if err := s.Update(func(c *models.Case) error {
		removed = c.RemoveLovedOne(localID)
		return nil
	}); err != nil {
		wf.mutationError(w, err)
		return
	}
	if !removed {
		config.ErrorStatus("loved one not found", http.StatusNotFound, w, nil)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
