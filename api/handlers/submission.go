package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/miraclemessages/mm-case-api/config"
	"github.com/miraclemessages/mm-case-api/models"
	"github.com/miraclemessages/mm-case-api/session"
	"github.com/miraclemessages/mm-case-api/submission"
)

type lovedOneOutcome struct {
	LocalID string `json:"localId"`
	ID      string `json:"id,omitempty"`
	Error   string `json:"error,omitempty"`
}

type outcomeResponse struct {
	CaseKey    string            `json:"caseKey,omitempty"`
	State      submission.State  `json:"state"`
	Submitting bool              `json:"submitting"`
	OK         bool              `json:"ok"`
	Kind       submission.Kind   `json:"kind,omitempty"`
	Error      string            `json:"error,omitempty"`
	LovedOnes  []lovedOneOutcome `json:"lovedOnes"`
}

func newOutcomeResponse(o submission.Outcome) outcomeResponse {
	resp := outcomeResponse{
		CaseKey:   o.CaseKey,
		State:     o.State,
		OK:        o.OK(),
		Kind:      o.Kind(),
		LovedOnes: make([]lovedOneOutcome, 0, len(o.LovedOnes)),
	}
	if o.Err != nil {
		resp.Error = o.Err.Error()
	}
	for _, l := range o.LovedOnes {
		lo := lovedOneOutcome{LocalID: l.LocalID, ID: l.ID}
		if l.Err != nil {
			lo.Error = l.Err.Error()
		}
		resp.LovedOnes = append(resp.LovedOnes, lo)
	}
	return resp
}

// SubmitHandler starts submitting the current case. The submission keeps
// running after the response is written; its progress is available from the
// events stream and its result from SubmissionHandler.
func (wf Workflow) SubmitHandler(w http.ResponseWriter, r *http.Request) {
	s, ok := wf.session(w, r)
	if !ok {
		return
	}

	_, err := s.Submit(context.WithoutCancel(r.Context()), wf.Submitter)
	var verr *submission.ValidationError
	switch {
	case errors.As(err, &verr):
		config.WriteError(http.StatusUnprocessableEntity, w, models.MessageError{
			Message: "case is missing required fields",
			Error:   verr.Error(),
			Kind:    submission.KindValidation.String(),
			Field:   verr.Field,
		})
		return
	case errors.Is(err, session.ErrSubmissionInFlight):
		config.ErrorStatus("case is being submitted", http.StatusConflict, w, err)
		return
	case err != nil:
		config.ErrorStatus("failed to submit case", http.StatusInternalServerError, w, err)
		return
	}

	var key string
	s.View(func(c *models.Case) { key = c.Key })
	writeJSON(w, http.StatusAccepted, outcomeResponse{
		CaseKey:    key,
		State:      submission.StateValidating,
		Submitting: true,
		LovedOnes:  []lovedOneOutcome{},
	})
}

// SubmissionHandler returns the result of the last submission
func (wf Workflow) SubmissionHandler(w http.ResponseWriter, r *http.Request) {
	s, ok := wf.session(w, r)
	if !ok {
		return
	}
	if s.Submitting() {
		writeJSON(w, http.StatusAccepted, outcomeResponse{Submitting: true, LovedOnes: []lovedOneOutcome{}})
		return
	}
	o, ok := s.LastOutcome()
	if !ok {
		config.ErrorStatus("case has not been submitted", http.StatusNotFound, w, nil)
		return
	}
	writeJSON(w, http.StatusOK, newOutcomeResponse(o))
}
