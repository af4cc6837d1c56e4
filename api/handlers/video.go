package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/miraclemessages/mm-case-api/config"
	"github.com/miraclemessages/mm-case-api/mailer"
	"github.com/miraclemessages/mm-case-api/models"
	"github.com/miraclemessages/mm-case-api/session"
)

type videoResponse struct {
	FileName string `json:"fileName"`
	Link     string `json:"link"`
}

type interviewEmailRequest struct {
	Notes string `json:"notes"`
}

func (wf Workflow) video(s *session.Session) videoResponse {
	name := s.VideoFileName(wf.Now())
	return videoResponse{
		FileName: name,
		Link:     models.VideoLink(wf.Config.MediaHost, wf.Config.MediaBucket, name),
	}
}

// VideoHandler returns the name the interview video is uploaded under and
// the link it will be reachable at
func (wf Workflow) VideoHandler(w http.ResponseWriter, r *http.Request) {
	s, ok := wf.session(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, wf.video(s))
}

// InterviewEmailHandler emails the team the volunteer details and the video link
func (wf Workflow) InterviewEmailHandler(w http.ResponseWriter, r *http.Request) {
	s, ok := wf.session(w, r)
	if !ok {
		return
	}
	if wf.Mailer == nil {
		config.ErrorStatus("email is not configured", http.StatusServiceUnavailable, w, nil)
		return
	}
	var req interviewEmailRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		config.ErrorStatus("failed to decode request", http.StatusBadRequest, w, err)
		return
	}

	var volunteer *models.Volunteer
	s.View(func(c *models.Case) {
		if c.Volunteer != nil {
			v := *c.Volunteer
			volunteer = &v
		}
	})
	video := wf.video(s)

	msg := mailer.InterviewEmail(wf.Config.InterviewEmailTo, volunteer, video.Link, req.Notes)
	if err := wf.Mailer.Send(r.Context(), msg); err != nil {
		config.ErrorStatus("failed to send interview email", http.StatusBadGateway, w, err)
		return
	}
	writeJSON(w, http.StatusOK, video)
}
