package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/miraclemessages/mm-case-api/api"
	"github.com/miraclemessages/mm-case-api/api/handlers"
	"github.com/miraclemessages/mm-case-api/config"
	"github.com/miraclemessages/mm-case-api/databases"
	"github.com/miraclemessages/mm-case-api/mailer"
	"github.com/miraclemessages/mm-case-api/models"
	"github.com/miraclemessages/mm-case-api/session"
	"github.com/miraclemessages/mm-case-api/submission"
)

const secret = "test-secret"

type mockSender struct {
	mock.Mock
}

func (m *mockSender) Send(ctx context.Context, msg mailer.Message) error {
	return m.Called(ctx, msg).Error(0)
}

const fullUpdate = `{
	"publicVideoUrl": "https://example.com/public.mov",
	"privateVideoUrl": "https://example.com/private.mov",
	"coverUrl": "https://example.com/cover.jpg",
	"photoUrl": "https://example.com/photo.jpg",
	"firstName": "Sam",
	"middleName": "Lee",
	"lastName": "Rivera",
	"currentCity": "Oakland",
	"currentState": "CA",
	"currentCountry": "US",
	"homeCity": "Reno",
	"homeState": "NV",
	"homeCountry": "US",
	"dateOfBirth": "1990-06-02",
	"timeHomeless": {"type": "months", "value": 8},
	"messageStatus": "Did not post"
}`

type testApp struct {
	*handlers.App
	store *databases.MemoryStore
	token string
}

func newTestApp(t *testing.T, sender mailer.Sender) *testApp {
	t.Helper()
	store := databases.NewMemoryStore()
	a := &handlers.App{
		Config: config.Config{
			JWTSecret:        secret,
			MediaHost:        "https://s3.amazonaws.com/",
			MediaBucket:      "videos",
			InterviewEmailTo: "mm@miraclemessages.org",
		},
		Store:     store,
		Sessions:  session.NewRegistry(),
		Submitter: submission.New(store),
		Mailer:    sender,
		Metrics:   api.NewMetricsCollector(),
	}
	a.Router = a.New()
	return &testApp{App: a, store: store, token: tokenFor(t, "volunteer-1")}
}

func tokenFor(t *testing.T, uid string) string {
	t.Helper()
	token, err := api.Auth{Secret: []byte(secret)}.NewToken(uid, time.Hour)
	require.NoError(t, err)
	return token
}

func (ta *testApp) do(method, path, body, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rr := httptest.NewRecorder()
	ta.Router.ServeHTTP(rr, req)
	return rr
}

func (ta *testApp) startSession(t *testing.T) string {
	t.Helper()
	rr := ta.do("POST", "/api/v1/sessions", `{
		"volunteer": {"uid": "spoofed", "name": "Jane Doe", "email": "jane@example.com", "phone": "555-0100", "location": "SF"},
		"source": {"type": "street outreach", "name": "Tenderloin walk", "location": "SF"}
	}`, ta.token)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	var resp struct {
		ID        string           `json:"id"`
		Volunteer models.Volunteer `json:"volunteer"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, "volunteer-1", resp.Volunteer.UID)
	return resp.ID
}

func errorBody(t *testing.T, rr *httptest.ResponseRecorder) models.MessageError {
	t.Helper()
	var resp models.ErrorMessageResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	return resp.Response
}

func TestHealthCheckHandler(t *testing.T) {
	ta := newTestApp(t, nil)
	rr := ta.do("GET", "/health", "", "")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"alive": true}`, rr.Body.String())
}

func TestRoutesRequireToken(t *testing.T) {
	ta := newTestApp(t, nil)
	rr := ta.do("POST", "/api/v1/sessions", `{}`, "")
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.Equal(t, 0, ta.Sessions.Len())
}

func TestSessionBelongsToVolunteer(t *testing.T) {
	ta := newTestApp(t, nil)
	id := ta.startSession(t)

	rr := ta.do("GET", "/api/v1/sessions/"+id, "", tokenFor(t, "volunteer-2"))
	assert.Equal(t, http.StatusForbidden, rr.Code)

	rr = ta.do("GET", "/api/v1/sessions/unknown", "", ta.token)
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Equal(t, "session not found", errorBody(t, rr).Error)
}

func TestUpdateCaseHandler(t *testing.T) {
	ta := newTestApp(t, nil)
	id := ta.startSession(t)

	rr := ta.do("PATCH", "/api/v1/sessions/"+id+"/case", `{"firstName": "Sam", "homeCountry": "mx"}`, ta.token)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	var resp struct {
		Case models.Case `json:"case"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, "Sam", resp.Case.FirstName)
	assert.Equal(t, "MX", resp.Case.HomeCountry.Code)
	assert.Equal(t, models.MessageUndelivered, resp.Case.MessageStatus)

	rr = ta.do("PATCH", "/api/v1/sessions/"+id+"/case", `{"dateOfBirth": "June 2"}`, ta.token)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = ta.do("PATCH", "/api/v1/sessions/"+id+"/case", `{"messageStatus": "Lost"}`, ta.token)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestLovedOneHandlers(t *testing.T) {
	ta := newTestApp(t, nil)
	id := ta.startSession(t)

	rr := ta.do("POST", "/api/v1/sessions/"+id+"/loved-ones", `{"publicInfo": {"firstName": "Ana", "relationship": "sister"}, "privateInfo": {"phone": "555-0101"}}`, ta.token)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	var l models.LovedOne
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &l))
	require.NotEmpty(t, l.LocalID)

	rr = ta.do("PUT", "/api/v1/sessions/"+id+"/loved-ones/"+l.LocalID, `{"publicInfo": {"firstName": "Anna"}}`, ta.token)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"firstName":"Anna"`)

	rr = ta.do("DELETE", "/api/v1/sessions/"+id+"/loved-ones/"+l.LocalID, "", ta.token)
	assert.Equal(t, http.StatusNoContent, rr.Code)
	rr = ta.do("DELETE", "/api/v1/sessions/"+id+"/loved-ones/"+l.LocalID, "", ta.token)
	assert.Equal(t, http.StatusNotFound, rr.Code)
	rr = ta.do("PUT", "/api/v1/sessions/"+id+"/loved-ones/"+l.LocalID, `{}`, ta.token)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestSubmitHandler_MissingFieldIsUnprocessable(t *testing.T) {
	ta := newTestApp(t, nil)
	id := ta.startSession(t)

	rr := ta.do("POST", "/api/v1/sessions/"+id+"/submit", "", ta.token)
	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	e := errorBody(t, rr)
	assert.Equal(t, "validation", e.Kind)
	assert.Equal(t, "publicVideoURL", e.Field)
	assert.Empty(t, ta.store.Ops())

	rr = ta.do("GET", "/api/v1/sessions/"+id+"/submission", "", ta.token)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestSubmitHandler_WritesCase(t *testing.T) {
	ta := newTestApp(t, nil)
	id := ta.startSession(t)

	require.Equal(t, http.StatusOK, ta.do("PATCH", "/api/v1/sessions/"+id+"/case", fullUpdate, ta.token).Code)
	require.Equal(t, http.StatusCreated, ta.do("POST", "/api/v1/sessions/"+id+"/loved-ones", `{"publicInfo": {"firstName": "Ana"}}`, ta.token).Code)

	rr := ta.do("POST", "/api/v1/sessions/"+id+"/submit", "", ta.token)
	require.Equal(t, http.StatusAccepted, rr.Code, rr.Body.String())

	var outcome struct {
		CaseKey    string `json:"caseKey"`
		State      string `json:"state"`
		Submitting bool   `json:"submitting"`
		OK         bool   `json:"ok"`
		LovedOnes  []struct {
			ID string `json:"id"`
		} `json:"lovedOnes"`
	}
	require.Eventually(t, func() bool {
		rr = ta.do("GET", "/api/v1/sessions/"+id+"/submission", "", ta.token)
		return rr.Code == http.StatusOK
	}, 5*time.Second, 10*time.Millisecond)
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &outcome))
	assert.True(t, outcome.OK)
	assert.Equal(t, "done", outcome.State)
	require.Len(t, outcome.LovedOnes, 1)
	assert.NotEmpty(t, outcome.LovedOnes[0].ID)

	rr = ta.do("GET", "/api/v1/cases/"+outcome.CaseKey, "", ta.token)
	require.Equal(t, http.StatusOK, rr.Code)
	var doc map[string]interface{}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &doc))
	assert.Equal(t, "Sam", doc["firstName"])
	assert.Equal(t, "Did not post", doc["messageStatus"])
	assert.Equal(t, "volunteer-1", doc["createdBy"].(map[string]interface{})["uid"])

	rr = ta.do("GET", "/api/v1/cases/"+outcome.CaseKey+"/private", "", ta.token)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"dob":"June 2, 1990 12:00:00 AM"`)

	rr = ta.do("GET", "/api/v1/cases/"+outcome.CaseKey+"/loved-ones/"+outcome.LovedOnes[0].ID, "", ta.token)
	assert.Equal(t, http.StatusOK, rr.Code)

	rr = ta.do("GET", "/api/v1/cases/missing", "", ta.token)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestSubmitHandler_ConflictWhileInFlight(t *testing.T) {
	ta := newTestApp(t, nil)
	release := make(chan struct{})
	ta.store.WriteHook = func(context.Context, string, databases.Document) error {
		<-release
		return nil
	}
	id := ta.startSession(t)
	require.Equal(t, http.StatusOK, ta.do("PATCH", "/api/v1/sessions/"+id+"/case", fullUpdate, ta.token).Code)

	require.Equal(t, http.StatusAccepted, ta.do("POST", "/api/v1/sessions/"+id+"/submit", "", ta.token).Code)
	assert.Equal(t, http.StatusConflict, ta.do("POST", "/api/v1/sessions/"+id+"/submit", "", ta.token).Code)
	assert.Equal(t, http.StatusConflict, ta.do("PATCH", "/api/v1/sessions/"+id+"/case", `{"notes": "x"}`, ta.token).Code)
	assert.Equal(t, http.StatusConflict, ta.do("DELETE", "/api/v1/sessions/"+id, "", ta.token).Code)

	rr := ta.do("GET", "/api/v1/sessions/"+id+"/submission", "", ta.token)
	assert.Equal(t, http.StatusAccepted, rr.Code)
	close(release)
}

func TestSubmitHandler_ReportsFailedSubmission(t *testing.T) {
	ta := newTestApp(t, nil)
	ta.store.WriteHook = func(_ context.Context, path string, _ databases.Document) error {
		if strings.HasPrefix(path, databases.CasesPrivatePath) {
			return errors.New("permission denied")
		}
		return nil
	}
	id := ta.startSession(t)
	require.Equal(t, http.StatusOK, ta.do("PATCH", "/api/v1/sessions/"+id+"/case", fullUpdate, ta.token).Code)
	require.Equal(t, http.StatusAccepted, ta.do("POST", "/api/v1/sessions/"+id+"/submit", "", ta.token).Code)

	var rr *httptest.ResponseRecorder
	require.Eventually(t, func() bool {
		rr = ta.do("GET", "/api/v1/sessions/"+id+"/submission", "", ta.token)
		return rr.Code == http.StatusOK
	}, 5*time.Second, 10*time.Millisecond)
	assert.Contains(t, rr.Body.String(), `"kind":"partial_submission"`)
	assert.Contains(t, rr.Body.String(), `"ok":false`)
	assert.Empty(t, ta.store.Paths())
}

func TestVideoHandler(t *testing.T) {
	ta := newTestApp(t, nil)
	id := ta.startSession(t)

	rr := ta.do("GET", "/api/v1/sessions/"+id+"/video", "", ta.token)
	require.Equal(t, http.StatusOK, rr.Code)
	var resp struct {
		FileName string `json:"fileName"`
		Link     string `json:"link"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.True(t, strings.HasPrefix(resp.FileName, "jane-doe-"))
	assert.True(t, strings.HasSuffix(resp.FileName, ".mov"))
	assert.Equal(t, "https://s3.amazonaws.com/videos/"+resp.FileName, resp.Link)
}

func TestVideoHandler_NameIsStableUntilReset(t *testing.T) {
	var (
		mu    sync.Mutex
		clock = time.Date(2026, time.October, 19, 15, 55, 49, 0, time.UTC)
	)
	tick := func(d time.Duration) {
		mu.Lock()
		clock = clock.Add(d)
		mu.Unlock()
	}
	var emailed string
	sender := &mockSender{}
	sender.On("Send", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		emailed = args.Get(1).(mailer.Message).Plain
	}).Return(nil)

	ta := newTestApp(t, sender)
	ta.Now = func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		return clock
	}
	ta.Router = ta.New()
	id := ta.startSession(t)

	video := func() (string, string) {
		rr := ta.do("GET", "/api/v1/sessions/"+id+"/video", "", ta.token)
		require.Equal(t, http.StatusOK, rr.Code)
		var resp struct {
			FileName string `json:"fileName"`
			Link     string `json:"link"`
		}
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
		return resp.FileName, resp.Link
	}

	first, link := video()
	assert.Equal(t, "jane-doe-10-19-2026-155549.mov", first)
	tick(1100 * time.Millisecond)
	second, _ := video()
	assert.Equal(t, first, second)

	tick(time.Minute)
	require.Equal(t, http.StatusOK, ta.do("POST", "/api/v1/sessions/"+id+"/interview-email", "", ta.token).Code)
	assert.Contains(t, emailed, "Link to video:\n"+link+".")

	rr := ta.do("GET", "/api/v1/sessions/"+id, "", ta.token)
	assert.Contains(t, rr.Body.String(), `"videoFileName":"`+first+`"`)

	require.Equal(t, http.StatusOK, ta.do("POST", "/api/v1/sessions/"+id+"/reset", "", ta.token).Code)
	afterReset, _ := video()
	assert.Equal(t, "jane-doe-10-19-2026-155650.mov", afterReset)
}

func TestInterviewEmailHandler(t *testing.T) {
	sender := &mockSender{}
	sender.On("Send", mock.Anything, mock.MatchedBy(func(m mailer.Message) bool {
		return m.ToEmail == "mm@miraclemessages.org" &&
			m.Subject == mailer.InterviewSubject &&
			strings.HasPrefix(m.Plain, "Volunteer information:\n\nJane Doe\njane@example.com\n555-0100\nSF") &&
			strings.HasSuffix(m.Plain, "notes here:\nmet outside the library")
	})).Return(nil).Once()
	sender.On("Send", mock.Anything, mock.Anything).Return(errors.New("sendgrid error: status 401"))

	ta := newTestApp(t, sender)
	id := ta.startSession(t)

	rr := ta.do("POST", "/api/v1/sessions/"+id+"/interview-email", `{"notes": "met outside the library"}`, ta.token)
	assert.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	rr = ta.do("POST", "/api/v1/sessions/"+id+"/interview-email", "", ta.token)
	assert.Equal(t, http.StatusBadGateway, rr.Code)
	sender.AssertNumberOfCalls(t, "Send", 2)
}

func TestInterviewEmailHandler_NotConfigured(t *testing.T) {
	ta := newTestApp(t, nil)
	id := ta.startSession(t)
	rr := ta.do("POST", "/api/v1/sessions/"+id+"/interview-email", `{}`, ta.token)
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
}

func TestResetAndDeleteSession(t *testing.T) {
	ta := newTestApp(t, nil)
	id := ta.startSession(t)
	require.Equal(t, http.StatusOK, ta.do("PATCH", "/api/v1/sessions/"+id+"/case", `{"firstName": "Sam"}`, ta.token).Code)

	rr := ta.do("POST", "/api/v1/sessions/"+id+"/reset", "", ta.token)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"firstName":""`)

	assert.Equal(t, http.StatusNoContent, ta.do("DELETE", "/api/v1/sessions/"+id, "", ta.token).Code)
	assert.Equal(t, 0, ta.Sessions.Len())
}

func TestMetricsHandler(t *testing.T) {
	ta := newTestApp(t, nil)
	ta.do("GET", "/health", "", "")
	rr := ta.do("GET", "/api/v1/metrics", "", ta.token)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"path":"/health"`)
}

func TestEventsHandler_StreamsTransitions(t *testing.T) {
	ta := newTestApp(t, nil)
	id := ta.startSession(t)
	require.Equal(t, http.StatusOK, ta.do("PATCH", "/api/v1/sessions/"+id+"/case", fullUpdate, ta.token).Code)

	srv := httptest.NewServer(ta.Router)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/v1/sessions/" + id + "/events?token=" + ta.token
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	// the subscription exists once the upgrade has completed
	require.Equal(t, http.StatusAccepted, ta.do("POST", "/api/v1/sessions/"+id+"/submit", "", ta.token).Code)

	var states []string
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	for {
		var e struct {
			State   string `json:"state"`
			CaseKey string `json:"caseKey"`
		}
		require.NoError(t, conn.ReadJSON(&e))
		states = append(states, e.State)
		if e.State == "done" || e.State == "failed" {
			break
		}
	}
	assert.Equal(t, []string{"validating", "acquiring_key", "writing_public", "writing_private", "writing_loved_ones", "done"}, states)
}
