package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/miraclemessages/mm-case-api/api"
	"github.com/miraclemessages/mm-case-api/config"
	"github.com/miraclemessages/mm-case-api/databases"
	"github.com/miraclemessages/mm-case-api/mailer"
	"github.com/miraclemessages/mm-case-api/models"
	"github.com/miraclemessages/mm-case-api/session"
	"github.com/miraclemessages/mm-case-api/submission"
)

const requestTimeout = 30 * time.Second

// CaseStore is a document store cases can be written to and read back from
type CaseStore interface {
	databases.Store
	databases.Reader
}

// App stores the router and the services behind it, so they can be reused
type App struct {
	Router    *mux.Router
	Config    config.Config
	Store     CaseStore
	Sessions  *session.Registry
	Submitter *submission.Submitter
	Mailer    mailer.Sender
	Metrics   *api.MetricsCollector
	// Now defaults to time.Now
	Now func() time.Time

	client databases.ClientHelper
}

// New creates a new mux router and all the routes
func (a *App) New() *mux.Router {
	auth := api.Auth{Secret: []byte(a.Config.JWTSecret)}
	now := a.Now
	if now == nil {
		now = time.Now
	}
	wf := Workflow{
		Sessions:  a.Sessions,
		Submitter: a.Submitter,
		Mailer:    a.Mailer,
		Config:    a.Config,
		Now:       now,
	}
	cases := Cases{DB: a.Store}
	m := Metrics{Collector: a.Metrics}

	r := mux.NewRouter()
	r.Use(api.RequestLogger(a.Metrics))

	// healthchex
	r.HandleFunc("/health", healthCheckHandler)

	// the event stream outlives the request timeout
	stream := r.PathPrefix("/api/v1").Subrouter()
	stream.Use(auth.Middleware)
	stream.HandleFunc("/sessions/{session_id}/events", wf.EventsHandler).Methods("GET")

	apiCreate := r.PathPrefix("/api/v1").Subrouter()
	apiCreate.Use(auth.Middleware, api.TimeoutMiddleware(requestTimeout))

	apiCreate.HandleFunc("/sessions", wf.CreateSessionHandler).Methods("POST")
	apiCreate.HandleFunc("/sessions/{session_id}", wf.SessionHandler).Methods("GET")
	apiCreate.HandleFunc("/sessions/{session_id}", wf.DeleteSessionHandler).Methods("DELETE")
	apiCreate.HandleFunc("/sessions/{session_id}/case", wf.UpdateCaseHandler).Methods("PATCH")
	apiCreate.HandleFunc("/sessions/{session_id}/reset", wf.ResetHandler).Methods("POST")
	apiCreate.HandleFunc("/sessions/{session_id}/loved-ones", wf.AddLovedOneHandler).Methods("POST")
	apiCreate.HandleFunc("/sessions/{session_id}/loved-ones/{local_id}", wf.UpdateLovedOneHandler).Methods("PUT")
	apiCreate.HandleFunc("/sessions/{session_id}/loved-ones/{local_id}", wf.RemoveLovedOneHandler).Methods("DELETE")
	apiCreate.HandleFunc("/sessions/{session_id}/submit", wf.SubmitHandler).Methods("POST")
	apiCreate.HandleFunc("/sessions/{session_id}/submission", wf.SubmissionHandler).Methods("GET")
	apiCreate.HandleFunc("/sessions/{session_id}/video", wf.VideoHandler).Methods("GET")
	apiCreate.HandleFunc("/sessions/{session_id}/interview-email", wf.InterviewEmailHandler).Methods("POST")

	apiCreate.HandleFunc("/cases/{key}", cases.CaseHandler).Methods("GET")
	apiCreate.HandleFunc("/cases/{key}/private", cases.PrivateCaseHandler).Methods("GET")
	apiCreate.HandleFunc("/cases/{key}/loved-ones/{id}", cases.LovedOneHandler).Methods("GET")

	apiCreate.HandleFunc("/metrics", m.MetricsHandler).Methods("GET")

	return r
}

// Initialize is invoked by main to connect with the database and create a router
func (a *App) Initialize() error {
	switch a.Config.Store {
	case "memory":
		a.Store = databases.NewMemoryStore()
		zap.S().Warn("using the in-memory store, submitted cases are not persisted")
	case "mongo", "":
		client, err := databases.NewClient(&a.Config)
		if err != nil {
			// if we fail to create a new database client, then kill the pod
			zap.S().With(err).Error("failed to create new client")
			return err
		}
		ctx, cancel := context.WithTimeout(context.Background(), api.QueryTimeout)
		defer cancel()
		if err = client.Connect(ctx); err != nil {
			// if we fail to connect to the database, then kill the pod
			zap.S().With(err).Error("failed to connect to database")
			return err
		}
		a.client = client
		a.Store = databases.NewMongoStore(databases.NewDatabase(&a.Config, client))
		zap.S().Info("mm-case-api has connected to the database")
	default:
		return fmt.Errorf("unknown store %q", a.Config.Store)
	}

	if a.Config.JWTSecret == "" {
		return fmt.Errorf("jwt secret is not set")
	}
	if a.Config.SendGridAPIKey != "" {
		a.Mailer = mailer.NewSendGrid(a.Config.SendGridAPIKey)
	} else {
		zap.S().Warn("sendgrid api key is not set, interview emails are disabled")
	}

	a.Sessions = session.NewRegistry()
	a.Submitter = submission.New(a.Store, submission.WithStepTimeout(a.Config.StepTimeout))
	a.Metrics = api.NewMetricsCollector()

	// initialize api router
	a.initializeRoutes()
	return nil
}

// Close disconnects from the database
func (a *App) Close(ctx context.Context) error {
	if a.client == nil {
		return nil
	}
	return a.client.Disconnect(ctx)
}

func (a *App) initializeRoutes() {
	a.Router = a.New()
}

func healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	b, _ := json.Marshal(models.HealthCheckResponse{
		Alive: true,
	})
	_, _ = io.WriteString(w, string(b))
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	b, err := json.Marshal(v)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(b)
}
