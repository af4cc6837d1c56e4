package config

import (
	"encoding/json"
	"net/http"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/miraclemessages/mm-case-api/models"
)

const (
	defaultStepTimeout   = 15 * time.Second
	defaultSessionTTL    = 24 * time.Hour
	defaultPurgeSchedule = "@hourly"
)

// Config holds the project config values
type Config struct {
	URL          string
	DatabaseName string
	BaseURL      string
	Port         string
	Env          string

	// Store selects the document store, "mongo" or "memory"
	Store string
	// StepTimeout bounds every remote step of a case submission
	StepTimeout time.Duration

	MediaHost   string
	MediaBucket string

	JWTSecret string

	SendGridAPIKey   string
	InterviewEmailTo string

	SessionTTL           time.Duration
	SessionPurgeSchedule string
}

// New sets up all config related services
func New() *Config {

	//setup zap logger and replace default logger
	logger, err := setLogger(os.Getenv("ENV"))
	if err != nil {
		logger = zap.NewExample()
	}
	defer logger.Sync()
	_ = zap.ReplaceGlobals(logger)

	return &Config{
		URL:                  os.Getenv("DB_URI"),
		DatabaseName:         os.Getenv("DB_NAME"),
		BaseURL:              os.Getenv("BASE_URL"),
		Port:                 os.Getenv("PORT"),
		Env:                  os.Getenv("ENV"),
		Store:                getOrDefault("STORE", "mongo"),
		StepTimeout:          durationOrDefault("STEP_TIMEOUT", defaultStepTimeout),
		MediaHost:            getOrDefault("MEDIA_HOST", "https://s3.amazonaws.com"),
		MediaBucket:          getOrDefault("MEDIA_BUCKET", "miracle-messages-videos"),
		JWTSecret:            os.Getenv("JWT_SECRET"),
		SendGridAPIKey:       os.Getenv("SENDGRID_API_KEY"),
		InterviewEmailTo:     getOrDefault("INTERVIEW_EMAIL_TO", "mm@miraclemessages.org"),
		SessionTTL:           durationOrDefault("SESSION_TTL", defaultSessionTTL),
		SessionPurgeSchedule: getOrDefault("SESSION_PURGE_SCHEDULE", defaultPurgeSchedule),
	}

}

func getOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func durationOrDefault(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		zap.S().Warnw("invalid duration, using default", "key", key, "value", v, "default", def)
		return def
	}
	return d
}

// ErrorStatus is a useful function that will log, write http headers and body for a
// give message, status code and err
func ErrorStatus(message string, httpStatusCode int, w http.ResponseWriter, err error) {
	errText := ""
	if err != nil {
		errText = err.Error()
	}
	WriteError(httpStatusCode, w, models.MessageError{Message: message, Error: errText})
}

// WriteError logs and writes e as the error response body
func WriteError(httpStatusCode int, w http.ResponseWriter, e models.MessageError) {
	zap.S().Errorw(e.Message, "error", e.Error, "kind", e.Kind, "status", httpStatusCode)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(httpStatusCode)
	b, _ := json.Marshal(models.ErrorMessageResponse{Response: e})
	_, _ = w.Write(b)
}
