package api

import (
	"context"
	"time"
)

// QueryTimeout is the default timeout for reads against the document store
const QueryTimeout = 10 * time.Second

type contextKey int

const (
	volunteerKey contextKey = iota
	requestIDKey
)

// WithQueryTimeout creates a context with the query timeout
func WithQueryTimeout(parent context.Context) (context.Context, context.CancelFunc) {
	if parent == nil {
		parent = context.Background()
	}
	return context.WithTimeout(parent, QueryTimeout)
}

// WithVolunteerUID returns ctx carrying the authenticated volunteer uid
func WithVolunteerUID(ctx context.Context, uid string) context.Context {
	return context.WithValue(ctx, volunteerKey, uid)
}

// VolunteerUID returns the uid set by the auth middleware
func VolunteerUID(ctx context.Context) (string, bool) {
	uid, ok := ctx.Value(volunteerKey).(string)
	return uid, ok && uid != ""
}

// RequestID returns the id the request logger assigned to the request
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}
