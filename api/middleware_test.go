package api

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func echoUID(w http.ResponseWriter, r *http.Request) {
	uid, _ := VolunteerUID(r.Context())
	_, _ = w.Write([]byte(uid))
}

func TestAuth_RoundTrip(t *testing.T) {
	a := Auth{Secret: []byte("s3cret")}
	token, err := a.NewToken("volunteer-1", time.Hour)
	require.NoError(t, err)

	uid, err := a.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "volunteer-1", uid)

	_, err = Auth{Secret: []byte("other")}.Verify(token)
	assert.Error(t, err)

	expired, err := a.NewToken("volunteer-1", -time.Minute)
	require.NoError(t, err)
	_, err = a.Verify(expired)
	assert.ErrorIs(t, err, jwt.ErrTokenExpired)
}

func TestAuth_Middleware(t *testing.T) {
	a := Auth{Secret: []byte("s3cret")}
	token, err := a.NewToken("volunteer-1", time.Hour)
	require.NoError(t, err)
	h := a.Middleware(http.HandlerFunc(echoUID))

	tests := []struct {
		name   string
		req    func() *http.Request
		status int
		body   string
	}{
		{"header", func() *http.Request {
			r := httptest.NewRequest("GET", "/api/v1/sessions", nil)
			r.Header.Set("Authorization", "Bearer "+token)
			return r
		}, http.StatusOK, "volunteer-1"},
		{"query", func() *http.Request {
			return httptest.NewRequest("GET", "/api/v1/sessions/x/events?token="+token, nil)
		}, http.StatusOK, "volunteer-1"},
		{"missing", func() *http.Request {
			return httptest.NewRequest("GET", "/api/v1/sessions", nil)
		}, http.StatusUnauthorized, `{"response": "unauthorized"}`},
		{"garbage", func() *http.Request {
			r := httptest.NewRequest("GET", "/api/v1/sessions", nil)
			r.Header.Set("Authorization", "Bearer nope")
			return r
		}, http.StatusUnauthorized, `{"response": "unauthorized"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := httptest.NewRecorder()
			h.ServeHTTP(rr, tt.req())
			assert.Equal(t, tt.status, rr.Code)
			assert.Equal(t, tt.body, rr.Body.String())
		})
	}
}

func TestTimeoutMiddleware(t *testing.T) {
	slow := TimeoutMiddleware(20 * time.Millisecond)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
		time.Sleep(10 * time.Millisecond)
		_, _ = w.Write([]byte("late"))
	}))
	rr := httptest.NewRecorder()
	slow.ServeHTTP(rr, httptest.NewRequest("GET", "/", nil))
	assert.Equal(t, http.StatusRequestTimeout, rr.Code)
	assert.NotContains(t, rr.Body.String(), "late")

	fast := TimeoutMiddleware(time.Second)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
	}))
	rr = httptest.NewRecorder()
	fast.ServeHTTP(rr, httptest.NewRequest("GET", "/", nil))
	assert.Equal(t, http.StatusCreated, rr.Code)
}

func TestRequestLogger_RecordsRouteTemplate(t *testing.T) {
	metrics := NewMetricsCollector()
	r := mux.NewRouter()
	r.Use(RequestLogger(metrics))
	r.HandleFunc("/api/v1/cases/{key}", func(w http.ResponseWriter, r *http.Request) {
		assert.NotEmpty(t, RequestID(r.Context()))
		w.WriteHeader(http.StatusNotFound)
	})

	for _, key := range []string{"a", "b"} {
		rr := httptest.NewRecorder()
		r.ServeHTTP(rr, httptest.NewRequest("GET", "/api/v1/cases/"+key, nil))
		assert.NotEmpty(t, rr.Header().Get("X-Request-ID"))
	}

	routes := metrics.Routes()
	require.Len(t, routes, 1)
	assert.Equal(t, "/api/v1/cases/{key}", routes[0].Path)
	assert.Equal(t, int64(2), routes[0].Count)
	assert.Equal(t, int64(2), routes[0].ErrorCount)
	assert.Equal(t, int64(2), metrics.Summary()["totalErrors"])
}
