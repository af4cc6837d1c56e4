package handlers

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/miraclemessages/mm-case-api/submission"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10
)

// WebSocket upgrader
var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// volunteers connect from the mobile app, which sends no Origin
		return true
	},
}

// EventsHandler streams the state transitions of the session's submissions
// over a websocket. Each message is a submission.Event.
func (wf Workflow) EventsHandler(w http.ResponseWriter, r *http.Request) {
	s, ok := wf.session(w, r)
	if !ok {
		return
	}
	events, stop := s.Subscribe()
	defer stop()

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		zap.S().Errorw("websocket upgrade error", "session", s.ID, "error", err)
		return
	}
	defer conn.Close()
	zap.S().Infow("events stream connected", "session", s.ID)

	// the reader only handles control frames and notices the client leaving
	closed := make(chan struct{})
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.NextReader(); err != nil {
				return
			}
		}
	}()

	ping := time.NewTicker(pingPeriod)
	defer ping.Stop()
	for {
		select {
		case e, ok := <-events:
			if !ok {
				return
			}
			if err := writeEvent(conn, e); err != nil {
				zap.S().Warnw("failed to write event", "session", s.ID, "error", err)
				return
			}
		case <-ping.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-closed:
			zap.S().Infow("events stream disconnected", "session", s.ID)
			return
		}
	}
}

func writeEvent(conn *websocket.Conn, e submission.Event) error {
	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteJSON(e)
}
