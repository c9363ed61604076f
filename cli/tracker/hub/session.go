package hub

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/Yash-912/LogiMetrics-sub001/cli/tracker/types"
	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"
)

// clientFrame is what subscribers send over the socket.
type clientFrame struct {
	Action string `json:"action"`
	Room   string `json:"room,omitempty"`
}

// Session is one subscriber connection. Events queue into a bounded buffer;
// when the buffer is full the oldest queued event is discarded so the newest
// state always gets through.
type Session struct {
	ID        string
	Principal types.Principal

	hub       *Hub
	out       chan types.Event
	dropped   atomic.Int64
	closeOnce sync.Once
	closed    chan struct{}

	// guarded by hub.mu
	rooms map[string]struct{}
}

// Events exposes the outbound queue. Tests and non-websocket transports read
// from it directly.
func (s *Session) Events() <-chan types.Event { return s.out }

// Dropped returns how many events were discarded due to queue overflow.
func (s *Session) Dropped() int64 { return s.dropped.Load() }

// Closed is closed when the session has been torn down.
func (s *Session) Closed() <-chan struct{} { return s.closed }

func (s *Session) enqueue(ev types.Event) {
	for {
		select {
		case s.out <- ev:
			return
		default:
		}
		// Full: evict the oldest and retry.
		select {
		case <-s.out:
			s.dropped.Add(1)
		default:
		}
	}
}

// AttachConn binds the session to a websocket connection and runs the read
// and write pumps until either side fails. It blocks for the lifetime of the
// connection and closes the session on return.
func (s *Session) AttachConn(conn *websocket.Conn) {
	defer func() {
		// Best effort: tell the client why the stream ended.
		deadline := time.Now().Add(time.Second)
		payload, err := (types.Event{Name: "session:closed", Data: map[string]string{"session_id": s.ID}}).ToBytes()
		if err == nil {
			conn.SetWriteDeadline(deadline)
			conn.WriteMessage(websocket.TextMessage, payload)
		}
		conn.Close()
		s.hub.CloseSession(s)
	}()

	readDeadline := 2 * s.hub.pingInterval
	conn.SetReadDeadline(time.Now().Add(readDeadline))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(readDeadline))
	})

	done := make(chan struct{})
	go func() {
		defer close(done)
		s.readPump(conn, readDeadline)
	}()

	s.writePump(conn, done)
}

func (s *Session) readPump(conn *websocket.Conn, readDeadline time.Duration) {
	for {
		var frame clientFrame
		if err := conn.ReadJSON(&frame); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.WithField("session", s.ID).WithError(err).Debug("socket read failed")
			}
			return
		}
		conn.SetReadDeadline(time.Now().Add(readDeadline))

		switch frame.Action {
		case "join":
			if err := s.hub.Join(s, frame.Room); err != nil {
				s.enqueue(types.Event{Name: "error", Data: map[string]string{"room": frame.Room, "message": err.Error()}})
				continue
			}
			s.enqueue(types.Event{Name: "joined", Data: map[string]string{"room": frame.Room}})
		case "leave":
			s.hub.Leave(s, frame.Room)
			s.enqueue(types.Event{Name: "left", Data: map[string]string{"room": frame.Room}})
		case "ping":
			s.enqueue(types.Event{Name: "pong", Data: map[string]int64{"ts": time.Now().Unix()}})
		default:
			s.enqueue(types.Event{Name: "error", Data: map[string]string{"message": "unknown action " + frame.Action}})
		}
	}
}

func (s *Session) writePump(conn *websocket.Conn, done <-chan struct{}) {
	ticker := time.NewTicker(s.hub.pingInterval)
	defer ticker.Stop()

	for {
		select {
		case ev := <-s.out:
			conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := conn.WriteJSON(ev); err != nil {
				log.WithField("session", s.ID).WithError(err).Debug("socket write failed")
				return
			}
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-done:
			return
		case <-s.closed:
			return
		}
	}
}
