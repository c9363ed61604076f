package hub

import (
	"fmt"
	"sync"
	"time"

	"github.com/Yash-912/LogiMetrics-sub001/cli/tracker/types"
	"github.com/Yash-912/LogiMetrics-sub001/cli/tracker/util"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

// RoomAuthorizer decides whether a principal may join a room. Room names are
// `fleet`, `vehicle:{id}` and `company:{id}`.
type RoomAuthorizer interface {
	CanJoinRoom(principal types.Principal, room string) bool
}

// Hub tracks sessions and their room memberships and fans events out to
// rooms. Publishers only touch per-session queues; the socket writer runs in
// each session's own goroutine, so a slow consumer can never stall a publish.
type Hub struct {
	queueCap     int
	pingInterval time.Duration
	auth         RoomAuthorizer

	mu       sync.RWMutex
	rooms    map[string]map[*Session]struct{}
	sessions map[string]*Session
}

func New(queueCap int, pingInterval time.Duration, auth RoomAuthorizer) *Hub {
	return &Hub{
		queueCap:     queueCap,
		pingInterval: pingInterval,
		auth:         auth,
		rooms:        make(map[string]map[*Session]struct{}),
		sessions:     make(map[string]*Session),
	}
}

// NewSession registers a session for the principal. The caller owns the
// transport; AttachConn starts the pumps for websocket-backed sessions.
func (h *Hub) NewSession(principal types.Principal) *Session {
	s := &Session{
		ID:        uuid.NewString(),
		Principal: principal,
		hub:       h,
		out:       make(chan types.Event, h.queueCap),
		closed:    make(chan struct{}),
		rooms:     make(map[string]struct{}),
	}

	h.mu.Lock()
	h.sessions[s.ID] = s
	h.mu.Unlock()

	return s
}

// Join adds the session to a room, creating the room on first use.
func (h *Hub) Join(s *Session, room string) error {
	if room == "" {
		return fmt.Errorf("empty room name: %w", util.ErrValidation)
	}
	if h.auth != nil && !h.auth.CanJoinRoom(s.Principal, room) {
		return fmt.Errorf("room %s: %w", room, util.ErrForbidden)
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	members, ok := h.rooms[room]
	if !ok {
		members = make(map[*Session]struct{})
		h.rooms[room] = members
	}
	members[s] = struct{}{}
	s.rooms[room] = struct{}{}
	return nil
}

// Leave removes the session from a room and prunes the room when empty.
func (h *Hub) Leave(s *Session, room string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.leaveLocked(s, room)
}

func (h *Hub) leaveLocked(s *Session, room string) {
	if members, ok := h.rooms[room]; ok {
		delete(members, s)
		if len(members) == 0 {
			delete(h.rooms, room)
		}
	}
	delete(s.rooms, room)
}

// Publish delivers the event to every current member of the room. Membership
// is snapshotted under the lock; enqueueing happens outside it. There is no
// retention: sessions that join later never see this event.
func (h *Hub) Publish(room string, ev types.Event) {
	h.mu.RLock()
	members := make([]*Session, 0, len(h.rooms[room]))
	for s := range h.rooms[room] {
		members = append(members, s)
	}
	h.mu.RUnlock()

	for _, s := range members {
		s.enqueue(ev)
	}
}

// CloseSession releases the session's room memberships and marks it closed.
// Safe to call more than once.
func (h *Hub) CloseSession(s *Session) {
	s.closeOnce.Do(func() {
		h.mu.Lock()
		for room := range s.rooms {
			h.leaveLocked(s, room)
		}
		delete(h.sessions, s.ID)
		h.mu.Unlock()

		close(s.closed)
		log.WithField("session", s.ID).Debug("session closed")
	})
}

// SessionCount returns the number of live sessions.
func (h *Hub) SessionCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.sessions)
}

// RoomSize returns the current membership of a room.
func (h *Hub) RoomSize(room string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[room])
}
