package hub

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/Yash-912/LogiMetrics-sub001/cli/tracker/types"
	"github.com/Yash-912/LogiMetrics-sub001/cli/tracker/util"
	"github.com/stretchr/testify/assert"
)

type allowAll struct{}

func (allowAll) CanJoinRoom(types.Principal, string) bool { return true }

type companyOnly struct{}

func (companyOnly) CanJoinRoom(p types.Principal, room string) bool {
	if p.Admin || room == "fleet" {
		return true
	}
	return room == "company:"+p.CompanyID
}

func drain(s *Session, n int) []types.Event {
	events := make([]types.Event, 0, n)
	for i := 0; i < n; i++ {
		select {
		case ev := <-s.Events():
			events = append(events, ev)
		case <-time.After(time.Second):
			return events
		}
	}
	return events
}

func TestPublishReachesOnlyRoomMembers(t *testing.T) {
	h := New(16, time.Minute, allowAll{})

	fleetWatcher := h.NewSession(types.Principal{ID: "op-1"})
	vehicleWatcher := h.NewSession(types.Principal{ID: "op-2"})

	assert.NoError(t, h.Join(fleetWatcher, "fleet"))
	assert.NoError(t, h.Join(vehicleWatcher, "vehicle:truck-7"))

	h.Publish("vehicle:truck-7", types.Event{Name: "vehicle:accident-zone-alert"})

	got := drain(vehicleWatcher, 1)
	if assert.Len(t, got, 1) {
		assert.Equal(t, "vehicle:accident-zone-alert", got[0].Name)
	}
	assert.Empty(t, drain(fleetWatcher, 0), "fleet room must not see vehicle room traffic")
}

func TestPublishPreservesOrderPerSession(t *testing.T) {
	h := New(32, time.Minute, allowAll{})
	s := h.NewSession(types.Principal{ID: "op-1"})
	assert.NoError(t, h.Join(s, "fleet"))

	for i := 0; i < 10; i++ {
		h.Publish("fleet", types.Event{Name: "fleet:location", Data: i})
	}

	got := drain(s, 10)
	if assert.Len(t, got, 10) {
		for i, ev := range got {
			assert.Equal(t, i, ev.Data)
		}
	}
}

func TestOverflowDropsOldest(t *testing.T) {
	h := New(4, time.Minute, allowAll{})
	s := h.NewSession(types.Principal{ID: "op-1"})
	assert.NoError(t, h.Join(s, "fleet"))

	for i := 0; i < 10; i++ {
		h.Publish("fleet", types.Event{Name: "fleet:location", Data: i})
	}

	assert.Equal(t, int64(6), s.Dropped())

	got := drain(s, 4)
	if assert.Len(t, got, 4) {
		// The newest four survive.
		assert.Equal(t, 6, got[0].Data)
		assert.Equal(t, 9, got[3].Data)
	}
}

func TestMembershipEvaluatedAtPublishTime(t *testing.T) {
	h := New(16, time.Minute, allowAll{})
	early := h.NewSession(types.Principal{ID: "op-1"})
	assert.NoError(t, h.Join(early, "fleet"))

	h.Publish("fleet", types.Event{Name: "fleet:location", Data: "before"})

	late := h.NewSession(types.Principal{ID: "op-2"})
	assert.NoError(t, h.Join(late, "fleet"))

	h.Publish("fleet", types.Event{Name: "fleet:location", Data: "after"})

	assert.Len(t, drain(early, 2), 2)
	lateGot := drain(late, 1)
	if assert.Len(t, lateGot, 1, "no retention: late joiner sees only later events") {
		assert.Equal(t, "after", lateGot[0].Data)
	}
}

func TestJoinAuthorization(t *testing.T) {
	h := New(16, time.Minute, companyOnly{})
	s := h.NewSession(types.Principal{ID: "drv-1", CompanyID: "acme"})

	assert.NoError(t, h.Join(s, "fleet"))
	assert.NoError(t, h.Join(s, "company:acme"))

	err := h.Join(s, "company:globex")
	assert.ErrorIs(t, err, util.ErrForbidden)

	admin := h.NewSession(types.Principal{ID: "root", Admin: true})
	assert.NoError(t, h.Join(admin, "company:globex"))
}

func TestCloseSessionReleasesRooms(t *testing.T) {
	h := New(16, time.Minute, allowAll{})

	sessions := make([]*Session, 0, 5)
	for i := 0; i < 5; i++ {
		s := h.NewSession(types.Principal{ID: fmt.Sprintf("op-%d", i)})
		assert.NoError(t, h.Join(s, "fleet"))
		assert.NoError(t, h.Join(s, "company:acme"))
		sessions = append(sessions, s)
	}
	assert.Equal(t, 5, h.RoomSize("fleet"))
	assert.Equal(t, 5, h.SessionCount())

	for _, s := range sessions {
		h.CloseSession(s)
		h.CloseSession(s) // idempotent
	}

	assert.Equal(t, 0, h.RoomSize("fleet"))
	assert.Equal(t, 0, h.RoomSize("company:acme"))
	assert.Equal(t, 0, h.SessionCount())

	select {
	case <-sessions[0].Closed():
	default:
		t.Fatal("closed channel must be signalled")
	}
}

func TestLeavePrunesEmptyRoom(t *testing.T) {
	h := New(16, time.Minute, allowAll{})
	s := h.NewSession(types.Principal{ID: "op-1"})
	assert.NoError(t, h.Join(s, "vehicle:truck-7"))
	assert.Equal(t, 1, h.RoomSize("vehicle:truck-7"))

	h.Leave(s, "vehicle:truck-7")
	assert.Equal(t, 0, h.RoomSize("vehicle:truck-7"))

	h.mu.RLock()
	_, exists := h.rooms["vehicle:truck-7"]
	h.mu.RUnlock()
	assert.False(t, exists)
}

func TestJoinEmptyRoomName(t *testing.T) {
	h := New(16, time.Minute, allowAll{})
	s := h.NewSession(types.Principal{ID: "op-1"})

	err := h.Join(s, "")
	assert.ErrorIs(t, err, util.ErrValidation)
	assert.True(t, strings.Contains(err.Error(), "room"))
}
