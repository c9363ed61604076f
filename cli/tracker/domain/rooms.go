package domain

import (
	"strings"

	"github.com/Yash-912/LogiMetrics-sub001/cli/tracker/types"
)

// RoomGate authorises websocket room joins. The fleet room is open to every
// authenticated principal; vehicle and company rooms require membership or
// admin.
type RoomGate struct {
	Authz Authorizer
}

func (g RoomGate) CanJoinRoom(p types.Principal, room string) bool {
	if room == "fleet" {
		return true
	}
	if p.Admin {
		return true
	}

	switch {
	case strings.HasPrefix(room, "vehicle:"):
		id := strings.TrimPrefix(room, "vehicle:")
		if id == "" {
			return false
		}
		if g.Authz == nil {
			return true
		}
		return g.Authz.CanAccessVehicle(p, id)
	case strings.HasPrefix(room, "company:"):
		id := strings.TrimPrefix(room, "company:")
		return id != "" && id == p.CompanyID
	default:
		return false
	}
}
