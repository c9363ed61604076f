package types

import "encoding/json"

// Event is one server-push message. The hub delivers it to websocket rooms;
// the storage mirrors forward it to external brokers.
type Event struct {
	Name string      `json:"event"`
	Data interface{} `json:"data"`
}

// Subject returns the routing key used by broker mirrors.
func (e Event) Subject() string {
	return e.Name
}

func (e Event) ToBytes() ([]byte, error) {
	return json.Marshal(e)
}
