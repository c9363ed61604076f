package response

// Ack answers an ingest request. Ack is "ok" for an applied fix and "stale"
// for one that arrived out of order.
type Ack struct {
	Ack           string `json:"ack"`
	AlertsEmitted int    `json:"alertsEmitted"`
}
