package subscriber

/*
Config section keys for the MQTT ingest bridge:

mqtt:
  broker: "tcp://localhost:1883"
  client_id: "tracker-ingest"
  topic: "fleet/+/location"
  username: ""
  password: ""
  principal: "mqtt-gateway"
*/

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Yash-912/LogiMetrics-sub001/cli/tracker/domain"
	"github.com/Yash-912/LogiMetrics-sub001/cli/tracker/types"
	"github.com/Yash-912/LogiMetrics-sub001/libs/geo"
	mqtt "github.com/eclipse/paho.mqtt.golang"
	log "github.com/sirupsen/logrus"
)

// fixMessage is the payload devices publish; field names match the HTTP
// ingest body so gateways can relay either way.
type fixMessage struct {
	VehicleID  string    `json:"vehicleId"`
	DriverID   string    `json:"driverId"`
	ShipmentID string    `json:"shipmentId"`
	Latitude   float64   `json:"latitude"`
	Longitude  float64   `json:"longitude"`
	Speed      float64   `json:"speed"`
	Heading    float64   `json:"heading"`
	Accuracy   float64   `json:"accuracy"`
	Altitude   float64   `json:"altitude"`
	Timestamp  time.Time `json:"timestamp"`
}

// Subscriber bridges an MQTT topic into the same ingest path the HTTP API
// uses. Devices that cannot speak HTTP publish fixes to the broker instead.
type Subscriber struct {
	client    mqtt.Client
	tracker   *domain.Tracker
	principal types.Principal
	topic     string
	deadline  time.Duration
}

func New(cfg map[string]string, tracker *domain.Tracker, deadline time.Duration) (*Subscriber, error) {
	if cfg == nil || cfg["broker"] == "" {
		return nil, fmt.Errorf("mqtt broker missing")
	}
	topic := cfg["topic"]
	if topic == "" {
		topic = "fleet/+/location"
	}
	clientID := cfg["client_id"]
	if clientID == "" {
		clientID = "tracker-ingest"
	}
	principalID := cfg["principal"]
	if principalID == "" {
		principalID = "mqtt-gateway"
	}

	opts := mqtt.NewClientOptions().
		AddBroker(cfg["broker"]).
		SetClientID(clientID).
		SetUsername(cfg["username"]).
		SetPassword(cfg["password"]).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(5 * time.Second)

	s := &Subscriber{
		tracker: tracker,
		// The broker bridge relays for the whole fleet.
		principal: types.Principal{ID: principalID, Admin: true},
		topic:     topic,
		deadline:  deadline,
	}
	s.client = mqtt.NewClient(opts)

	if token := s.client.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("connecting to MQTT broker: %v", token.Error())
	}
	return s, nil
}

// Start subscribes and blocks message handling onto the client's own
// goroutines. Returns once the subscription is acknowledged.
func (s *Subscriber) Start() error {
	token := s.client.Subscribe(s.topic, 1, s.handle)
	if token.Wait() && token.Error() != nil {
		return fmt.Errorf("subscribing to %s: %v", s.topic, token.Error())
	}
	log.Infof("MQTT ingest subscribed to %s", s.topic)
	return nil
}

func (s *Subscriber) handle(_ mqtt.Client, msg mqtt.Message) {
	var m fixMessage
	if err := json.Unmarshal(msg.Payload(), &m); err != nil {
		log.WithField("topic", msg.Topic()).WithError(err).Warn("dropping malformed fix payload")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.deadline)
	defer cancel()

	res, err := s.tracker.SaveFix(ctx, s.principal, types.Fix{
		VehicleID:  m.VehicleID,
		DriverID:   m.DriverID,
		ShipmentID: m.ShipmentID,
		Position:   geo.Point{Latitude: m.Latitude, Longitude: m.Longitude},
		SpeedKmh:   m.Speed,
		HeadingDeg: m.Heading,
		AccuracyM:  m.Accuracy,
		AltitudeM:  m.Altitude,
		CapturedAt: m.Timestamp,
	})
	if err != nil {
		log.WithField("vehicle", m.VehicleID).WithError(err).Warn("MQTT fix rejected")
		return
	}
	if len(res.Alerts) > 0 {
		log.WithField("vehicle", m.VehicleID).Infof("MQTT fix raised %d alerts", len(res.Alerts))
	}
}

// Close drops the subscription and disconnects.
func (s *Subscriber) Close() {
	s.client.Unsubscribe(s.topic)
	s.client.Disconnect(250)
}
