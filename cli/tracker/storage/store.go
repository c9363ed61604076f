package storage

import (
	"errors"

	"github.com/Yash-912/LogiMetrics-sub001/cli/tracker/storage/store/kafka"
	"github.com/Yash-912/LogiMetrics-sub001/cli/tracker/storage/store/nats"
	"github.com/Yash-912/LogiMetrics-sub001/cli/tracker/storage/store/rabbitmq"
	"github.com/Yash-912/LogiMetrics-sub001/cli/tracker/storage/store/tarantool_queue"
	log "github.com/sirupsen/logrus"
)

var ErrInvalidStorage = errors.New("no mirror storage configured")
var ErrUnknownStorage = errors.New("mirror storage isn't supported")

// Message is what the mirrors forward: a routed, serialisable event. The
// alias keeps connector packages free of an import back into this one.
type Message = interface {
	Subject() string
	ToBytes() ([]byte, error)
}

type Store interface {
	Connector
	Saver
}

// Saver forwards one message to an external system.
type Saver interface {
	Save(Message) error
}

// Connector manages the lifetime of an external connection.
type Connector interface {
	// Init opens the connection using the storage config section.
	Init(map[string]string) error

	// Close shuts the connection down.
	Close() error
}

// Repository is the set of configured event mirrors. Fleet events flow to
// every mirror; a failing mirror is logged and skipped so one broker outage
// cannot silence the rest.
type Repository struct {
	storages []Saver
}

func NewRepository() *Repository {
	return &Repository{}
}

// AddStore registers a mirror.
func (r *Repository) AddStore(s Saver) {
	r.storages = append(r.storages, s)
}

// Len returns the number of registered mirrors.
func (r *Repository) Len() int {
	return len(r.storages)
}

// Save forwards the message to all mirrors and returns the last error seen.
func (r *Repository) Save(m Message) error {
	var last error
	for _, store := range r.storages {
		if err := store.Save(m); err != nil {
			log.WithField("err", err).Error("event mirror save failed")
			last = err
		}
	}
	return last
}

// LoadStorages builds mirrors from the config storage section. Sections
// handled elsewhere (postgresql, redis) are skipped here.
func (r *Repository) LoadStorages(storages map[string]map[string]string) error {
	if len(storages) == 0 {
		return ErrInvalidStorage
	}

	for name, params := range storages {
		var db Store
		switch name {
		case "nats":
			db = &nats.Connector{}
		case "rabbitmq":
			db = &rabbitmq.Connector{}
		case "kafka":
			db = &kafka.Connector{}
		case "tarantool_queue":
			db = &tarantool_queue.Connector{}
		case "postgresql", "redis":
			continue
		default:
			return ErrUnknownStorage
		}

		if err := db.Init(params); err != nil {
			return err
		}

		r.AddStore(db)
	}
	return nil
}
