package nats

/*
Storage section keys for the NATS event mirror:

address = "nats://localhost:4222"
subject_prefix = "tracking"
*/

import (
	"fmt"
	"strings"

	"github.com/nats-io/nats.go"
)

type Connector struct {
	connection *nats.Conn
	prefix     string
}

func (c *Connector) Init(cfg map[string]string) error {
	if cfg == nil {
		return fmt.Errorf("nats settings missing")
	}

	address := cfg["address"]
	if address == "" {
		address = nats.DefaultURL
	}
	c.prefix = cfg["subject_prefix"]
	if c.prefix == "" {
		c.prefix = "tracking"
	}

	conn, err := nats.Connect(address)
	if err != nil {
		return fmt.Errorf("connecting to NATS: %v", err)
	}
	c.connection = conn
	return nil
}

func (c *Connector) Save(msg interface {
	Subject() string
	ToBytes() ([]byte, error)
}) error {
	if msg == nil {
		return fmt.Errorf("nil message")
	}

	data, err := msg.ToBytes()
	if err != nil {
		return fmt.Errorf("serialising event: %v", err)
	}

	// Event names use ':' room separators; NATS subjects use '.'.
	subject := c.prefix + "." + strings.ReplaceAll(msg.Subject(), ":", ".")
	if err := c.connection.Publish(subject, data); err != nil {
		return fmt.Errorf("publishing to NATS: %v", err)
	}
	return nil
}

func (c *Connector) Close() error {
	c.connection.Close()
	return nil
}
