package tarantool_queue

/*
Storage section keys for the Tarantool queue mirror:

host = "localhost"
port = "3301"
user = "user"
password = "pass"
max_recons = 5
timeout = 1
reconnect = 1
queue = "tracking_events"
*/

import (
	"fmt"
	"strconv"
	"time"

	"github.com/tarantool/go-tarantool"
	"github.com/tarantool/go-tarantool/queue"
)

type Connector struct {
	connection *tarantool.Connection
	queue      queue.Queue
	config     map[string]string
}

func (c *Connector) Init(cfg map[string]string) error {
	if cfg == nil {
		return fmt.Errorf("tarantool settings missing")
	}

	c.config = cfg
	conStr := fmt.Sprintf("%s:%s", c.config["host"], c.config["port"])

	maxRecons, err := strconv.Atoi(c.config["max_recons"])
	if err != nil {
		return fmt.Errorf("reading max_recons: %v", err)
	}
	timeout, err := strconv.Atoi(c.config["timeout"])
	if err != nil {
		return fmt.Errorf("reading timeout: %v", err)
	}
	reconnect, err := strconv.Atoi(c.config["reconnect"])
	if err != nil {
		return fmt.Errorf("reading reconnect: %v", err)
	}
	opts := tarantool.Opts{
		Timeout:       time.Duration(timeout) * time.Second,
		Reconnect:     time.Duration(reconnect) * time.Second,
		MaxReconnects: uint(maxRecons),
		User:          c.config["user"],
		Pass:          c.config["password"],
	}

	c.connection, err = tarantool.Connect(conStr, opts)
	if err != nil {
		return fmt.Errorf("connecting to Tarantool: %v", err)
	}
	c.queue = queue.New(c.connection, c.config["queue"])

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

	if _, err = c.queue.Put(data); err != nil {
		return fmt.Errorf("enqueueing to Tarantool: %v", err)
	}
	return nil
}

func (c *Connector) Close() error {
	return c.connection.Close()
}
