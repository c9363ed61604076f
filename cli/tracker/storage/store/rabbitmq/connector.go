package rabbitmq

/*
Storage section keys for the RabbitMQ event mirror:

host = "localhost"
port = "5672"
user = "guest"
password = "guest"
exchange = "tracking"
*/

import (
	"fmt"

	"github.com/streadway/amqp"
)

type Connector struct {
	connection *amqp.Connection
	channel    *amqp.Channel
	exchange   string
}

func (c *Connector) Init(cfg map[string]string) error {
	if cfg == nil {
		return fmt.Errorf("rabbitmq settings missing")
	}

	c.exchange = cfg["exchange"]
	if c.exchange == "" {
		c.exchange = "tracking"
	}

	url := fmt.Sprintf("amqp://%s:%s@%s:%s/", cfg["user"], cfg["password"], cfg["host"], cfg["port"])
	conn, err := amqp.Dial(url)
	if err != nil {
		return fmt.Errorf("connecting to RabbitMQ: %v", err)
	}
	c.connection = conn

	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("opening RabbitMQ channel: %v", err)
	}
	c.channel = ch

	if err := ch.ExchangeDeclare(c.exchange, "topic", true, false, false, false, nil); err != nil {
		return fmt.Errorf("declaring exchange %s: %v", c.exchange, err)
	}
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

	err = c.channel.Publish(c.exchange, msg.Subject(), false, false, amqp.Publishing{
		ContentType: "application/json",
		Body:        data,
	})
	if err != nil {
		return fmt.Errorf("publishing to RabbitMQ: %v", err)
	}
	return nil
}

func (c *Connector) Close() error {
	if c.channel != nil {
		_ = c.channel.Close()
	}
	return c.connection.Close()
}
