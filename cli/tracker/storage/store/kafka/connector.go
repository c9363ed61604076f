package kafka

/*
Storage section keys for the Kafka event mirror:

brokers = "localhost:9092"
topic = "tracking-events"
*/

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/segmentio/kafka-go"
)

type Connector struct {
	writer *kafka.Writer
}

func (c *Connector) Init(cfg map[string]string) error {
	if cfg == nil {
		return fmt.Errorf("kafka settings missing")
	}

	brokers := strings.Split(cfg["brokers"], ",")
	if len(brokers) == 0 || brokers[0] == "" {
		return fmt.Errorf("kafka brokers missing")
	}
	topic := cfg["topic"]
	if topic == "" {
		topic = "tracking-events"
	}

	c.writer = &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.LeastBytes{},
		BatchSize:    100,
		BatchTimeout: 10 * time.Millisecond,
		Async:        true,
		RequiredAcks: kafka.RequireOne,
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

	err = c.writer.WriteMessages(context.Background(), kafka.Message{
		Key:   []byte(msg.Subject()),
		Value: data,
	})
	if err != nil {
		return fmt.Errorf("writing to Kafka: %v", err)
	}
	return nil
}

func (c *Connector) Close() error {
	return c.writer.Close()
}
