// Package source implements the bus-facing chat event source.
package source

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"time"

	"github.com/segmentio/kafka-go"
)

// Message is one record received from the bus.
type Message struct {
	Topic string
	Key   []byte
	Value []byte
}

// Consumer abstracts the inbound side of the bus so the chat source can be
// tested with an in-process channel.
type Consumer interface {
	Start(ctx context.Context) error
	Messages() <-chan Message
	Close() error
}

// Reconnect backoff bounds for the kafka reader.
const (
	initialBackoff = 1 * time.Second
	maxBackoff     = 30 * time.Second
)

// messageReader is the part of kafka.Reader the consume loop depends on.
type messageReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
	Close() error
}

// KafkaConsumer implements Consumer using segmentio/kafka-go. Transport
// errors trigger bounded exponential backoff instead of a tight retry loop
// so a broker outage does not melt the log.
type KafkaConsumer struct {
	topic     string
	newReader func() messageReader
	reader    messageReader
	messages  chan Message
	wait      func(ctx context.Context, d time.Duration) bool
}

// NewKafkaConsumer creates a consumer for a single topic.
func NewKafkaConsumer(brokers []string, groupID, topic string) *KafkaConsumer {
	c := &KafkaConsumer{
		topic:    topic,
		messages: make(chan Message, 100),
		wait:     sleepWait,
	}
	c.newReader = func() messageReader {
		return kafka.NewReader(kafka.ReaderConfig{
			Brokers:  brokers,
			Topic:    topic,
			GroupID:  groupID,
			MinBytes: 1,
			MaxBytes: 10e6,
		})
	}
	return c
}

// Start begins consuming. The read loop runs until the context is cancelled
// or the reader is closed.
func (c *KafkaConsumer) Start(ctx context.Context) error {
	c.reader = c.newReader()
	go c.consume(ctx)
	return nil
}

// consume reads until the context ends or the reader is closed (the reader
// reports io.EOF once Close ran). Any other read error counts as a transport
// failure: the backoff doubles up to maxBackoff, and a successful read
// resets it.
func (c *KafkaConsumer) consume(ctx context.Context) {
	backoff := initialBackoff
	for {
		msg, err := c.reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, io.EOF) {
				return
			}
			slog.Warn("Kafka read error, backing off", "topic", c.topic, "backoff", backoff, "error", err)
			if !c.wait(ctx, backoff) {
				return
			}
			backoff = min(backoff*2, maxBackoff)
			continue
		}
		backoff = initialBackoff
		c.messages <- Message{Topic: msg.Topic, Key: msg.Key, Value: msg.Value}
	}
}

func sleepWait(ctx context.Context, d time.Duration) bool {
	select {
	case <-ctx.Done():
		return false
	case <-time.After(d):
		return true
	}
}

// Messages returns the channel of consumed messages.
func (c *KafkaConsumer) Messages() <-chan Message {
	return c.messages
}

// Close stops the underlying reader, which ends the consume loop.
func (c *KafkaConsumer) Close() error {
	if c.reader != nil {
		return c.reader.Close()
	}
	return nil
}

// ChannelConsumer is an in-process Consumer implementation for tests.
type ChannelConsumer struct {
	ch chan Message
}

// NewChannelConsumer creates an in-process consumer.
func NewChannelConsumer() *ChannelConsumer {
	return &ChannelConsumer{ch: make(chan Message, 100)}
}

// Start implements Consumer.
func (c *ChannelConsumer) Start(ctx context.Context) error { return nil }

// Messages implements Consumer.
func (c *ChannelConsumer) Messages() <-chan Message { return c.ch }

// Close implements Consumer.
func (c *ChannelConsumer) Close() error {
	close(c.ch)
	return nil
}

// Inject feeds a message to consumers of Messages().
func (c *ChannelConsumer) Inject(msg Message) {
	c.ch <- msg
}
