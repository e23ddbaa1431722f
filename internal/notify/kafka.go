package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
)

// MessageWriter is the part of *kafka.Writer the notifier uses.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// MailEvent is the payload consumed by the mail delivery service.
type MailEvent struct {
	Type      string    `json:"type"`
	UserID    string    `json:"userId"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// KafkaNotifier publishes account mail events keyed by user id so all mail
// for one account lands on the same partition.
type KafkaNotifier struct {
	writer  MessageWriter
	links   Links
	timeout time.Duration
	now     func() time.Time
}

func NewKafkaWriter(brokers []string, topic string, timeout time.Duration) *kafka.Writer {
	return &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireOne,
		AllowAutoTopicCreation: true,
		WriteTimeout:           timeout,
	}
}

func NewKafkaNotifier(writer MessageWriter, links Links, timeout time.Duration) *KafkaNotifier {
	return &KafkaNotifier{writer: writer, links: links, timeout: timeout, now: time.Now}
}

func (n *KafkaNotifier) SendEmailVerification(ctx context.Context, to Recipient, token string, expiresAt time.Time) error {
	return n.publish(ctx, EventEmailVerification, to, token, expiresAt)
}

func (n *KafkaNotifier) SendPasswordReset(ctx context.Context, to Recipient, token string, expiresAt time.Time) error {
	return n.publish(ctx, EventPasswordReset, to, token, expiresAt)
}

func (n *KafkaNotifier) Close() error {
	return n.writer.Close()
}

func (n *KafkaNotifier) publish(ctx context.Context, event string, to Recipient, token string, expiresAt time.Time) error {
	data, err := json.Marshal(MailEvent{
		Type:      event,
		UserID:    to.UserID,
		Email:     to.Email,
		Name:      to.Name,
		URL:       n.links.For(event, token),
		ExpiresAt: expiresAt,
	})
	if err != nil {
		return fmt.Errorf("kafka: json.Marshal failed: %w", err)
	}

	if n.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, n.timeout)
		defer cancel()
	}

	err = n.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(to.UserID),
		Value: data,
		Time:  n.now(),
		Headers: []kafka.Header{
			{Key: "event", Value: []byte(event)},
		},
	})
	if err != nil {
		return fmt.Errorf("kafka: publish %s failed: %w", event, err)
	}
	return nil
}
