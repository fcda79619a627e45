package notify

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/adamsih300u/bastion/core"
)

// AMQPNotifier publishes status transition events to a RabbitMQ queue
// as JSON. Publish failures are logged and dropped; downstream
// consumers must tolerate gaps.
type AMQPNotifier struct {
	conn    *amqp.Connection
	channel *amqp.Channel
	queue   string
	logger  *slog.Logger
}

var _ Notifier = (*AMQPNotifier)(nil)

// NewAMQPNotifier connects to RabbitMQ and declares a durable queue.
func NewAMQPNotifier(url, queue string) (*AMQPNotifier, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open a RabbitMQ channel: %w", err)
	}

	if _, err := channel.QueueDeclare(queue, true, false, false, false, nil); err != nil {
		channel.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to declare %s queue: %w", queue, err)
	}

	return &AMQPNotifier{
		conn:    conn,
		channel: channel,
		queue:   queue,
		logger:  slog.Default().With("component", "notify.amqp"),
	}, nil
}

func (n *AMQPNotifier) NotifyStatusChanged(documentID string, status core.JobStatus, metadata map[string]string) {
	event := Event{
		DocumentID: documentID,
		Status:     status.String(),
		Metadata:   metadata,
		OccurredAt: time.Now().UTC(),
	}

	data, err := json.Marshal(event)
	if err != nil {
		n.logger.Error("failed to encode event", "document_id", documentID, "error", err)
		return
	}

	err = n.channel.Publish("", n.queue, false, false, amqp.Publishing{
		ContentType:  "application/json",
		Body:         data,
		DeliveryMode: amqp.Persistent,
	})
	if err != nil {
		n.logger.Error("failed to publish event", "document_id", documentID, "error", err)
	}
}

// Close closes the channel and connection.
func (n *AMQPNotifier) Close() error {
	if err := n.channel.Close(); err != nil {
		return fmt.Errorf("failed to close channel: %w", err)
	}
	if err := n.conn.Close(); err != nil {
		return fmt.Errorf("failed to close connection: %w", err)
	}
	return nil
}
