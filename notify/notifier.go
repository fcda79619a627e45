package notify

import (
	"log/slog"
	"time"

	"github.com/adamsih300u/bastion/core"
)

// Event describes one document status transition.
type Event struct {
	DocumentID string            `json:"document_id"`
	Status     string            `json:"status"`
	Metadata   map[string]string `json:"metadata,omitempty"`
	OccurredAt time.Time         `json:"occurred_at"`
}

// Notifier receives document status transition events. Implementations
// must not block; the pipeline calls NotifyStatusChanged outside its
// locks but on worker goroutines. Delivery is best-effort and failures
// must never affect pipeline progress.
type Notifier interface {
	NotifyStatusChanged(documentID string, status core.JobStatus, metadata map[string]string)
}

// LogNotifier writes status transitions to the structured log.
type LogNotifier struct {
	logger *slog.Logger
}

var _ Notifier = (*LogNotifier)(nil)

// NewLogNotifier creates a notifier that logs transitions.
func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogNotifier{logger: logger.With("component", "notify")}
}

func (n *LogNotifier) NotifyStatusChanged(documentID string, status core.JobStatus, metadata map[string]string) {
	n.logger.Info("document status changed",
		"document_id", documentID,
		"status", status.String())
}

// ChannelNotifier delivers events on a channel for in-process
// consumers. Events are dropped when the channel is full.
type ChannelNotifier struct {
	events chan Event
}

var _ Notifier = (*ChannelNotifier)(nil)

// NewChannelNotifier creates a notifier with the given buffer size.
func NewChannelNotifier(buffer int) *ChannelNotifier {
	if buffer <= 0 {
		buffer = 64
	}
	return &ChannelNotifier{events: make(chan Event, buffer)}
}

// Events returns the receive side of the event channel.
func (n *ChannelNotifier) Events() <-chan Event {
	return n.events
}

func (n *ChannelNotifier) NotifyStatusChanged(documentID string, status core.JobStatus, metadata map[string]string) {
	event := Event{
		DocumentID: documentID,
		Status:     status.String(),
		Metadata:   metadata,
		OccurredAt: time.Now().UTC(),
	}
	select {
	case n.events <- event:
	default:
		// Slow consumers lose events rather than stalling workers.
	}
}

// multiNotifier fans an event out to several notifiers.
type multiNotifier struct {
	notifiers []Notifier
}

func (m *multiNotifier) NotifyStatusChanged(documentID string, status core.JobStatus, metadata map[string]string) {
	for _, n := range m.notifiers {
		n.NotifyStatusChanged(documentID, status, metadata)
	}
}

// Combine merges notifiers into one. Nil entries are skipped.
func Combine(notifiers ...Notifier) Notifier {
	var active []Notifier
	for _, n := range notifiers {
		if n != nil {
			active = append(active, n)
		}
	}
	switch len(active) {
	case 0:
		return nil
	case 1:
		return active[0]
	default:
		return &multiNotifier{notifiers: active}
	}
}
