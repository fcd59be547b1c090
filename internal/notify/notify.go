// Package notify delivers rendered alerts to outbound channels.
package notify

import (
	"context"
	"errors"
	"fmt"
	"time"

	"solana-alerts/internal/domain"
	"solana-alerts/internal/observability"
)

// Notifier delivers one alert message.
type Notifier interface {
	Name() string
	Notify(ctx context.Context, msg domain.AlertMessage) error
}

// Multi fans a message out to every sink. A failing sink does not stop
// delivery to the others.
type Multi []Notifier

var _ Notifier = Multi(nil)

// Name implements Notifier.
func (m Multi) Name() string { return "multi" }

// Notify sends msg to every sink in order and joins their errors.
func (m Multi) Notify(ctx context.Context, msg domain.AlertMessage) error {
	var errs []error
	for _, n := range m {
		err := n.Notify(ctx, msg)
		observability.RecordNotification(n.Name(), err)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", n.Name(), err))
		}
	}
	return errors.Join(errs...)
}

// Envelope wraps an alert for structured sinks (Kafka, stream clients).
type Envelope struct {
	Type string       `json:"type"`
	TS   int64        `json:"ts"`
	Data AlertPayload `json:"data"`
}

// AlertPayload is the JSON form of an alert.
type AlertPayload struct {
	Signature string   `json:"signature,omitempty"`
	Text      string   `json:"text"`
	Lines     []string `json:"lines"`
}

// NewEnvelope builds the "alert" envelope for msg stamped with now.
func NewEnvelope(msg domain.AlertMessage, now time.Time) Envelope {
	lines := msg.Lines
	if lines == nil {
		lines = []string{}
	}
	return Envelope{
		Type: "alert",
		TS:   now.UnixMilli(),
		Data: AlertPayload{
			Signature: msg.Signature,
			Text:      msg.Text(),
			Lines:     lines,
		},
	}
}
