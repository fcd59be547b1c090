package notify

import (
	"context"
	"fmt"
	"io"
	"sync"

	"solana-alerts/internal/domain"
)

// Writer prints alerts to an io.Writer, separated by a blank line.
type Writer struct {
	mu sync.Mutex
	w  io.Writer
}

// NewWriter creates a Writer sink.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w}
}

var _ Notifier = (*Writer)(nil)

// Name implements Notifier.
func (w *Writer) Name() string { return "writer" }

// Notify writes msg followed by a blank line.
func (w *Writer) Notify(_ context.Context, msg domain.AlertMessage) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if _, err := fmt.Fprintf(w.w, "%s\n\n", msg.Text()); err != nil {
		return fmt.Errorf("write alert: %w", err)
	}
	return nil
}
