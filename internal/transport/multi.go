package transport

import (
	"context"
	"errors"
	"fmt"

	"github.com/GriffinCanCode/worldbridge/internal/page"
)

// Page creates both in-page transports for window
func Page(window *page.Window, event string) (*Broadcast, *DocumentEvents) {
	return NewBroadcast(window), NewDocumentEvents(window.Document(), event)
}

// SendAll sends msg on every transport. Delivery is redundant, so it only
// fails when no transport accepted the message.
func SendAll(ctx context.Context, transports []Transport, msg Message) error {
	var errs []error
	sent := 0
	for _, t := range transports {
		if err := t.Send(ctx, msg); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", t.Name(), err))
			continue
		}
		sent++
	}
	if sent == 0 {
		if len(errs) == 0 {
			return errors.New("no transports configured")
		}
		return errors.Join(errs...)
	}
	return nil
}

// ListenAll registers fn on every transport and returns one cancel for all
func ListenAll(transports []Transport, fn Listener) func() {
	cancels := make([]func(), 0, len(transports))
	for _, t := range transports {
		cancels = append(cancels, t.Listen(fn))
	}
	return func() {
		for _, cancel := range cancels {
			cancel()
		}
	}
}
