// Package notify is the mail-notifier consumer of order lifecycle events.
// Delivery is stubbed to the log; a real sender would sit behind Mailer.
package notify

import (
	"context"
	"fmt"
	"io"
	"log"

	"toystore/internal/domain"
	"toystore/internal/events"
)

// Mailer sends a single message. The default implementation only logs.
type Mailer interface {
	Send(ctx context.Context, to, subject, body string) error
}

type logMailer struct {
	logger *log.Logger
}

func (m *logMailer) Send(_ context.Context, to, subject, _ string) error {
	m.logger.Printf("mail: to=%s subject=%q", to, subject)
	return nil
}

type Notifier struct {
	mailer Mailer
	logger *log.Logger
}

func New(mailer Mailer, logger *log.Logger) *Notifier {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	if mailer == nil {
		mailer = &logMailer{logger: logger}
	}
	return &Notifier{mailer: mailer, logger: logger}
}

func (n *Notifier) Register(bus *events.Bus) {
	bus.Subscribe(domain.EventOrderCommitted, n.onCommitted)
	bus.Subscribe(domain.EventOrderCancelled, n.onCancelled)
}

func (n *Notifier) onCommitted(ctx context.Context, ev domain.Event) {
	if ev.Order == nil || ev.Order.Contact.Email == "" {
		return
	}
	subject := fmt.Sprintf("Order confirmation #%s", ev.Order.ID)
	if err := n.mailer.Send(ctx, ev.Order.Contact.Email, subject, ""); err != nil {
		n.logger.Printf("notify: order=%s error=%v", ev.Order.ID, err)
	}
}

func (n *Notifier) onCancelled(ctx context.Context, ev domain.Event) {
	if ev.Order == nil || ev.Order.Contact.Email == "" {
		return
	}
	subject := fmt.Sprintf("Order #%s cancelled", ev.Order.ID)
	if err := n.mailer.Send(ctx, ev.Order.Contact.Email, subject, ""); err != nil {
		n.logger.Printf("notify: order=%s error=%v", ev.Order.ID, err)
	}
}
