package mailer

import (
	"context"

	"go.uber.org/zap"
)

// Console logs messages instead of sending them. It is the gateway of last
// resort when no SendGrid key is configured, so dev boots never touch the
// network.
type Console struct {
	log *zap.Logger
}

var _ Mailer = (*Console)(nil)

func NewConsole(log *zap.Logger) *Console {
	return &Console{log: log}
}

func (c *Console) Send(ctx context.Context, msg Message) error {
	c.log.Info("email (console)",
		zap.String("to", msg.ToEmail),
		zap.String("subject", msg.Subject),
		zap.String("idempotency_key", msg.IdempotencyKey),
	)
	c.log.Debug("email body", zap.String("text", msg.Text))
	return nil
}
