package notify

import (
	"context"
	"log/slog"
)

// ConsoleMailer logs messages instead of sending them. Used in development
// and whenever no SendGrid key is configured.
type ConsoleMailer struct{}

func (ConsoleMailer) Send(_ context.Context, to, subject, _ string) error {
	slog.Info("mail (console)", "to", to, "subject", subject)
	return nil
}
