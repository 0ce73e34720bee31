package authkit

import (
	"context"
	"log/slog"
)

// LogMailer writes confirmation messages to the log instead of delivering
// them. It stands in for a real mail transport during local development;
// the token shows up in the log output so confirmation can be completed by
// hand.
type LogMailer struct {
	Logger *slog.Logger
}

// SendConfirmation implements Mailer.
func (m *LogMailer) SendConfirmation(_ context.Context, email, token string) error {
	if m.Logger != nil {
		m.Logger.Info("Confirmation message", "email", email, "token", token)
	}
	return nil
}
