package email

import (
	"context"

	"github.com/rs/zerolog"
	"github.com/yigit/teacherportfolio/internal/pkg/notify"
)

// LogMailer stands in for the mail transport: composed messages are logged, not sent
type LogMailer struct {
	logger zerolog.Logger
	// IncludeBody adds the plain-text body to the log line, for local development
	IncludeBody bool
}

// NewLogMailer creates a new LogMailer
func NewLogMailer(logger zerolog.Logger, includeBody bool) *LogMailer {
	return &LogMailer{logger: logger, IncludeBody: includeBody}
}

// Deliver logs msg and reports success
func (m *LogMailer) Deliver(ctx context.Context, msg *notify.Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	event := m.logger.Info().
		Str("toEmail", msg.To).
		Str("from", msg.From).
		Str("subject", msg.Subject).
		Int("bytes", len(msg.Raw))
	if m.IncludeBody {
		event = event.Str("body", msg.Text)
	}
	event.Msg("Mail transport not configured - e-mail logged instead of sent")
	return nil
}
