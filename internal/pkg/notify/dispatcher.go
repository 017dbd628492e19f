package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/yigit/teacherportfolio/internal/pkg/apperrors"
	"resty.dev/v3"
)

// Sender delivers welcome notifications
type Sender interface {
	SendWelcome(ctx context.Context, w Welcome) error
}

// DispatcherConfig configures the outbound function call
type DispatcherConfig struct {
	FunctionURL string
	ServiceKey  string
	Timeout     time.Duration
}

// Dispatcher POSTs welcome payloads to the notification function.
// Without a function URL it only logs, which is the development setup.
type Dispatcher struct {
	client *resty.Client
	url    string
	logger zerolog.Logger
}

// NewDispatcher creates a new Dispatcher
func NewDispatcher(cfg DispatcherConfig, logger zerolog.Logger) *Dispatcher {
	client := resty.New().SetAuthToken(cfg.ServiceKey)
	if cfg.Timeout > 0 {
		client.SetTimeout(cfg.Timeout)
	}
	return &Dispatcher{
		client: client,
		url:    cfg.FunctionURL,
		logger: logger,
	}
}

// Close releases the HTTP client
func (d *Dispatcher) Close() error {
	return d.client.Close()
}

// SendWelcome posts w to the function endpoint. Any non-2xx answer is an error.
func (d *Dispatcher) SendWelcome(ctx context.Context, w Welcome) error {
	if d.url == "" {
		d.logger.Warn().
			Str("toEmail", w.Email).
			Str("claimURL", w.ClaimURL).
			Msg("Notification function not configured - welcome message not sent")
		return nil
	}

	res, err := d.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(w).
		Post(d.url)
	if err != nil {
		return fmt.Errorf("post welcome notification: %w", err)
	}
	if res.IsError() {
		return fmt.Errorf("welcome notification returned %d: %w", res.StatusCode(), apperrors.ErrDownstream)
	}

	d.logger.Info().Str("toEmail", w.Email).Msg("Welcome notification dispatched")
	return nil
}
