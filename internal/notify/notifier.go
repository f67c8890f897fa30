package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/rs/zerolog"

	"github.com/formday/formday/internal/logging"
)

// Notification is one user-visible alert
type Notification struct {
	Title string `json:"title"`
	Body  string `json:"body"`
	// Tag groups notifications so delivery channels can collapse
	// repeats, e.g. "prayer-Fajr".
	Tag string `json:"tag,omitempty"`
}

// Notifier delivers a notification to the user through one channel
type Notifier interface {
	// Name identifies the channel in logs
	Name() string
	// Send delivers the notification or returns why it could not
	Send(ctx context.Context, n Notification) error
}

// WebhookNotifier posts notifications to an HTTP endpoint (ntfy, Gotify
// or anything accepting a small JSON document). This is the
// background-capable path: the receiving service reaches the user even
// when no Formday client is open.
type WebhookNotifier struct {
	client *http.Client
	url    string
	token  string
	logger zerolog.Logger
}

// NewWebhookNotifier creates a webhook notifier for the given endpoint
func NewWebhookNotifier(url, token string) *WebhookNotifier {
	return &WebhookNotifier{
		client: &http.Client{Timeout: 10 * time.Second},
		url:    url,
		token:  token,
		logger: logging.GetLogger("webhook-notifier"),
	}
}

// Name identifies the channel in logs
func (n *WebhookNotifier) Name() string { return "webhook" }

// Send posts the notification as JSON
func (n *WebhookNotifier) Send(ctx context.Context, notification Notification) error {
	payload, err := json.Marshal(notification)
	if err != nil {
		return fmt.Errorf("failed to marshal notification: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to build webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if n.token != "" {
		req.Header.Set("Authorization", "Bearer "+n.token)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to post notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}

	n.logger.Debug().Str("title", notification.Title).Msg("Notification delivered via webhook")
	return nil
}

// LogNotifier writes notifications to the service log. It is the
// foreground fallback when no background-capable channel is configured
// or all of them failed.
type LogNotifier struct {
	logger zerolog.Logger
}

// NewLogNotifier creates the log fallback notifier
func NewLogNotifier() *LogNotifier {
	return &LogNotifier{logger: logging.GetLogger("log-notifier")}
}

// Name identifies the channel in logs
func (n *LogNotifier) Name() string { return "log" }

// Send writes the notification to the log and always succeeds
func (n *LogNotifier) Send(_ context.Context, notification Notification) error {
	n.logger.Info().
		Str("title", notification.Title).
		Str("body", notification.Body).
		Str("tag", notification.Tag).
		Msg("Notification")
	return nil
}

// Dispatcher tries each configured channel in order and stops at the
// first success. Delivery failures are logged and reported to the
// caller for bookkeeping, but callers treat dispatch as best-effort.
type Dispatcher struct {
	notifiers []Notifier
	logger    zerolog.Logger
}

// NewDispatcher creates a dispatcher over the given channels, tried in
// the order given.
func NewDispatcher(notifiers ...Notifier) *Dispatcher {
	return &Dispatcher{
		notifiers: notifiers,
		logger:    logging.GetLogger("notify-dispatcher"),
	}
}

// Dispatch delivers the notification through the first channel that
// accepts it.
func (d *Dispatcher) Dispatch(ctx context.Context, notification Notification) error {
	var errs *multierror.Error
	for _, notifier := range d.notifiers {
		err := notifier.Send(ctx, notification)
		if err == nil {
			d.logger.Debug().Str("channel", notifier.Name()).Str("tag", notification.Tag).Msg("Notification dispatched")
			return nil
		}
		d.logger.Warn().Err(err).Str("channel", notifier.Name()).Msg("Notification channel failed, trying next")
		errs = multierror.Append(errs, fmt.Errorf("channel %s: %w", notifier.Name(), err))
	}
	if errs.ErrorOrNil() == nil {
		return fmt.Errorf("no notification channels configured")
	}
	return fmt.Errorf("all notification channels failed: %w", errs)
}
