// Package mail delivers rendered messages through a single configured sender
// identity and transport.
package mail

import (
	"context"
	"fmt"
	netmail "net/mail"
	"strings"
	"time"

	"synctask-notifications/internal/common/aws"
	"synctask-notifications/internal/common/config"
	"synctask-notifications/internal/common/logger"
	"synctask-notifications/internal/common/metrics"

	"github.com/google/uuid"
)

// Sender is what notification handlers depend on.
type Sender interface {
	Send(ctx context.Context, to, subject, html, text string) (*Result, error)
}

// Transport moves one message to a mail provider and returns the provider's message id.
type Transport interface {
	Name() string
	Deliver(ctx context.Context, msg *Message) (string, error)
}

type Address struct {
	Email string
	Name  string
}

func (a Address) String() string {
	return (&netmail.Address{Name: a.Name, Address: a.Email}).String()
}

// Message is a fully addressed multipart email.
type Message struct {
	From      Address
	To        string
	Subject   string
	HTML      string
	Text      string
	MessageID string
}

type Result struct {
	Success   bool      `json:"success"`
	MessageID string    `json:"messageId"`
	Provider  string    `json:"provider"`
	SentAt    time.Time `json:"sentAt"`
}

// DeliveryError wraps any transport failure.
type DeliveryError struct {
	Provider string
	To       string
	Err      error
}

func (e *DeliveryError) Error() string {
	return fmt.Sprintf("%s delivery to %s failed: %v", e.Provider, e.To, e.Err)
}

func (e *DeliveryError) Unwrap() error {
	return e.Err
}

type Dispatcher struct {
	transport Transport
	from      Address
	timeout   time.Duration
	logger    logger.Logger
}

func NewDispatcher(transport Transport, from Address, timeout time.Duration, log logger.Logger) *Dispatcher {
	return &Dispatcher{
		transport: transport,
		from:      from,
		timeout:   timeout,
		logger:    log,
	}
}

// NewFromConfig builds the transport selected by cfg.Provider.
func NewFromConfig(ctx context.Context, cfg config.MailConfig, log logger.Logger) (*Dispatcher, error) {
	var transport Transport
	switch cfg.Provider {
	case config.MailProviderSMTP:
		transport = NewSMTPTransport(cfg.SMTP.Host, cfg.SMTP.Port, cfg.SMTP.Username, cfg.SMTP.Password)
	case config.MailProviderSES:
		client, err := aws.NewSESClient(ctx, cfg.SES.Region)
		if err != nil {
			return nil, fmt.Errorf("create SES client: %w", err)
		}
		transport = NewSESTransport(client)
	default:
		return nil, fmt.Errorf("unsupported mail provider %q", cfg.Provider)
	}

	from := Address{Email: cfg.FromAddress, Name: cfg.FromName}
	return NewDispatcher(transport, from, config.GetDuration(cfg.Timeout), log), nil
}

// Send delivers exactly one message to one recipient. There are no retries.
func (d *Dispatcher) Send(ctx context.Context, to, subject, html, text string) (*Result, error) {
	if d.timeout > 0 {
		if _, ok := ctx.Deadline(); !ok {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, d.timeout)
			defer cancel()
		}
	}

	msg := &Message{
		From:      d.from,
		To:        to,
		Subject:   subject,
		HTML:      html,
		Text:      text,
		MessageID: newMessageID(d.from.Email),
	}

	provider := d.transport.Name()
	start := time.Now()
	id, err := d.transport.Deliver(ctx, msg)
	metrics.MailDeliveryDuration.WithLabelValues(provider).Observe(time.Since(start).Seconds())

	if err != nil {
		metrics.MailDeliveries.WithLabelValues(provider, "failure").Inc()
		d.logger.Error("Email delivery failed", map[string]interface{}{
			"to":       to,
			"subject":  subject,
			"provider": provider,
			"error":    err,
		})
		return nil, &DeliveryError{Provider: provider, To: to, Err: err}
	}

	metrics.MailDeliveries.WithLabelValues(provider, "success").Inc()
	if id == "" {
		id = msg.MessageID
	}

	d.logger.Info("Email sent successfully", map[string]interface{}{
		"to":        to,
		"messageId": id,
		"provider":  provider,
	})

	return &Result{
		Success:   true,
		MessageID: id,
		Provider:  provider,
		SentAt:    time.Now().UTC(),
	}, nil
}

func newMessageID(from string) string {
	domain := "synctask.local"
	if at := strings.LastIndex(from, "@"); at >= 0 && at < len(from)-1 {
		domain = from[at+1:]
	}
	return fmt.Sprintf("<%s@%s>", uuid.NewString(), domain)
}
