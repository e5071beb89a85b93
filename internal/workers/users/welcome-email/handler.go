// Package welcomeemail greets a user by email when their account record is created.
package welcomeemail

import (
	"context"
	"fmt"

	"synctask-notifications/internal/common/errors"
	"synctask-notifications/internal/common/logger"
	"synctask-notifications/internal/common/mail"
	"synctask-notifications/internal/common/metrics"
	"synctask-notifications/internal/common/observability"
	"synctask-notifications/internal/models"
	"synctask-notifications/internal/templates"
	"synctask-notifications/internal/triggers"
)

type Handler struct {
	config *Config
	mailer mail.Sender
	obs    *observability.Observability
	logger logger.Logger
}

func NewHandler(opts HandlerOptions) (*Handler, error) {
	config := opts.CustomConfig
	if config == nil {
		config = DefaultConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if opts.Mailer == nil {
		return nil, fmt.Errorf("mailer is required")
	}

	log := opts.Logger
	if log == nil {
		log = logger.NewStructured("info", "json")
	}

	return &Handler{
		config: config,
		mailer: opts.Mailer,
		obs:    opts.Observability,
		logger: log.WithFields(map[string]interface{}{"taskType": TaskType}),
	}, nil
}

// Execute sends the welcome email for a created user record. Missing data is a
// skip, not an error.
func (h *Handler) Execute(ctx context.Context, change *triggers.Change) (*Output, error) {
	if change.Collection != triggers.CollectionUsers || change.Operation != triggers.OperationCreate {
		return skipped("not a user creation"), nil
	}

	var user models.User
	found, err := change.DecodeAfter(&user)
	if err != nil {
		return nil, errors.NewPayloadParseFailedError(TaskType, err)
	}
	if !found || !user.HasEmail() {
		return skipped("no email found for user"), nil
	}

	email := templates.Welcome(templates.WelcomeData{
		Username: user.Username,
		Email:    user.Email,
	})

	result, err := h.mailer.Send(ctx, user.Email, email.Subject, email.HTML, email.Text)
	if err != nil {
		return nil, errors.NewNotificationSendFailedError(string(templates.KindWelcome), err)
	}

	return &Output{
		Status:    StatusSent,
		Recipient: user.Email,
		MessageID: result.MessageID,
	}, nil
}

// HandleChange is the trigger boundary: it logs the outcome and never fails.
func (h *Handler) HandleChange(ctx context.Context, change *triggers.Change) {
	ctx, span, log := h.obs.StartSpan(ctx, TaskType, h.logger.WithFields(map[string]interface{}{
		"recordId": change.RecordID,
	}))
	defer span.End()

	ctx, cancel := context.WithTimeout(ctx, h.config.Timeout)
	defer cancel()

	output, err := h.Execute(ctx, change)
	switch {
	case err != nil:
		span.RecordError(err)
		metrics.NotificationsTotal.WithLabelValues(string(templates.KindWelcome), metrics.OutcomeFailed).Inc()
		log.Error("Error sending welcome email", map[string]interface{}{
			"error":         err,
			"errorCode":     errors.GetErrorCode(err),
			"errorCategory": errors.GetErrorCategory(errors.GetErrorCode(err)),
		})
	case output.Status == StatusSkipped:
		metrics.NotificationsTotal.WithLabelValues(string(templates.KindWelcome), metrics.OutcomeSkipped).Inc()
		log.Info("Welcome email skipped", map[string]interface{}{"reason": output.Reason})
	default:
		metrics.NotificationsTotal.WithLabelValues(string(templates.KindWelcome), metrics.OutcomeSent).Inc()
		log.Info("Welcome email sent", map[string]interface{}{
			"to":        output.Recipient,
			"messageId": output.MessageID,
		})
	}
}

func skipped(reason string) *Output {
	return &Output{Status: StatusSkipped, Reason: reason}
}
