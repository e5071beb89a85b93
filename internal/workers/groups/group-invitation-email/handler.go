// Package groupinvitationemail serves the sendGroupInvitationEmail callable.
package groupinvitationemail

import (
	"context"
	"fmt"

	"synctask-notifications/internal/common/auth"
	"synctask-notifications/internal/common/errors"
	"synctask-notifications/internal/common/logger"
	"synctask-notifications/internal/common/mail"
	"synctask-notifications/internal/common/metrics"
	"synctask-notifications/internal/common/observability"
	"synctask-notifications/internal/models"
	"synctask-notifications/internal/templates"
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
		logger: log.WithFields(map[string]interface{}{"function": FunctionName}),
	}, nil
}

func (h *Handler) Name() string {
	return FunctionName
}

// Execute checks the caller, then the payload, then sends. Every error it
// returns is a *errors.CallableError.
func (h *Handler) Execute(ctx context.Context, caller *auth.Caller, data map[string]interface{}) (*models.Acknowledgement, error) {
	if caller == nil {
		return nil, errors.NewUnauthenticatedError()
	}

	ctx, span, log := h.obs.StartSpan(ctx, FunctionName, h.logger.WithFields(map[string]interface{}{
		"callerId": caller.UserID,
	}))
	defer span.End()

	ctx, cancel := context.WithTimeout(ctx, h.config.Timeout)
	defer cancel()

	input, validationResult, err := parseInput(data)
	if err != nil || input == nil {
		fields := map[string]interface{}{}
		if validationResult != nil {
			fields["errors"] = validationResult.GetErrorMessages()
		}
		if err != nil {
			fields["error"] = err
		}
		log.Warn("Invalid group invitation payload", fields)
		return nil, errors.NewInvalidArgumentError("")
	}

	email := templates.GroupInvitation(templates.GroupInvitationData{
		InviterUsername: input.InviterUsername,
		GroupName:       input.GroupName,
		InviteeUsername: input.InviteeUsername,
	})

	kind := string(templates.KindGroupInvitation)
	result, err := h.mailer.Send(ctx, input.InviteeEmail, email.Subject, email.HTML, email.Text)
	if err != nil {
		span.RecordError(err)
		metrics.NotificationsTotal.WithLabelValues(kind, metrics.OutcomeFailed).Inc()
		log.Error("Error sending group invitation email", map[string]interface{}{
			"to":    input.InviteeEmail,
			"error": err,
		})
		return nil, errors.NewInternalError()
	}

	metrics.NotificationsTotal.WithLabelValues(kind, metrics.OutcomeSent).Inc()
	log.Info("Group invitation email sent", map[string]interface{}{
		"to":        input.InviteeEmail,
		"messageId": result.MessageID,
	})

	return &models.Acknowledgement{Success: true, Message: SuccessMessage}, nil
}
