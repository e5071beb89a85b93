// Package friendrequestemail tells the receiver of a new friend request who sent it.
package friendrequestemail

import (
	"context"
	stderrors "errors"
	"fmt"

	"synctask-notifications/internal/common/errors"
	"synctask-notifications/internal/common/logger"
	"synctask-notifications/internal/common/mail"
	"synctask-notifications/internal/common/metrics"
	"synctask-notifications/internal/common/observability"
	"synctask-notifications/internal/models"
	"synctask-notifications/internal/records"
	"synctask-notifications/internal/templates"
	"synctask-notifications/internal/triggers"
)

type Handler struct {
	config *Config
	mailer mail.Sender
	users  records.UserLookup
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
	if opts.Users == nil {
		return nil, fmt.Errorf("user lookup is required")
	}

	log := opts.Logger
	if log == nil {
		log = logger.NewStructured("info", "json")
	}

	return &Handler{
		config: config,
		mailer: opts.Mailer,
		users:  opts.Users,
		obs:    opts.Observability,
		logger: log.WithFields(map[string]interface{}{"taskType": TaskType}),
	}, nil
}

func (h *Handler) Execute(ctx context.Context, change *triggers.Change) (*Output, error) {
	if change.Collection != triggers.CollectionFriendRequests || change.Operation != triggers.OperationCreate {
		return skipped("not a friend request creation"), nil
	}

	var request models.FriendRequest
	found, err := change.DecodeAfter(&request)
	if err != nil {
		return nil, errors.NewPayloadParseFailedError(TaskType, err)
	}
	if !found || request.ReceiverID == "" {
		return skipped("friend request has no receiver"), nil
	}

	receiver, err := h.users.GetUser(ctx, request.ReceiverID)
	if stderrors.Is(err, records.ErrNotFound) {
		return skipped("receiver user not found"), nil
	}
	if err != nil {
		return nil, errors.NewRecordLookupFailedError(triggers.CollectionUsers, request.ReceiverID, err)
	}
	if !receiver.HasEmail() {
		return skipped("no email found for receiver"), nil
	}

	email := templates.FriendRequest(templates.FriendRequestData{
		SenderUsername:   request.SenderUsername,
		ReceiverUsername: receiver.Username,
	})

	result, err := h.mailer.Send(ctx, receiver.Email, email.Subject, email.HTML, email.Text)
	if err != nil {
		return nil, errors.NewNotificationSendFailedError(string(templates.KindFriendRequest), err)
	}

	return &Output{
		Status:    StatusSent,
		Recipient: receiver.Email,
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

	kind := string(templates.KindFriendRequest)
	output, err := h.Execute(ctx, change)
	switch {
	case err != nil:
		span.RecordError(err)
		metrics.NotificationsTotal.WithLabelValues(kind, metrics.OutcomeFailed).Inc()
		log.Error("Error sending friend request email", map[string]interface{}{
			"error":         err,
			"errorCode":     errors.GetErrorCode(err),
			"errorCategory": errors.GetErrorCategory(errors.GetErrorCode(err)),
		})
	case output.Status == StatusSkipped:
		metrics.NotificationsTotal.WithLabelValues(kind, metrics.OutcomeSkipped).Inc()
		log.Info("Friend request email skipped", map[string]interface{}{"reason": output.Reason})
	default:
		metrics.NotificationsTotal.WithLabelValues(kind, metrics.OutcomeSent).Inc()
		log.Info("Friend request email sent", map[string]interface{}{
			"to":        output.Recipient,
			"messageId": output.MessageID,
		})
	}
}

func skipped(reason string) *Output {
	return &Output{Status: StatusSkipped, Reason: reason}
}
