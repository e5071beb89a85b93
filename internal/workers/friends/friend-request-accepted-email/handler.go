// Package friendrequestacceptedemail tells the original requester that their
// friend request was accepted.
package friendrequestacceptedemail

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

// FallbackAccepterName is used when the accepter's record cannot be read.
const FallbackAccepterName = "Someone"

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

// Execute sends only on the pending -> accepted transition. The sender lookup
// gates the send; the accepter lookup only supplies a display name.
func (h *Handler) Execute(ctx context.Context, change *triggers.Change) (*Output, error) {
	if change.Collection != triggers.CollectionFriendRequests || change.Operation != triggers.OperationUpdate {
		return skipped("not a friend request update"), nil
	}

	var before, after models.FriendRequest
	if _, err := change.DecodeBefore(&before); err != nil {
		return nil, errors.NewPayloadParseFailedError(TaskType, err)
	}
	if _, err := change.DecodeAfter(&after); err != nil {
		return nil, errors.NewPayloadParseFailedError(TaskType, err)
	}
	if !models.IsAcceptance(&before, &after) {
		return skipped(fmt.Sprintf("status transition %q -> %q ignored", before.Status, after.Status)), nil
	}

	if after.SenderID == "" {
		return skipped("friend request has no sender"), nil
	}
	sender, err := h.users.GetUser(ctx, after.SenderID)
	if stderrors.Is(err, records.ErrNotFound) {
		return skipped("sender user not found"), nil
	}
	if err != nil {
		return nil, errors.NewRecordLookupFailedError(triggers.CollectionUsers, after.SenderID, err)
	}
	if !sender.HasEmail() {
		return skipped("no email found for sender"), nil
	}

	email := templates.FriendRequestAccepted(templates.FriendRequestAcceptedData{
		AccepterUsername: h.accepterName(ctx, after.ReceiverID),
		SenderUsername:   after.SenderUsername,
	})

	result, err := h.mailer.Send(ctx, sender.Email, email.Subject, email.HTML, email.Text)
	if err != nil {
		return nil, errors.NewNotificationSendFailedError(string(templates.KindFriendRequestAccepted), err)
	}

	return &Output{
		Status:    StatusSent,
		Recipient: sender.Email,
		MessageID: result.MessageID,
	}, nil
}

func (h *Handler) accepterName(ctx context.Context, receiverID string) string {
	if receiverID == "" {
		return FallbackAccepterName
	}
	receiver, err := h.users.GetUser(ctx, receiverID)
	if err != nil {
		h.logger.Warn("Accepter lookup failed, using fallback name", map[string]interface{}{
			"receiverId": receiverID,
			"error":      err,
		})
		return FallbackAccepterName
	}
	if receiver.Username == "" {
		return FallbackAccepterName
	}
	return receiver.Username
}

// HandleChange is the trigger boundary: it logs the outcome and never fails.
func (h *Handler) HandleChange(ctx context.Context, change *triggers.Change) {
	ctx, span, log := h.obs.StartSpan(ctx, TaskType, h.logger.WithFields(map[string]interface{}{
		"recordId": change.RecordID,
	}))
	defer span.End()

	ctx, cancel := context.WithTimeout(ctx, h.config.Timeout)
	defer cancel()

	kind := string(templates.KindFriendRequestAccepted)
	output, err := h.Execute(ctx, change)
	switch {
	case err != nil:
		span.RecordError(err)
		metrics.NotificationsTotal.WithLabelValues(kind, metrics.OutcomeFailed).Inc()
		log.Error("Error sending friend request accepted email", map[string]interface{}{
			"error":         err,
			"errorCode":     errors.GetErrorCode(err),
			"errorCategory": errors.GetErrorCategory(errors.GetErrorCode(err)),
		})
	case output.Status == StatusSkipped:
		metrics.NotificationsTotal.WithLabelValues(kind, metrics.OutcomeSkipped).Inc()
		log.Info("Friend request accepted email skipped", map[string]interface{}{"reason": output.Reason})
	default:
		metrics.NotificationsTotal.WithLabelValues(kind, metrics.OutcomeSent).Inc()
		log.Info("Friend request accepted email sent", map[string]interface{}{
			"to":        output.Recipient,
			"messageId": output.MessageID,
		})
	}
}

func skipped(reason string) *Output {
	return &Output{Status: StatusSkipped, Reason: reason}
}
