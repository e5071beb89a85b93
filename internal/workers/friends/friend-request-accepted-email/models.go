package friendrequestacceptedemail

import (
	"synctask-notifications/internal/common/logger"
	"synctask-notifications/internal/common/mail"
	"synctask-notifications/internal/common/observability"
	"synctask-notifications/internal/records"
)

const (
	StatusSent    = "sent"
	StatusSkipped = "skipped"
)

type Output struct {
	Status    string `json:"status"`
	Reason    string `json:"reason,omitempty"`
	Recipient string `json:"recipient,omitempty"`
	MessageID string `json:"messageId,omitempty"`
}

type HandlerOptions struct {
	CustomConfig  *Config
	Mailer        mail.Sender
	Users         records.UserLookup
	Observability *observability.Observability
	Logger        logger.Logger
}
