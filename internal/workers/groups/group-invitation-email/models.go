package groupinvitationemail

import (
	"synctask-notifications/internal/common/logger"
	"synctask-notifications/internal/common/mail"
	"synctask-notifications/internal/common/observability"
)

type Input struct {
	InviteeEmail    string `json:"inviteeEmail"`
	InviteeUsername string `json:"inviteeUsername,omitempty"`
	InviterUsername string `json:"inviterUsername"`
	GroupName       string `json:"groupName"`
}

type HandlerOptions struct {
	CustomConfig  *Config
	Mailer        mail.Sender
	Observability *observability.Observability
	Logger        logger.Logger
}
