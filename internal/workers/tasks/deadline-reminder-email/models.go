package deadlinereminderemail

import (
	"synctask-notifications/internal/common/logger"
	"synctask-notifications/internal/common/mail"
	"synctask-notifications/internal/common/observability"
)

// Input is the reminder payload. GroupName is empty for personal tasks.
type Input struct {
	UserEmail string `json:"userEmail"`
	Username  string `json:"username"`
	TaskText  string `json:"taskText"`
	Deadline  string `json:"deadline"`
	GroupName string `json:"groupName,omitempty"`
}

type HandlerOptions struct {
	CustomConfig  *Config
	Mailer        mail.Sender
	Observability *observability.Observability
	Logger        logger.Logger
}
