package groupinvitationemail

import (
	"fmt"
	"time"
)

// FunctionName is the callable's route name.
const FunctionName = "sendGroupInvitationEmail"

const SuccessMessage = "Group invitation email sent successfully"

type Config struct {
	Enabled bool          `mapstructure:"enabled"`
	Timeout time.Duration `mapstructure:"timeout"`
}

func DefaultConfig() *Config {
	return &Config{
		Enabled: true,
		Timeout: 60 * time.Second,
	}
}

func (c *Config) Validate() error {
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive")
	}
	return nil
}
