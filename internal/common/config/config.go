// internal/common/config/config.go
package config

import (
	"fmt"
	"time"
)

// Config is the main application configuration struct.
type Config struct {
	App      AppConfig               `mapstructure:"app"`
	Camunda  CamundaConfig           `mapstructure:"camunda"`
	Database DatabaseConfig          `mapstructure:"database"`
	Triggers TriggersConfig          `mapstructure:"triggers"`
	Workers  map[string]WorkerConfig `mapstructure:"workers"`
	Mail     MailConfig              `mapstructure:"mail"`
	Auth     AuthConfig              `mapstructure:"auth"`
	Server   ServerConfig            `mapstructure:"server"`
	Logging  LoggingConfig           `mapstructure:"logging"`
}

// --- Core App/Infrastructure Config ---
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

type CamundaConfig struct {
	BrokerAddress  string `mapstructure:"broker_address"`
	MaxJobsActive  int    `mapstructure:"max_jobs_active"`
	Timeout        int    `mapstructure:"timeout"`         // milliseconds
	RequestTimeout int    `mapstructure:"request_timeout"` // milliseconds
}

type DatabaseConfig struct {
	Postgres PostgresConfig `mapstructure:"postgres"`
	Redis    RedisConfig    `mapstructure:"redis"`
}

type PostgresConfig struct {
	Host           string `mapstructure:"host"`
	Port           int    `mapstructure:"port"`
	Database       string `mapstructure:"database"`
	User           string `mapstructure:"user"`
	Password       string `mapstructure:"password"`
	MaxConnections int    `mapstructure:"max_connections"`
	MaxIdle        int    `mapstructure:"max_idle"`
	SSLMode        string `mapstructure:"sslmode"`
}

// GetDSN returns the PostgreSQL connection string
func (p PostgresConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode,
	)
}

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// Trigger sources.
const (
	TriggerSourceZeebe    = "zeebe"
	TriggerSourcePostgres = "postgres"
	TriggerSourceBoth     = "both"
)

// TriggersConfig selects where record-change events come from.
type TriggersConfig struct {
	Source               string `mapstructure:"source"`
	Channel              string `mapstructure:"channel"`
	MinReconnectInterval int    `mapstructure:"min_reconnect_interval"` // milliseconds
	MaxReconnectInterval int    `mapstructure:"max_reconnect_interval"` // milliseconds
}

// UsesZeebe reports whether change events arrive as Zeebe jobs.
func (t TriggersConfig) UsesZeebe() bool {
	return t.Source == TriggerSourceZeebe || t.Source == TriggerSourceBoth
}

// UsesPostgres reports whether change events arrive via LISTEN/NOTIFY.
func (t TriggersConfig) UsesPostgres() bool {
	return t.Source == TriggerSourcePostgres || t.Source == TriggerSourceBoth
}

// WorkerConfig holds the core settings applicable to every worker.
type WorkerConfig struct {
	Enabled       bool `mapstructure:"enabled"`
	MaxJobsActive int  `mapstructure:"max_jobs_active"`
	Timeout       int  `mapstructure:"timeout"` // milliseconds
}

// Mail providers.
const (
	MailProviderSMTP = "smtp"
	MailProviderSES  = "ses"
)

// MailConfig holds the single sender identity and transport used for every send.
type MailConfig struct {
	Provider    string `mapstructure:"provider"`
	FromAddress string `mapstructure:"from_address"`
	FromName    string `mapstructure:"from_name"`
	Timeout     int    `mapstructure:"timeout"` // milliseconds

	SMTP struct {
		Host     string `mapstructure:"host"`
		Port     int    `mapstructure:"port"`
		Username string `mapstructure:"username"`
		Password string `mapstructure:"password"`
	} `mapstructure:"smtp"`

	SES struct {
		Region string `mapstructure:"region"`
	} `mapstructure:"ses"`
}

// AuthConfig holds settings for verifying callable clients.
type AuthConfig struct {
	JWTSecret       string `mapstructure:"jwt_secret"`
	Issuer          string `mapstructure:"issuer"`
	RevocationCheck bool   `mapstructure:"revocation_check"`
}

// ServerConfig holds listen addresses for the callable API and the ops endpoints.
type ServerConfig struct {
	Address        string `mapstructure:"address"`
	MetricsAddress string `mapstructure:"metrics_address"`
	RequestTimeout int    `mapstructure:"request_timeout"` // milliseconds
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}

// GetDuration converts milliseconds from config to time.Duration
func GetDuration(milliseconds int) time.Duration {
	return time.Duration(milliseconds) * time.Millisecond
}
