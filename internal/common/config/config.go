// internal/common/config/config.go
package config

import (
	"fmt"
	"time"

	"recruitment-workers/internal/compliance"
	"recruitment-workers/internal/models"
	"recruitment-workers/internal/tasks"
)

// Config is the main application configuration struct.
type Config struct {
	App           AppConfig               `mapstructure:"app"`
	Camunda       CamundaConfig           `mapstructure:"camunda"`
	Database      DatabaseConfig          `mapstructure:"database"`
	Workers       map[string]WorkerConfig `mapstructure:"workers"`
	Logging       LoggingConfig           `mapstructure:"logging"`
	Tracing       TracingConfig           `mapstructure:"tracing"`
	Notifications NotificationConfig      `mapstructure:"notifications"`
	Compliance    ComplianceConfig        `mapstructure:"compliance"`
	Workflow      WorkflowConfig          `mapstructure:"workflow"`
	Tasks         tasks.Config            `mapstructure:"tasks"`
	HTTP          HTTPConfig              `mapstructure:"http"`
	Registry      RegistryConfig          `mapstructure:"registry"`
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
	Postgres      PostgresConfig      `mapstructure:"postgres"`
	Elasticsearch ElasticsearchConfig `mapstructure:"elasticsearch"`
	Redis         RedisConfig         `mapstructure:"redis"`
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

type ElasticsearchConfig struct {
	Addresses      []string `mapstructure:"addresses"`
	Username       string   `mapstructure:"username"`
	Password       string   `mapstructure:"password"`
	SSLEnabled     bool     `mapstructure:"ssl_enabled"`
	URL            string   `mapstructure:"url"`
	WorkQueueIndex string   `mapstructure:"work_queue_index"`
}

// GetURL returns the first address or the URL field
func (e ElasticsearchConfig) GetURL() string {
	if e.URL != "" {
		return e.URL
	}
	if len(e.Addresses) > 0 {
		return e.Addresses[0]
	}
	return ""
}

// GetAddresses returns every configured node, including URL when set alone.
func (e ElasticsearchConfig) GetAddresses() []string {
	if len(e.Addresses) > 0 {
		return e.Addresses
	}
	if e.URL != "" {
		return []string{e.URL}
	}
	return nil
}

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// WorkerConfig holds the core settings applicable to every worker.
type WorkerConfig struct {
	Enabled       bool `mapstructure:"enabled"`
	MaxJobsActive int  `mapstructure:"max_jobs_active"`
	Timeout       int  `mapstructure:"timeout"` // milliseconds
	MaxRetries    int  `mapstructure:"max_retries"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}

// TracingConfig exports job spans over OTLP/HTTP. Disabled means spans are
// created but never leave the process.
type TracingConfig struct {
	Enabled     bool    `mapstructure:"enabled"`
	Endpoint    string  `mapstructure:"endpoint"` // host:port of the OTLP/HTTP collector
	Insecure    bool    `mapstructure:"insecure"`
	SampleRatio float64 `mapstructure:"sample_ratio"`
}

// NotificationConfig drives compliance and system alert delivery over SES and SNS.
type NotificationConfig struct {
	Enabled bool `mapstructure:"enabled"`
	AWS     struct {
		Region string `mapstructure:"region"`
	} `mapstructure:"aws"`
	Email struct {
		Enabled    bool     `mapstructure:"enabled"`
		FromEmail  string   `mapstructure:"from_email"`
		Recipients []string `mapstructure:"recipients"`
	} `mapstructure:"email"`
	SMS struct {
		Enabled  bool   `mapstructure:"enabled"`
		TopicARN string `mapstructure:"topic_arn"`
		SenderID string `mapstructure:"sender_id"`
	} `mapstructure:"sms"`
	DedupTTLHours int `mapstructure:"dedup_ttl_hours"`
}

// DedupTTL is how long an alert key suppresses re-delivery.
func (n NotificationConfig) DedupTTL() time.Duration {
	return time.Duration(n.DedupTTLHours) * time.Hour
}

// ComplianceConfig carries the evaluator thresholds and the country rules file.
type ComplianceConfig struct {
	compliance.Config `mapstructure:",squash"`
	RulesFile         string `mapstructure:"rules_file"`
}

// WorkflowConfig tunes the stage engine.
type WorkflowConfig struct {
	SLAOverrides  map[string]int `mapstructure:"sla_overrides"`
	ElevatedRoles []string       `mapstructure:"elevated_roles"`
	LockTTL       int            `mapstructure:"lock_ttl"` // milliseconds
}

// Roles returns ElevatedRoles as normalized model roles, dropping blanks.
func (w WorkflowConfig) Roles() []models.Role {
	out := make([]models.Role, 0, len(w.ElevatedRoles))
	for _, r := range w.ElevatedRoles {
		if role := models.Role(r).Normalize(); role != "" {
			out = append(out, role)
		}
	}
	return out
}

type HTTPConfig struct {
	Port            int `mapstructure:"port"`
	ReadTimeout     int `mapstructure:"read_timeout"`     // milliseconds
	ShutdownTimeout int `mapstructure:"shutdown_timeout"` // milliseconds
}

// RegistryConfig points at the activity registry used to validate job payloads.
type RegistryConfig struct {
	Path           string `mapstructure:"path"`
	ValidateInputs bool   `mapstructure:"validate_inputs"`
}
