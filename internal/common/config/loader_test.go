// internal/common/config/loader_test.go
package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"recruitment-workers/internal/models"
)

// ==========================
// Test Helper Functions
// ==========================

const minimalConfig = `
camunda:
  broker_address: localhost:26500
database:
  postgres:
    host: localhost
    database: recruitment
    user: recruiter
  elasticsearch:
    addresses: [http://localhost:9200]
  redis:
    address: localhost:6379
workers:
  evaluate-compliance:
    enabled: true
compliance:
  pcc_max_age_days: 120
  rules_file: configs/country-rules.yaml
workflow:
  sla_overrides:
    Registered: 4
tasks:
  new_registration_window: 12h
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

// ==========================
// LoadFromFile Tests
// ==========================

func TestLoadFromFile_Defaults(t *testing.T) {
	cfg, err := LoadFromFile(writeConfig(t, minimalConfig))
	require.NoError(t, err)

	assert.Equal(t, "recruitment-workers", cfg.App.Name)
	assert.Equal(t, 10, cfg.Camunda.MaxJobsActive)
	assert.Equal(t, 5432, cfg.Database.Postgres.Port)
	assert.Equal(t, "disable", cfg.Database.Postgres.SSLMode)
	assert.Equal(t, "http://localhost:9200", cfg.Database.Elasticsearch.GetURL())
	assert.Equal(t, "recruitment-work-queue", cfg.Database.Elasticsearch.WorkQueueIndex)
	assert.Equal(t, 8080, cfg.HTTP.Port)
	assert.Equal(t, 24*time.Hour, cfg.Notifications.DedupTTL())
	assert.Equal(t, []models.Role{models.RoleAdmin}, cfg.Workflow.Roles())

	worker := cfg.Workers["evaluate-compliance"]
	assert.True(t, worker.Enabled)
	assert.Equal(t, 5, worker.MaxJobsActive)
	assert.Equal(t, 30000, worker.Timeout)
	assert.Equal(t, 3, worker.MaxRetries)

	assert.Equal(t, 120, cfg.Compliance.PCCMaxAgeDays)
	assert.Equal(t, "configs/country-rules.yaml", cfg.Compliance.RulesFile)
	assert.Equal(t, 4, cfg.Workflow.SLAOverrides["registered"])
	assert.Equal(t, 12*time.Hour, cfg.Tasks.NewRegistrationWindow)
}

func TestLoadFromFile_EnvExpansion(t *testing.T) {
	t.Setenv("TEST_BROKER", "zeebe:26500")
	t.Setenv("DB_PASSWORD", "s3cret")

	content := `
camunda:
  broker_address: ${TEST_BROKER}
database:
  postgres:
    host: db
    database: recruitment
    user: recruiter
  elasticsearch:
    url: http://es:9200
  redis:
    address: redis:6379
`
	cfg, err := LoadFromFile(writeConfig(t, content))
	require.NoError(t, err)
	assert.Equal(t, "zeebe:26500", cfg.Camunda.BrokerAddress)
	assert.Equal(t, "s3cret", cfg.Database.Postgres.Password)
	assert.Contains(t, cfg.Database.Postgres.GetDSN(), "dbname=recruitment")
	assert.Equal(t, []string{"http://es:9200"}, cfg.Database.Elasticsearch.GetAddresses())
}

func TestLoadFromFile_Validation(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{
			name:    "missing broker",
			content: "database: {postgres: {host: db, database: r, user: u}, elasticsearch: {url: x}, redis: {address: r}}",
			wantErr: "camunda.broker_address is required",
		},
		{
			name:    "missing postgres user",
			content: "camunda: {broker_address: z}\ndatabase: {postgres: {host: db, database: r}, elasticsearch: {url: x}, redis: {address: r}}",
			wantErr: "database.postgres.user is required",
		},
		{
			name:    "missing redis",
			content: "camunda: {broker_address: z}\ndatabase: {postgres: {host: db, database: r, user: u}, elasticsearch: {url: x}}",
			wantErr: "database.redis.address is required",
		},
		{
			name: "bad sender email",
			content: minimalConfig + `
notifications:
  enabled: true
  email:
    enabled: true
    from_email: not-an-email
    recipients: [ops@example.com]
`,
			wantErr: "from_email must be an email address",
		},
		{
			name: "sms without topic",
			content: minimalConfig + `
notifications:
  enabled: true
  sms:
    enabled: true
`,
			wantErr: "notifications.sms.topic_arn is required",
		},
		{
			name: "tracing without endpoint",
			content: minimalConfig + `
tracing:
  enabled: true
`,
			wantErr: "tracing.endpoint is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadFromFile(writeConfig(t, tt.content))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoadFromFile_Tracing(t *testing.T) {
	cfg, err := LoadFromFile(writeConfig(t, minimalConfig+`
tracing:
  enabled: true
  endpoint: otel-collector:4318
`))
	require.NoError(t, err)
	assert.True(t, cfg.Tracing.Enabled)
	assert.Equal(t, "otel-collector:4318", cfg.Tracing.Endpoint)
	assert.Equal(t, 1.0, cfg.Tracing.SampleRatio)

	cfg, err = LoadFromFile(writeConfig(t, minimalConfig))
	require.NoError(t, err)
	assert.False(t, cfg.Tracing.Enabled)
}

func TestLoadFromFile_MissingFile(t *testing.T) {
	_, err := LoadFromFile(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestWorkerConfigHelpers(t *testing.T) {
	cfg := &Config{Workers: map[string]WorkerConfig{
		"check-stage-sla": {Enabled: false, Timeout: 1000},
	}}

	assert.False(t, IsWorkerEnabled(cfg, "check-stage-sla"))
	assert.True(t, IsWorkerEnabled(cfg, "generate-work-queue"))
	assert.Equal(t, 30000, GetWorkerConfig(cfg, "generate-work-queue").Timeout)
	assert.Equal(t, time.Second, GetDuration(GetWorkerConfig(cfg, "check-stage-sla").Timeout))
}

func TestWorkflowConfig_Roles(t *testing.T) {
	w := WorkflowConfig{ElevatedRoles: []string{"Admin", " MANAGER ", ""}}
	assert.Equal(t, []models.Role{models.RoleAdmin, models.RoleManager}, w.Roles())
}
