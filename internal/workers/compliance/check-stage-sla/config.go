// internal/workers/compliance/check-stage-sla/config.go
package checkstagesla

import "time"

type Config struct {
	Timeout time.Duration
}

func LoadConfig() *Config {
	return &Config{
		Timeout: 10 * time.Second,
	}
}
