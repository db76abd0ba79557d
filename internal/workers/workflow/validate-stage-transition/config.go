// internal/workers/workflow/validate-stage-transition/config.go
package validatestagetransition

import "time"

type Config struct {
	Timeout time.Duration
}

func LoadConfig() *Config {
	return &Config{
		Timeout: 10 * time.Second,
	}
}
