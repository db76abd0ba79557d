// internal/workers/workflow/perform-stage-transition/config.go
package performstagetransition

import "time"

type Config struct {
	Timeout time.Duration
}

func LoadConfig() *Config {
	return &Config{
		Timeout: 15 * time.Second,
	}
}
