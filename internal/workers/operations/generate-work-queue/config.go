// internal/workers/operations/generate-work-queue/config.go
package generateworkqueue

import "time"

type Config struct {
	Timeout time.Duration
	// MaxCandidates caps the scan when the job sets no limit.
	MaxCandidates int
}

func LoadConfig() *Config {
	return &Config{
		Timeout:       60 * time.Second,
		MaxCandidates: 5000,
	}
}
