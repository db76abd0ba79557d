// internal/workers/operations/generate-system-alerts/config.go
package generatesystemalerts

import "time"

type Config struct {
	Timeout       time.Duration
	MaxCandidates int
	DedupPrefix   string
}

func LoadConfig() *Config {
	return &Config{
		Timeout:       60 * time.Second,
		MaxCandidates: 5000,
		DedupPrefix:   "system:",
	}
}
