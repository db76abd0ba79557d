// internal/workers/compliance/evaluate-compliance/config.go
package evaluatecompliance

import "time"

type Config struct {
	Timeout time.Duration
	// DedupPrefix namespaces compliance alert keys in the deduplicator.
	DedupPrefix string
}

func LoadConfig() *Config {
	return &Config{
		Timeout:     20 * time.Second,
		DedupPrefix: "compliance:",
	}
}
