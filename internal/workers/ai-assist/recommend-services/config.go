// internal/workers/ai-assist/recommend-services/config.go
package recommendservices

import "time"

type Config struct {
	Timeout time.Duration
	// FallbackOnError answers from the keyword table when the primary
	// recommender fails.
	FallbackOnError bool
}

func LoadConfig() *Config {
	return &Config{
		Timeout:         10 * time.Second,
		FallbackOnError: true,
	}
}
