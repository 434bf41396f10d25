// internal/workers/stations/rank-stations/config.go
package rankstations

import "time"

type Config struct {
	Timeout  time.Duration
	MaxItems int // 0 keeps every ranked station
}

func LoadConfig() *Config {
	return &Config{
		Timeout: 10 * time.Second,
	}
}
