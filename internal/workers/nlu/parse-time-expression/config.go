// internal/workers/nlu/parse-time-expression/config.go
package parsetimeexpression

import "time"

type Config struct {
	Timeout time.Duration
}

func LoadConfig() *Config {
	return &Config{
		Timeout: 10 * time.Second,
	}
}
