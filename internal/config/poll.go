package config

import "time"

// PollConfig bounds how long a turn waits for a run to reach a terminal status
type PollConfig struct {
	Interval    time.Duration
	MaxInterval time.Duration
	Timeout     time.Duration
	MaxAttempts int // 0 means only Timeout applies
}

func GetPollConfig() PollConfig {
	cfg := PollConfig{
		Interval:    parseEnvDuration("POLL_INTERVAL", time.Second),
		MaxInterval: parseEnvDuration("POLL_MAX_INTERVAL", 8*time.Second),
		Timeout:     parseEnvDuration("POLL_TIMEOUT", 5*time.Minute),
		MaxAttempts: parseEnvInt("POLL_MAX_ATTEMPTS", 0),
	}

	if cfg.Interval <= 0 {
		cfg.Interval = time.Second
	}
	if cfg.MaxInterval < cfg.Interval {
		cfg.MaxInterval = cfg.Interval
	}
	if cfg.MaxAttempts < 0 {
		cfg.MaxAttempts = 0
	}

	return cfg
}
