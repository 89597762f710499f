package submitmerchantonboarding

import "time"

type Config struct {
	// Timeout bounds the whole submission including ledger retries.
	Timeout time.Duration
	// NotifyTimeout bounds the best-effort committed event publish.
	NotifyTimeout time.Duration
}

func DefaultConfig() *Config {
	return &Config{
		Timeout:       60 * time.Second,
		NotifyTimeout: 5 * time.Second,
	}
}
