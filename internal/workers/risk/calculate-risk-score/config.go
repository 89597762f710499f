package calculateriskscore

import "time"

type Config struct {
	Timeout time.Duration
	// ValidateProfile runs structural checks before scoring.
	ValidateProfile bool
}

func DefaultConfig() *Config {
	return &Config{
		Timeout:         5 * time.Second,
		ValidateProfile: true,
	}
}
