package config

import (
	"fmt"
	"strings"
	"time"

	"merchant-onboarding/internal/models"
	"merchant-onboarding/internal/policy"
)

// Config is the main application configuration struct.
type Config struct {
	App           AppConfig               `mapstructure:"app"`
	Camunda       CamundaConfig           `mapstructure:"camunda"`
	Database      DatabaseConfig          `mapstructure:"database"`
	Workers       map[string]WorkerConfig `mapstructure:"workers"`
	Policy        PolicyConfig            `mapstructure:"policy"`
	Ledger        LedgerConfig            `mapstructure:"ledger"`
	Verifier      VerifierConfig          `mapstructure:"verifier"`
	Logging       LoggingConfig           `mapstructure:"logging"`
	Notifications NotificationConfig      `mapstructure:"notifications"`
}

type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
	HTTPPort    int    `mapstructure:"http_port"`
}

type CamundaConfig struct {
	BrokerAddress  string `mapstructure:"broker_address"`
	MaxJobsActive  int    `mapstructure:"max_jobs_active"`
	Timeout        int    `mapstructure:"timeout"`         // milliseconds
	RequestTimeout int    `mapstructure:"request_timeout"` // milliseconds
	UsePlaintext   bool   `mapstructure:"use_plaintext"`
}

type DatabaseConfig struct {
	Postgres PostgresConfig `mapstructure:"postgres"`
	Redis    RedisConfig    `mapstructure:"redis"`
}

type PostgresConfig struct {
	Host           string `mapstructure:"host"`
	Port           int    `mapstructure:"port"`
	Database       string `mapstructure:"database"`
	User           string `mapstructure:"user"`
	Password       string `mapstructure:"password"`
	MaxConnections int    `mapstructure:"max_connections"`
	MaxIdle        int    `mapstructure:"max_idle"`
	SSLMode        string `mapstructure:"sslmode"`
}

// GetDSN returns the PostgreSQL connection string
func (p PostgresConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode,
	)
}

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// WorkerConfig holds the core settings applicable to every worker.
type WorkerConfig struct {
	Enabled       bool `mapstructure:"enabled"`
	MaxJobsActive int  `mapstructure:"max_jobs_active"`
	Timeout       int  `mapstructure:"timeout"`     // milliseconds
	MaxRetries    int  `mapstructure:"max_retries"` // For error handling
}

// PolicyConfig is the raw compliance gate configuration. Convert it once
// with ToPolicy; the result is never mutated afterwards.
type PolicyConfig struct {
	MinimumAge                  int      `mapstructure:"minimum_age"`
	ExcludedCountries           []string `mapstructure:"excluded_countries"`
	EnforceNationalityExclusion bool     `mapstructure:"enforce_nationality_exclusion"`
	AcceptedAttestationKinds    []string `mapstructure:"accepted_attestation_kinds"`
}

// ToPolicy builds the immutable compliance policy.
func (p PolicyConfig) ToPolicy() (policy.Policy, error) {
	kinds := make([]models.AttestationKind, 0, len(p.AcceptedAttestationKinds))
	for _, raw := range p.AcceptedAttestationKinds {
		kind, err := models.ParseAttestationKind(raw)
		if err != nil {
			return policy.Policy{}, fmt.Errorf("policy.accepted_attestation_kinds: %w", err)
		}
		kinds = append(kinds, kind)
	}

	countries := make([]string, 0, len(p.ExcludedCountries))
	for _, c := range p.ExcludedCountries {
		countries = append(countries, strings.ToUpper(strings.TrimSpace(c)))
	}

	return policy.New(policy.Options{
		MinimumAge:                  p.MinimumAge,
		ExcludedCountries:           countries,
		EnforceNationalityExclusion: p.EnforceNationalityExclusion,
		AcceptedKinds:               kinds,
	})
}

// LedgerConfig configures the commit gateway and the bounded retry around it.
type LedgerConfig struct {
	Driver         string `mapstructure:"driver"` // memory | postgres
	CommitTimeout  int    `mapstructure:"commit_timeout"`
	MaxRetries     int    `mapstructure:"max_retries"`
	RetryDelay     int    `mapstructure:"retry_delay"`
	StatusCacheTTL int    `mapstructure:"status_cache_ttl"`
	Table          string `mapstructure:"table"`
}

func (l LedgerConfig) CommitTimeoutDuration() time.Duration { return GetDuration(l.CommitTimeout) }
func (l LedgerConfig) RetryDelayDuration() time.Duration    { return GetDuration(l.RetryDelay) }
func (l LedgerConfig) StatusCacheTTLDuration() time.Duration {
	return GetDuration(l.StatusCacheTTL)
}

// VerifierConfig points at the external identity verification service.
type VerifierConfig struct {
	Endpoint string `mapstructure:"endpoint"`
	AppName  string `mapstructure:"app_name"`
	Scope    string `mapstructure:"scope"`
	Timeout  int    `mapstructure:"timeout"` // milliseconds
}

// NotificationConfig holds settings for commit notifications.
type NotificationConfig struct {
	SNS struct {
		Enabled  bool   `mapstructure:"enabled"`
		Region   string `mapstructure:"region"`
		TopicARN string `mapstructure:"topic_arn"`
	} `mapstructure:"sns"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}
