// cmd/worker-manager/main.go
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"merchant-onboarding/internal/assessmentkey"
	awsclient "merchant-onboarding/internal/common/aws"
	"merchant-onboarding/internal/common/camunda"
	"merchant-onboarding/internal/common/config"
	"merchant-onboarding/internal/common/database"
	"merchant-onboarding/internal/common/logger"
	"merchant-onboarding/internal/common/observability"
	"merchant-onboarding/internal/common/retry"
	"merchant-onboarding/internal/common/validation"
	"merchant-onboarding/internal/ledger"
	"merchant-onboarding/internal/notify"
	"merchant-onboarding/internal/onboarding"
	"merchant-onboarding/internal/policy"
	"merchant-onboarding/internal/scoring"
	"merchant-onboarding/internal/verifier"

	ccs "merchant-onboarding/internal/workers/onboarding/check-commit-status"
	smo "merchant-onboarding/internal/workers/onboarding/submit-merchant-onboarding"
	vmi "merchant-onboarding/internal/workers/onboarding/verify-merchant-identity"
	crs "merchant-onboarding/internal/workers/risk/calculate-risk-score"
)

// connectWithRetry runs a connection check with exponential backoff.
func connectWithRetry(ctx context.Context, name string, maxRetries int, log logger.Logger, check func(context.Context) error) error {
	attempts, err := retry.Do(ctx, retry.Policy{
		MaxRetries:   maxRetries,
		InitialDelay: 2 * time.Second,
		MaxDelay:     30 * time.Second,
		OnRetry: func(attempt int, err error, delay time.Duration) {
			log.Warn(fmt.Sprintf("%s failed, retrying...", name), map[string]interface{}{
				"error":       err,
				"attempt":     attempt,
				"maxRetries":  maxRetries,
				"nextRetryIn": delay.String(),
			})
		},
	}, func(ctx context.Context, _ int) error {
		return check(ctx)
	})
	if err != nil {
		return fmt.Errorf("%s failed after %d attempts: %w", name, attempts, err)
	}
	return nil
}

type ledgerStack struct {
	gateway  ledger.Gateway
	postgres *database.PostgresClient
	redis    *database.RedisClient
}

func (s *ledgerStack) Close() {
	if s.redis != nil {
		_ = s.redis.Close()
	}
	if s.postgres != nil {
		_ = s.postgres.Close()
	}
}

func buildLedger(ctx context.Context, cfg *config.Config, log logger.Logger) (*ledgerStack, error) {
	stack := &ledgerStack{}

	switch cfg.Ledger.Driver {
	case "postgres":
		pg, err := database.NewPostgres(cfg.Database.Postgres)
		if err != nil {
			return nil, err
		}
		if err := connectWithRetry(ctx, "PostgreSQL connection", 14, log, pg.Ping); err != nil {
			_ = pg.Close()
			return nil, err
		}
		stack.postgres = pg

		gw := ledger.NewPostgresGateway(pg.DB, cfg.Ledger.Table, log)
		if err := gw.EnsureSchema(ctx); err != nil {
			stack.Close()
			return nil, err
		}
		stack.gateway = gw
		log.Info("PostgreSQL ledger ready", map[string]interface{}{"table": cfg.Ledger.Table})
	default:
		stack.gateway = ledger.NewMemoryGateway()
		log.Warn("using in-memory ledger, commits are lost on restart", nil)
	}

	if cfg.Database.Redis.Address == "" {
		return stack, nil
	}
	rc := database.NewRedis(cfg.Database.Redis)
	if err := connectWithRetry(ctx, "Redis connection", 4, log, rc.Ping); err != nil {
		log.Warn("ledger status cache disabled", map[string]interface{}{"error": err})
		_ = rc.Close()
		return stack, nil
	}
	stack.redis = rc
	stack.gateway = ledger.NewStatusCache(stack.gateway, rc.Client, cfg.Ledger.StatusCacheTTLDuration(), log)
	log.Info("ledger status cache enabled", map[string]interface{}{"ttl": cfg.Ledger.StatusCacheTTLDuration().String()})
	return stack, nil
}

func buildPublisher(ctx context.Context, cfg *config.Config, log logger.Logger) (notify.Publisher, error) {
	sns := cfg.Notifications.SNS
	if !sns.Enabled {
		return notify.NopPublisher{}, nil
	}
	client, err := awsclient.NewSNSClient(ctx, sns.Region)
	if err != nil {
		return nil, err
	}
	return notify.NewSNSPublisher(client, sns.TopicARN, log), nil
}

func main() {
	bootLog := logger.New("info", "console")

	cfg, err := config.Load()
	if err != nil {
		bootLog.Fatal("config load failed", zap.Error(err))
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog).WithFields(map[string]interface{}{
		"service": cfg.App.Name,
		"version": cfg.App.Version,
	})

	log.Info("Starting worker manager...", map[string]interface{}{"environment": cfg.App.Environment})

	obs, err := observability.New(cfg.App.Name)
	if err != nil {
		log.Warn("otel metrics disabled", map[string]interface{}{"error": err})
	}

	ctx, cancelStartup := context.WithCancel(context.Background())
	defer cancelStartup()

	// --- Policy (immutable for the process lifetime) ---
	pol, err := cfg.Policy.ToPolicy()
	if err != nil {
		zapLog.Fatal("invalid policy configuration", zap.Error(err))
	}
	log.Info("compliance policy loaded", map[string]interface{}{
		"minimumAge":        pol.MinimumAge(),
		"excludedCountries": pol.ExcludedCountries(),
		"enforceExclusion":  pol.EnforcesNationalityExclusion(),
	})

	// --- Ledger ---
	stack, err := buildLedger(ctx, cfg, log)
	if err != nil {
		zapLog.Fatal("ledger init failed", zap.Error(err))
	}
	defer stack.Close()

	// --- Pipeline ---
	profiles, err := validation.NewProfileValidator()
	if err != nil {
		zapLog.Fatal("profile schema failed to compile", zap.Error(err))
	}
	engine := scoring.NewEngine()

	orchestrator, err := onboarding.NewOrchestrator(
		onboarding.Config{
			MaxRetries:    cfg.Ledger.MaxRetries,
			CommitTimeout: cfg.Ledger.CommitTimeoutDuration(),
			RetryDelay:    cfg.Ledger.RetryDelayDuration(),
		},
		onboarding.Dependencies{
			Scorer:           engine,
			Validator:        policy.NewValidator(pol),
			Deriver:          assessmentkey.NewDeriver(),
			Gateway:          stack.gateway,
			ProfileValidator: profiles,
			Logger:           log,
		},
	)
	if err != nil {
		zapLog.Fatal("orchestrator init failed", zap.Error(err))
	}

	publisher, err := buildPublisher(ctx, cfg, log)
	if err != nil {
		zapLog.Fatal("sns publisher init failed", zap.Error(err))
	}

	identity := verifier.NewClient(verifier.Config{
		Endpoint: cfg.Verifier.Endpoint,
		AppName:  cfg.Verifier.AppName,
		Scope:    cfg.Verifier.Scope,
		Timeout:  config.GetDuration(cfg.Verifier.Timeout),
	}, nil, log)

	// --- Zeebe ---
	zc, err := camunda.Connect(ctx, cfg.Camunda, camunda.DefaultConnectOptions(), log)
	if err != nil {
		zapLog.Fatal("zeebe client failed after retries", zap.Error(err))
	}
	log.Info("Zeebe client connected successfully", map[string]interface{}{"broker": cfg.Camunda.BrokerAddress})

	workers := camunda.NewWorkers(zc.Zeebe(), log)

	if wcfg := config.GetWorkerConfig(cfg, vmi.TaskType); wcfg.Enabled {
		handler := vmi.NewHandler(&vmi.Config{Timeout: config.GetDuration(wcfg.Timeout)}, identity, obs, log)
		workers.Start(vmi.TaskType, wcfg, handler.Handle)
	}

	if wcfg := config.GetWorkerConfig(cfg, crs.TaskType); wcfg.Enabled {
		handler := crs.NewHandler(
			&crs.Config{Timeout: config.GetDuration(wcfg.Timeout), ValidateProfile: true},
			engine, profiles, obs, log,
		)
		workers.Start(crs.TaskType, wcfg, handler.Handle)
	}

	if wcfg := config.GetWorkerConfig(cfg, smo.TaskType); wcfg.Enabled {
		smoCfg := smo.DefaultConfig()
		smoCfg.Timeout = config.GetDuration(wcfg.Timeout)
		handler := smo.NewHandler(smoCfg, orchestrator, publisher, obs, log)
		workers.Start(smo.TaskType, wcfg, handler.Handle)
	}

	if wcfg := config.GetWorkerConfig(cfg, ccs.TaskType); wcfg.Enabled {
		handler := ccs.NewHandler(&ccs.Config{Timeout: config.GetDuration(wcfg.Timeout)}, orchestrator, obs, log)
		workers.Start(ccs.TaskType, wcfg, handler.Handle)
	}

	log.Info("workers registered", map[string]interface{}{"taskTypes": workers.TaskTypes()})

	// --- Health & Metrics Server ---
	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		writeStatus(w, http.StatusOK, "healthy", nil)
	})
	mux.HandleFunc("/ready", func(w http.ResponseWriter, r *http.Request) {
		checkCtx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
		defer cancel()

		checks := map[string]string{"zeebe": "ok"}
		status := http.StatusOK
		if err := zc.HealthCheck(checkCtx); err != nil {
			checks["zeebe"] = err.Error()
			status = http.StatusServiceUnavailable
		}
		if stack.postgres != nil {
			checks["postgres"] = "ok"
			if err := stack.postgres.Ping(checkCtx); err != nil {
				checks["postgres"] = err.Error()
				status = http.StatusServiceUnavailable
			}
		}

		label := "ready"
		if status != http.StatusOK {
			label = "not_ready"
		}
		writeStatus(w, status, label, checks)
	})
	mux.Handle("/metrics", promhttp.Handler())

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.App.HTTPPort),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		log.Info("Health/Metrics server listening", map[string]interface{}{"addr": server.Addr})
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("Health/Metrics server failed", map[string]interface{}{"error": err})
		}
	}()

	// --- Graceful Shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	log.Info("Shutdown signal received, stopping workers...", nil)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	workers.Close()
	if err := zc.Close(); err != nil {
		log.Error("Error closing Zeebe client", map[string]interface{}{"error": err})
	}
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("Error stopping Health/Metrics server", map[string]interface{}{"error": err})
	}
	if err := obs.Shutdown(shutdownCtx); err != nil {
		log.Error("Error shutting down meter provider", map[string]interface{}{"error": err})
	}

	log.Info("Worker manager stopped gracefully", nil)
}

func writeStatus(w http.ResponseWriter, code int, status string, checks map[string]string) {
	body := map[string]interface{}{
		"status": status,
		"time":   time.Now().Format(time.RFC3339),
	}
	if checks != nil {
		body["checks"] = checks
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(body)
}
