package camunda

import (
	"context"
	"fmt"
	"strings"
	"time"

	"merchant-onboarding/internal/common/config"
	"merchant-onboarding/internal/common/logger"
	"merchant-onboarding/internal/common/retry"

	"github.com/camunda/zeebe/clients/go/v8/pkg/zbc"
)

// Client wraps the Zeebe gRPC client.
type Client struct {
	client         zbc.Client
	requestTimeout time.Duration
}

type ConnectOptions struct {
	MaxRetries   int
	InitialDelay time.Duration
}

func DefaultConnectOptions() ConnectOptions {
	return ConnectOptions{MaxRetries: 10, InitialDelay: 2 * time.Second}
}

// Connect dials the broker and waits until it answers a topology request,
// retrying transient failures.
func Connect(ctx context.Context, cfg config.CamundaConfig, opts ConnectOptions, log logger.Logger) (*Client, error) {
	requestTimeout := time.Duration(cfg.RequestTimeout) * time.Millisecond
	if requestTimeout <= 0 {
		requestTimeout = 30 * time.Second
	}

	var zeebeClient zbc.Client
	policy := retry.Policy{
		MaxRetries:   opts.MaxRetries,
		InitialDelay: opts.InitialDelay,
		MaxDelay:     30 * time.Second,
		Retryable:    isRetryableZeebeError,
		OnRetry: func(attempt int, err error, delay time.Duration) {
			log.Warn("zeebe connection failed, retrying", map[string]interface{}{
				"broker":      cfg.BrokerAddress,
				"attempt":     attempt,
				"nextRetryIn": delay.String(),
				"error":       err,
			})
		},
	}

	attempts, err := retry.Do(ctx, policy, func(ctx context.Context, _ int) error {
		c, err := zbc.NewClient(&zbc.ClientConfig{
			GatewayAddress:         cfg.BrokerAddress,
			UsePlaintextConnection: cfg.UsePlaintext,
		})
		if err != nil {
			return err
		}

		topoCtx, cancel := context.WithTimeout(ctx, requestTimeout)
		defer cancel()
		if _, err := c.NewTopologyCommand().Send(topoCtx); err != nil {
			_ = c.Close()
			return err
		}
		zeebeClient = c
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("connect to zeebe broker at %s after %d attempt(s): %w", cfg.BrokerAddress, attempts, err)
	}

	return &Client{client: zeebeClient, requestTimeout: requestTimeout}, nil
}

func (c *Client) Zeebe() zbc.Client {
	return c.client
}

func (c *Client) Close() error {
	return c.client.Close()
}

// HealthCheck asks the broker for its topology.
func (c *Client) HealthCheck(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, c.requestTimeout)
	defer cancel()

	if _, err := c.client.NewTopologyCommand().Send(ctx); err != nil {
		return fmt.Errorf("zeebe health check failed: %w", err)
	}
	return nil
}

func isRetryableZeebeError(err error) bool {
	msg := strings.ToLower(err.Error())
	retryablePhrases := []string{
		"connection refused",
		"connection reset",
		"timeout",
		"deadline exceeded",
		"unavailable",
		"unreachable",
		"broken pipe",
	}
	for _, phrase := range retryablePhrases {
		if strings.Contains(msg, phrase) {
			return true
		}
	}
	return false
}
