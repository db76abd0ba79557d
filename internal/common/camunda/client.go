// internal/common/camunda/client.go
package camunda

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/pb"
	"github.com/camunda/zeebe/clients/go/v8/pkg/zbc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"recruitment-workers/internal/common/errors"
)

// Client owns the gateway connection used by the worker pool and the
// readiness check.
type Client struct {
	zb     zbc.Client
	config *ClientConfig
}

type ClientConfig struct {
	GatewayAddress         string
	UsePlaintextConnection bool
	ConnectionTimeout      time.Duration
	RequestTimeout         time.Duration
	RetryConfig            *RetryConfig
}

// RetryConfig bounds the backoff applied to transient gateway errors.
type RetryConfig struct {
	MaxRetries int
	BaseDelay  time.Duration
	MaxDelay   time.Duration
}

func defaultRetryConfig() *RetryConfig {
	return &RetryConfig{MaxRetries: 3, BaseDelay: time.Second, MaxDelay: 10 * time.Second}
}

// NewClientWithConfig dials the gateway and fails unless it answers a
// topology request within ConnectionTimeout.
func NewClientWithConfig(config *ClientConfig) (*Client, error) {
	if config.RetryConfig == nil {
		config.RetryConfig = defaultRetryConfig()
	}
	if config.ConnectionTimeout <= 0 {
		config.ConnectionTimeout = 10 * time.Second
	}

	zb, err := zbc.NewClient(&zbc.ClientConfig{
		GatewayAddress:         config.GatewayAddress,
		UsePlaintextConnection: config.UsePlaintextConnection,
	})
	if err != nil {
		return nil, fmt.Errorf("create zeebe client: %w", err)
	}

	c := &Client{zb: zb, config: config}
	ctx, cancel := context.WithTimeout(context.Background(), config.ConnectionTimeout)
	defer cancel()
	if _, err := zb.NewTopologyCommand().Send(ctx); err != nil {
		zb.Close()
		return nil, fmt.Errorf("zeebe gateway %s unreachable: %w", config.GatewayAddress, err)
	}
	return c, nil
}

func (c *Client) GetClient() zbc.Client {
	return c.zb
}

func (c *Client) Close() error {
	return c.zb.Close()
}

// Topology asks the gateway for its cluster view, retrying transient failures.
func (c *Client) Topology(ctx context.Context) (*pb.TopologyResponse, error) {
	return withRetry(ctx, c.config.RetryConfig, "topology", func(ctx context.Context) (*pb.TopologyResponse, error) {
		return c.zb.NewTopologyCommand().Send(ctx)
	})
}

// HealthCheck reports the gateway ready when it lists at least one broker.
func (c *Client) HealthCheck(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, c.config.ConnectionTimeout)
	defer cancel()

	topology, err := c.Topology(ctx)
	if err != nil {
		return err
	}
	if len(topology.GetBrokers()) == 0 {
		return errors.NewBrokerUnavailableError(fmt.Errorf("gateway %s reports no brokers", c.config.GatewayAddress))
	}
	return nil
}

// withRetry runs fn with exponential backoff while it fails transiently.
// The final error is a StandardError so callers classify it like job errors.
func withRetry[T any](ctx context.Context, cfg *RetryConfig, operation string, fn func(context.Context) (T, error)) (T, error) {
	var zero T
	for attempt := 0; ; attempt++ {
		result, err := fn(ctx)
		if err == nil {
			return result, nil
		}
		if !isRetryableZeebeError(err) || attempt >= cfg.MaxRetries {
			return zero, mapZeebeError(err, operation, attempt)
		}

		delay := cfg.BaseDelay * time.Duration(1<<attempt)
		if delay > cfg.MaxDelay {
			delay = cfg.MaxDelay
		}
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return zero, fmt.Errorf("zeebe %s cancelled after %d attempts: %w", operation, attempt+1, ctx.Err())
		}
	}
}

var transientPhrases = []string{
	"connection refused",
	"connection reset",
	"timeout",
	"deadline exceeded",
	"unavailable",
	"unreachable",
	"broken pipe",
}

// isRetryableZeebeError trusts the gRPC status code when there is one and
// falls back to matching transport error text.
func isRetryableZeebeError(err error) bool {
	if s, ok := status.FromError(err); ok && s.Code() != codes.Unknown {
		switch s.Code() {
		case codes.Unavailable, codes.DeadlineExceeded, codes.ResourceExhausted, codes.Aborted:
			return true
		default:
			return false
		}
	}
	msg := strings.ToLower(err.Error())
	for _, phrase := range transientPhrases {
		if strings.Contains(msg, phrase) {
			return true
		}
	}
	return false
}

func mapZeebeError(err error, operation string, attempt int) error {
	desc := fmt.Sprintf("zeebe %s failed", operation)
	if attempt > 0 {
		desc += fmt.Sprintf(" after %d attempts", attempt)
	}
	wrapped := fmt.Errorf("%s: %w", desc, err)

	if status.Code(err) == codes.DeadlineExceeded || strings.Contains(strings.ToLower(err.Error()), "deadline exceeded") {
		timeout := errors.NewQueryTimeoutError("zeebe:" + operation)
		timeout.Details = wrapped.Error()
		return timeout
	}
	return errors.NewBrokerUnavailableError(wrapped)
}
