// Package processor implements the payment-processor capability boundary
// (port.ProcessorClient) over the processor's REST API.
package processor

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/eventpay/connect-go/internal/domain"
	"github.com/eventpay/connect-go/internal/infra/resilience"

	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("processor")

// Client calls the processor REST API. All failures leave this package as
// *domain.DomainError; raw upstream errors never escape.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	cb         *gobreaker.CircuitBreaker
	bulkhead   *resilience.Bulkhead
	cfg        resilience.Config
	logger     *zap.Logger
}

// NewClient creates a processor client.
func NewClient(httpClient *http.Client, baseURL, apiKey string, cb *gobreaker.CircuitBreaker, cfg resilience.Config, logger *zap.Logger) *Client {
	return &Client{
		httpClient: httpClient,
		baseURL:    baseURL,
		apiKey:     apiKey,
		cb:         cb,
		bulkhead:   resilience.NewBulkhead(cfg.MaxConcurrency),
		cfg:        cfg,
		logger:     logger,
	}
}

// get performs an idempotent read. Reads are retried with backoff; the
// circuit breaker sees every attempt.
func (c *Client) get(ctx context.Context, path, accountID string, target any) error {
	var lastDomainErr *domain.DomainError
	err := resilience.RetryWithBackoff(ctx, c.cfg, func() error {
		de := c.do(ctx, http.MethodGet, path, accountID, nil, "", target)
		if de != nil {
			lastDomainErr = de
			if !de.Retryable() {
				// Permanent failure: stop the retry loop, lastDomainErr
				// carries the outcome.
				return nil
			}
			return de
		}
		lastDomainErr = nil
		return nil
	})
	if lastDomainErr != nil {
		return lastDomainErr
	}
	if err != nil {
		return c.translateTransport(err)
	}
	return nil
}

// post performs a mutating call. Never retried internally: blind retry of a
// transfer or card creation risks duplicate side effects. The idempotency
// key lets the processor recognize a caller-level retry as the same intent.
func (c *Client) post(ctx context.Context, path, accountID string, body any, idempotencyKey string, target any) error {
	if de := c.do(ctx, http.MethodPost, path, accountID, body, idempotencyKey, target); de != nil {
		return de
	}
	return nil
}

// do executes one HTTP round trip through the bulkhead and circuit breaker.
func (c *Client) do(ctx context.Context, method, path, accountID string, body any, idempotencyKey string, target any) *domain.DomainError {
	ctx, span := tracer.Start(ctx, fmt.Sprintf("processor.%s %s", method, path))
	defer span.End()
	span.SetAttributes(attribute.String("processor.account_id", accountID))

	if err := c.bulkhead.Acquire(ctx); err != nil {
		return c.translateTransport(err)
	}
	defer c.bulkhead.Release()

	// 4xx outcomes are caller mistakes, not upstream failures; keep them
	// out of the breaker's failure counts.
	var permanent *domain.DomainError
	_, err := c.cb.Execute(func() (any, error) {
		rtErr := c.roundTrip(ctx, method, path, accountID, body, idempotencyKey, target)
		if rtErr == nil {
			return nil, nil
		}
		if de, ok := domain.AsDomainError(rtErr); ok && !de.Retryable() {
			permanent = de
			return nil, nil
		}
		return nil, rtErr
	})

	if permanent != nil {
		return permanent
	}
	if err == nil {
		return nil
	}
	if de, ok := domain.AsDomainError(err); ok {
		return de
	}
	return c.translateTransport(err)
}

// roundTrip builds, sends and decodes a single request.
func (c *Client) roundTrip(ctx context.Context, method, path, accountID string, body any, idempotencyKey string, target any) error {
	var reqBody io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request body: %w", err)
		}
		reqBody = bytes.NewReader(payload)
	}

	url := c.baseURL + path
	req, err := http.NewRequestWithContext(ctx, method, url, reqBody)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if accountID != "" {
		req.Header.Set("Processor-Account", accountID)
	}
	if idempotencyKey != "" {
		req.Header.Set("Idempotency-Key", idempotencyKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var envelope errorEnvelope
		if err := json.Unmarshal(respBody, &envelope); err != nil {
			c.logger.Error("processor: undecodable error body",
				zap.String("method", method),
				zap.String("path", path),
				zap.Int("status", resp.StatusCode),
				zap.String("body", string(respBody)),
			)
			if resp.StatusCode >= 500 {
				return domain.ErrTransient("upstream_unavailable", "processor temporarily unavailable")
			}
			if resp.StatusCode == http.StatusNotFound {
				return domain.ErrNotFound("processor resource")
			}
			return domain.ErrUnknown()
		}
		c.logger.Warn("processor: non-2xx response",
			zap.String("method", method),
			zap.String("path", path),
			zap.Int("status", resp.StatusCode),
			zap.String("code", envelope.Error.Code),
		)
		return c.translate(resp.StatusCode, &envelope.Error)
	}

	if target != nil {
		if err := json.Unmarshal(respBody, target); err != nil {
			return fmt.Errorf("unmarshal response body: %w", err)
		}
	}

	c.logger.Debug("processor: request OK",
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
	)
	return nil
}
