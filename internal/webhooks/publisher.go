// Package webhooks posts finished benchmark results to an HTTP endpoint,
// signed with a shared secret and retried with exponential backoff.
package webhooks

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"vrpsearch/internal/store"
)

const EventBenchmarkCompleted = "benchmark.completed"

var ErrDeliveryFailed = errors.New("webhook delivery failed")

// Publisher is a store.Writer that forwards every result to URL. Delivery
// failures are logged and never fail the benchmark.
type Publisher struct {
	URL         string
	Secret      string
	HTTP        *http.Client
	MaxAttempts int
	// Backoff gives the wait before retry n (n starts at 0). Nil means
	// 1s, 2s, 4s and so on, capped at one minute.
	Backoff func(attempt int) time.Duration
	Logger  log.FieldLogger
}

var _ store.Writer = (*Publisher)(nil)

// NewPublisherFromEnv returns nil when WEBHOOK_URL is unset.
func NewPublisherFromEnv(l log.FieldLogger) *Publisher {
	url := os.Getenv("WEBHOOK_URL")
	if url == "" {
		return nil
	}
	max := 5
	if v := os.Getenv("WEBHOOK_MAX_ATTEMPTS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			max = n
		}
	}
	return &Publisher{
		URL:         url,
		Secret:      os.Getenv("WEBHOOK_SECRET"),
		HTTP:        &http.Client{Timeout: 5 * time.Second},
		MaxAttempts: max,
		Logger:      l,
	}
}

type payload struct {
	ID   string       `json:"id"`
	Type string       `json:"type"`
	TS   string       `json:"ts"`
	Data store.Result `json:"data"`
}

func (p *Publisher) SaveResult(ctx context.Context, r store.Result) error {
	if err := p.Deliver(ctx, r); err != nil {
		p.logger().WithError(err).WithField("instance", r.Instance).Warn("result webhook not delivered")
	}
	return nil
}

// Deliver posts r and retries on transport errors and non-2xx responses until
// MaxAttempts is reached or ctx ends.
func (p *Publisher) Deliver(ctx context.Context, r store.Result) error {
	body, err := json.Marshal(payload{
		ID:   "evt_" + uuid.NewString(),
		Type: EventBenchmarkCompleted,
		TS:   time.Now().UTC().Format(time.RFC3339),
		Data: r,
	})
	if err != nil {
		return fmt.Errorf("deliver: %w", err)
	}
	delivery := uuid.NewString()
	max := p.MaxAttempts
	if max <= 0 {
		max = 1
	}
	var last error
	for attempt := 0; attempt < max; attempt++ {
		if attempt > 0 {
			t := time.NewTimer(p.backoff(attempt - 1))
			select {
			case <-ctx.Done():
				t.Stop()
				return fmt.Errorf("deliver: %w", ctx.Err())
			case <-t.C:
			}
		}
		start := time.Now()
		code, err := p.post(ctx, delivery, body)
		p.logger().WithFields(log.Fields{"attempt": attempt + 1, "status": code, "latency": time.Since(start)}).Debug("webhook attempt")
		if err == nil {
			return nil
		}
		last = err
	}
	return fmt.Errorf("%w after %d attempts: %v", ErrDeliveryFailed, max, last)
}

func (p *Publisher) post(ctx context.Context, delivery string, body []byte) (int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.URL, bytes.NewReader(body))
	if err != nil {
		return 0, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(HeaderEventType, EventBenchmarkCompleted)
	req.Header.Set(HeaderDelivery, delivery)
	if p.Secret != "" {
		req.Header.Set(HeaderSignature, Sign(p.Secret, body))
	}
	client := p.HTTP
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return 0, err
	}
	_ = resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return resp.StatusCode, fmt.Errorf("status %d", resp.StatusCode)
	}
	return resp.StatusCode, nil
}

func (p *Publisher) backoff(attempt int) time.Duration {
	if p.Backoff != nil {
		return p.Backoff(attempt)
	}
	return nextBackoff(attempt)
}

func nextBackoff(attempt int) time.Duration {
	if attempt < 0 {
		attempt = 0
	}
	if attempt > 6 {
		attempt = 6
	}
	d := time.Second * time.Duration(1<<attempt)
	if d > time.Minute {
		d = time.Minute
	}
	return d
}

func (p *Publisher) logger() log.FieldLogger {
	if p.Logger == nil {
		return log.StandardLogger()
	}
	return p.Logger
}
