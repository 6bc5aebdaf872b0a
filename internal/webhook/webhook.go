package webhook

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/therealutkarshpriyadarshi/streamingvideo/internal/config"
	"github.com/therealutkarshpriyadarshi/streamingvideo/internal/logging"
	"github.com/therealutkarshpriyadarshi/streamingvideo/internal/metrics"
	"github.com/therealutkarshpriyadarshi/streamingvideo/pkg/models"
)

// Retry delays between delivery attempts to one endpoint
var retryDelays = []time.Duration{
	1 * time.Second,
	5 * time.Second,
	15 * time.Second,
}

// Service delivers conversion notifications to configured endpoints
type Service struct {
	client      *http.Client
	urls        []string
	secret      string
	maxAttempts int
	logger      *logging.Logger
	sleep       func(ctx context.Context, d time.Duration) error
}

// NewService creates a new webhook service
func NewService(cfg config.WebhookConfig, logger *logging.Logger) *Service {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	maxAttempts := cfg.MaxAttempts
	if maxAttempts < 1 {
		maxAttempts = 1
	}

	return &Service{
		client: &http.Client{
			Timeout: timeout,
		},
		urls:        cfg.URLs,
		secret:      cfg.Secret,
		maxAttempts: maxAttempts,
		logger:      logger,
		sleep:       sleepContext,
	}
}

// Notify sends the event to every endpoint. Failed endpoints are reported
// together once all have been tried.
func (s *Service) Notify(ctx context.Context, event string, data interface{}) error {
	if len(s.urls) == 0 {
		return nil
	}

	payload := models.WebhookEvent{
		ID:        uuid.New().String(),
		Event:     event,
		Timestamp: time.Now().UTC(),
		Data:      data,
	}

	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}

	var errs []error
	for _, url := range s.urls {
		if err := s.deliverWithRetry(ctx, url, payload.ID, event, payloadBytes); err != nil {
			errs = append(errs, fmt.Errorf("webhook %s: %w", url, err))
		}
	}

	return errors.Join(errs...)
}

func (s *Service) deliverWithRetry(ctx context.Context, url, deliveryID, event string, payload []byte) error {
	var lastErr error
	for attempt := 1; attempt <= s.maxAttempts; attempt++ {
		lastErr = s.deliver(ctx, url, deliveryID, event, payload)
		if lastErr == nil {
			metrics.RecordWebhookDelivery(event, "delivered")
			return nil
		}

		metrics.RecordWebhookDelivery(event, "failed")
		s.logger.WithFields(map[string]interface{}{
			"url":     url,
			"event":   event,
			"attempt": attempt,
		}).WarnWithErr("Webhook delivery failed", lastErr)

		if attempt == s.maxAttempts {
			break
		}
		if err := s.sleep(ctx, retryDelay(attempt)); err != nil {
			return lastErr
		}
	}
	return lastErr
}

// deliver attempts to deliver a webhook once
func (s *Service) deliver(ctx context.Context, url, deliveryID, event string, payload []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	// Set headers
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "StreamingVideo-Webhook/1.0")
	req.Header.Set("X-Webhook-Event", event)
	req.Header.Set("X-Webhook-Delivery", deliveryID)

	// Add HMAC signature if secret is configured
	if s.secret != "" {
		req.Header.Set("X-Webhook-Signature", GenerateSignature(payload, s.secret))
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("unexpected status %d: %s", resp.StatusCode, bytes.TrimSpace(body))
	}
	return nil
}

// GenerateSignature generates HMAC-SHA256 signature for webhook payload
func GenerateSignature(payload []byte, secret string) string {
	h := hmac.New(sha256.New, []byte(secret))
	h.Write(payload)
	return "sha256=" + hex.EncodeToString(h.Sum(nil))
}

// VerifySignature checks a signature produced by GenerateSignature
func VerifySignature(payload []byte, secret, signature string) bool {
	return hmac.Equal([]byte(GenerateSignature(payload, secret)), []byte(signature))
}

func retryDelay(attempt int) time.Duration {
	if attempt > len(retryDelays) {
		return retryDelays[len(retryDelays)-1]
	}
	return retryDelays[attempt-1]
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
