package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/fadilmartias/interview-coach/internal/config"
	"github.com/sirupsen/logrus"
	"google.golang.org/genai"
)

// ErrOverloaded marks a generation that still failed with a transient
// overload after all retries. Handlers translate it to 503 so the client can
// offer a retry instead of a hard error.
var ErrOverloaded = errors.New("ai service overloaded")

type GeminiServiceInterface interface {
	GenerateText(ctx context.Context, prompt string) (string, error)
}

type GeminiService struct {
	Client            *genai.Client
	Model             string
	MaxRetries        int
	BaseDelay         time.Duration
	MaxDelay          time.Duration
	RequestTimeout    time.Duration
	// One service instance is shared across concurrent requests, so the
	// breaker counter must be atomic.
	consecutiveErrors atomic.Int64
	circuitBreakerMax int
}

func NewGeminiService(ctx context.Context) (*GeminiService, error) {
	geminiConfig := config.LoadGeminiConfig()
	if geminiConfig.APIKey == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY not set")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  geminiConfig.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}
	return &GeminiService{
		Client:            client,
		Model:             geminiConfig.Model,
		MaxRetries:        5,
		BaseDelay:         2 * time.Second,
		MaxDelay:          60 * time.Second,
		RequestTimeout:    3 * time.Minute,
		circuitBreakerMax: 5,
	}, nil
}

// GenerateText runs one completion with bounded exponential-backoff retry.
// Only overload-class failures are retried; anything else propagates on the
// first attempt.
func (s *GeminiService) GenerateText(ctx context.Context, prompt string) (string, error) {
	if strings.TrimSpace(prompt) == "" {
		return "", fmt.Errorf("prompt cannot be empty")
	}

	if n := s.consecutiveErrors.Load(); n >= int64(s.circuitBreakerMax) {
		return "", fmt.Errorf("circuit breaker open: too many consecutive errors (%d)", n)
	}

	timeoutCtx, cancel := context.WithTimeout(ctx, s.RequestTimeout)
	defer cancel()

	text, err := s.generateWithRetry(timeoutCtx, func(callCtx context.Context) (string, error) {
		genConfig := &genai.GenerateContentConfig{
			Temperature: genai.Ptr(float32(0.7)),
		}
		result, err := s.Client.Models.GenerateContent(callCtx, s.Model, genai.Text(prompt), genConfig)
		if err != nil {
			return "", err
		}
		if err := validateGenerateResponse(result); err != nil {
			return "", fmt.Errorf("invalid response: %w", err)
		}
		return result.Text(), nil
	})
	if err != nil {
		s.consecutiveErrors.Add(1)
		return "", err
	}
	s.consecutiveErrors.Store(0)
	return text, nil
}

// generateWithRetry drives the retry loop around a single call. Factored out
// so the loop can be exercised with a stubbed call.
func (s *GeminiService) generateWithRetry(ctx context.Context, call func(context.Context) (string, error)) (string, error) {
	delay := s.BaseDelay
	var lastErr error
	for attempt := 1; attempt <= s.MaxRetries; attempt++ {
		if attempt > 1 {
			logrus.WithFields(logrus.Fields{
				"attempt": attempt,
				"max":     s.MaxRetries,
				"delay":   delay.String(),
			}).Warn("ai overloaded, retrying generation")

			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return "", fmt.Errorf("context done during retry: %w", ctx.Err())
			}
			delay *= 2
			if delay > s.MaxDelay {
				delay = s.MaxDelay
			}
		}

		text, err := call(ctx)
		if err == nil {
			return text, nil
		}
		lastErr = err

		if !isOverloadError(err) {
			return "", fmt.Errorf("generate content failed: %w", err)
		}
	}
	return "", fmt.Errorf("%w: still failing after %d attempts: %v", ErrOverloaded, s.MaxRetries, lastErr)
}

// isOverloadError classifies transient overload (the retryable class) apart
// from everything else.
func isOverloadError(err error) bool {
	if err == nil {
		return false
	}

	errMsg := err.Error()
	if strings.Contains(errMsg, "context canceled") ||
		strings.Contains(errMsg, "context deadline exceeded") {
		return false
	}

	var apiErr *genai.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.Code {
		case 429, 500, 502, 503, 504:
			return true
		default:
			return false
		}
	}

	if strings.Contains(errMsg, "connection refused") ||
		strings.Contains(errMsg, "connection reset") ||
		strings.Contains(errMsg, "timeout") ||
		strings.Contains(errMsg, "temporary failure") ||
		strings.Contains(errMsg, "EOF") {
		return true
	}

	return false
}

func validateGenerateResponse(resp *genai.GenerateContentResponse) error {
	if resp == nil {
		return fmt.Errorf("response is nil")
	}
	if len(resp.Candidates) == 0 {
		return fmt.Errorf("no candidates in response")
	}
	if resp.Candidates[0].Content == nil {
		return fmt.Errorf("candidate content is nil")
	}
	if len(resp.Candidates[0].Content.Parts) == 0 {
		return fmt.Errorf("no parts in content")
	}
	return nil
}

func (s *GeminiService) ResetCircuitBreaker() {
	s.consecutiveErrors.Store(0)
	logrus.Info("circuit breaker reset")
}

func (s *GeminiService) CircuitBreakerStatus() (consecutiveErrors int, isOpen bool) {
	n := int(s.consecutiveErrors.Load())
	return n, n >= s.circuitBreakerMax
}
