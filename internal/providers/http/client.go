package http

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/gabriel-vasile/mimetype"
	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
	"github.com/hashicorp/go-retryablehttp"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/legalbox/swa/internal/infrastructure/logging"
	"github.com/legalbox/swa/internal/infrastructure/resilience"
	"github.com/legalbox/swa/internal/infrastructure/tracing"
)

// ErrStatus is returned for responses with an error status code
var ErrStatus = errors.New("unexpected response status")

// RequestIDHeader carries the id generated for every request
const RequestIDHeader = "X-Request-ID"

// Config configures the server client
type Config struct {
	BaseURL      string
	Timeout      time.Duration
	MaxRetries   int
	RetryWaitMin time.Duration
	RetryWaitMax time.Duration
	// RateLimit is the number of requests per second, zero for unlimited
	RateLimit float64
	UserAgent string
}

// DefaultConfig returns the client defaults
func DefaultConfig() Config {
	return Config{
		Timeout:      30 * time.Second,
		MaxRetries:   3,
		RetryWaitMin: time.Second,
		RetryWaitMax: 30 * time.Second,
		UserAgent:    "legalbox-swa/1.0",
	}
}

// Client posts JSON to the application server with retries, rate
// limiting and a circuit breaker
type Client struct {
	resty   *resty.Client
	limiter *rate.Limiter
	breaker *resilience.Breaker
	logger  *logging.Logger
}

// NewClient creates a client from cfg
func NewClient(cfg Config, logger *logging.Logger) *Client {
	if logger == nil {
		logger = logging.NewNop()
	}
	logger = logger.Named("http")

	retryClient := retryablehttp.NewClient()
	retryClient.RetryMax = cfg.MaxRetries
	retryClient.RetryWaitMin = cfg.RetryWaitMin
	retryClient.RetryWaitMax = cfg.RetryWaitMax
	retryClient.Logger = nil
	retryClient.ErrorHandler = retryablehttp.PassthroughErrorHandler

	restyClient := resty.NewWithClient(retryClient.StandardClient()).
		SetTimeout(cfg.Timeout).
		SetHeader("User-Agent", cfg.UserAgent).
		SetHeader("Accept", "application/json").
		SetJSONMarshaler(sonic.Marshal).
		SetJSONUnmarshaler(sonic.Unmarshal)
	if cfg.BaseURL != "" {
		restyClient.SetBaseURL(cfg.BaseURL)
	}

	limiter := rate.NewLimiter(rate.Inf, 0)
	if cfg.RateLimit > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), max(1, int(cfg.RateLimit)))
	}

	breaker := resilience.New("server", resilience.Settings{
		MaxRequests: 2,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts resilience.Counts) bool {
			return counts.ConsecutiveFailures >= 5 ||
				(counts.Requests >= 20 && float64(counts.TotalFailures)/float64(counts.Requests) > 0.5)
		},
	}, logger)

	return &Client{
		resty:   restyClient,
		limiter: limiter,
		breaker: breaker,
		logger:  logger,
	}
}

// BreakerState returns the circuit breaker state
func (c *Client) BreakerState() resilience.State {
	return c.breaker.State()
}

// Post sends data as JSON and decodes the response. JSON objects are
// returned as is; other JSON values and non-JSON bodies are wrapped under
// "data" with a "status" of "success".
func (c *Client) Post(ctx context.Context, url string, data interface{}) (map[string]interface{}, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit error: %w", err)
	}

	requestID := uuid.NewString()
	headers := map[string]string{
		RequestIDHeader: requestID,
		"Content-Type":  "application/json",
	}
	tracing.InjectTraceContext(ctx, headers)

	resp, err := resilience.Execute(c.breaker, func() (*resty.Response, error) {
		resp, err := c.resty.R().
			SetContext(ctx).
			SetHeaders(headers).
			SetBody(data).
			Post(url)
		if err != nil {
			return nil, err
		}
		if resp.IsError() {
			return resp, fmt.Errorf("%w: %s", ErrStatus, resp.Status())
		}
		return resp, nil
	})
	if err != nil {
		c.logger.Debug("Request failed",
			zap.String("url", url),
			zap.String("request_id", requestID),
			zap.Error(err),
		)
		return nil, err
	}

	c.logger.Debug("Request completed",
		zap.String("url", url),
		zap.String("request_id", requestID),
		zap.Int("status", resp.StatusCode()),
		zap.Duration("time", resp.Time()),
	)
	return decode(resp.Header().Get("Content-Type"), resp.Body())
}

func decode(contentType string, body []byte) (map[string]interface{}, error) {
	if len(body) == 0 {
		return map[string]interface{}{"status": "success"}, nil
	}

	if !strings.Contains(contentType, "json") {
		detected := mimetype.Detect(body)
		if !detected.Is("application/json") {
			return map[string]interface{}{
				"status":      "success",
				"contentType": detected.String(),
				"data":        string(body),
			}, nil
		}
	}

	var value interface{}
	if err := sonic.Unmarshal(body, &value); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	if object, ok := value.(map[string]interface{}); ok {
		return object, nil
	}
	return map[string]interface{}{"status": "success", "data": value}, nil
}
