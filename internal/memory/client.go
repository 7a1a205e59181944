package memory

import (
	"context"
	"fmt"
	"html"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
	"github.com/hashicorp/go-retryablehttp"
	"github.com/microcosm-cc/bluemonday"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/GriffinCanCode/persona/internal/logging"
	"github.com/GriffinCanCode/persona/internal/monitoring"
)

const (
	endpointGet    = "get"
	endpointSearch = "search"
)

// ServerError is a non-2xx reply from the memory service.
type ServerError struct {
	Status  int
	Message string
}

func (e *ServerError) Error() string {
	return fmt.Sprintf("server error: %d - %s", e.Status, e.Message)
}

// Config configures a Client.
type Config struct {
	BaseURL   string
	Timeout   time.Duration
	Retries   int
	RetryWait time.Duration
	// RateLimit is requests per second; zero or less means unlimited.
	RateLimit float64
	// BreakerThreshold is the number of consecutive failures that open
	// the circuit.
	BreakerThreshold int
	BreakerCooldown  time.Duration
}

// Option configures optional client dependencies.
type Option func(*Client)

// WithLogger sets the client logger.
func WithLogger(l *logging.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l.Named("memory")
		}
	}
}

// WithMetrics records request counts and latency.
func WithMetrics(m *monitoring.Metrics) Option {
	return func(c *Client) { c.metrics = m }
}

// Client talks to the Berry memory service.
type Client struct {
	resty     *resty.Client
	limiter   *rate.Limiter
	breaker   *breaker
	sanitizer *bluemonday.Policy
	logger    *logging.Logger
	metrics   *monitoring.Metrics
}

// New builds a client. Transport errors and 5xx replies are retried by the
// underlying retryable transport before they count against the breaker.
func New(cfg Config, opts ...Option) *Client {
	c := &Client{
		breaker:   newBreaker(cfg.BreakerThreshold, cfg.BreakerCooldown),
		sanitizer: bluemonday.StrictPolicy(),
		logger:    logging.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}

	retryClient := retryablehttp.NewClient()
	retryClient.RetryMax = max(cfg.Retries, 0)
	if cfg.RetryWait > 0 {
		retryClient.RetryWaitMin = cfg.RetryWait
		retryClient.RetryWaitMax = 10 * cfg.RetryWait
	}
	retryClient.ErrorHandler = retryablehttp.PassthroughErrorHandler
	retryClient.Logger = leveledLogger{c.logger.Sugar()}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	c.resty = resty.NewWithClient(retryClient.StandardClient()).
		SetBaseURL(strings.TrimRight(cfg.BaseURL, "/")).
		SetTimeout(timeout).
		SetHeader("User-Agent", "persona-memory/1.0").
		SetHeader("Accept", "application/json").
		SetJSONMarshaler(sonic.Marshal).
		SetJSONUnmarshaler(sonic.Unmarshal)

	if cfg.RateLimit > 0 {
		c.limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), max(int(cfg.RateLimit), 1))
	} else {
		c.limiter = rate.NewLimiter(rate.Inf, 0)
	}
	return c
}

// BreakerState returns the current circuit state.
func (c *Client) BreakerState() BreakerState {
	return c.breaker.State()
}

// Get fetches one memory as seen by actor.
func (c *Client) Get(ctx context.Context, id, actor string) (Memory, error) {
	var out getMemoryResponse
	err := c.do(ctx, endpointGet, func(r *resty.Request) (*resty.Response, error) {
		return r.SetPathParam("id", id).
			SetQueryParam("asActor", actor).
			Get("/v1/memory/{id}")
	}, &out)
	if err != nil {
		return Memory{}, err
	}
	return c.clean(out.Memory.Flatten()), nil
}

// Search runs a search scoped to req.AsActor.
func (c *Client) Search(ctx context.Context, req SearchRequest) ([]Memory, error) {
	var out searchResponse
	err := c.do(ctx, endpointSearch, func(r *resty.Request) (*resty.Response, error) {
		return r.SetBody(req).Post("/v1/search")
	}, &out)
	if err != nil {
		return nil, err
	}
	memories := make([]Memory, 0, len(out.Data))
	for _, raw := range out.Data {
		memories = append(memories, c.clean(raw.Flatten()))
	}
	return memories, nil
}

func (c *Client) do(ctx context.Context, endpoint string, send func(*resty.Request) (*resty.Response, error), out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit: %w", err)
	}
	if err := c.breaker.allow(); err != nil {
		c.metrics.RecordMemoryRequest(endpoint, "circuit_open", 0, true)
		return err
	}

	start := time.Now()
	resp, err := send(c.resty.R().
		SetContext(ctx).
		SetHeader("X-Request-ID", uuid.NewString()))
	elapsed := time.Since(start)

	if err != nil && ctx.Err() != nil {
		c.breaker.release()
		c.metrics.RecordMemoryRequest(endpoint, "cancelled", elapsed, false)
		return fmt.Errorf("memory %s request: %w", endpoint, err)
	}
	if err != nil {
		c.breaker.record(false)
		c.metrics.RecordMemoryRequest(endpoint, "error", elapsed, true)
		c.logger.Warn("memory request failed",
			zap.String("endpoint", endpoint),
			zap.Error(err))
		return fmt.Errorf("memory %s request: %w", endpoint, err)
	}

	status := resp.StatusCode()
	c.breaker.record(status < http.StatusInternalServerError)
	if !resp.IsSuccess() {
		c.metrics.RecordMemoryRequest(endpoint, strconv.Itoa(status), elapsed, true)
		c.logger.Warn("memory service returned an error",
			zap.String("endpoint", endpoint),
			zap.Int("status", status))
		return &ServerError{Status: status, Message: strings.TrimSpace(resp.String())}
	}
	c.metrics.RecordMemoryRequest(endpoint, strconv.Itoa(status), elapsed, false)

	if err := sonic.Unmarshal(resp.Body(), out); err != nil {
		return fmt.Errorf("decode memory %s response: %w", endpoint, err)
	}
	return nil
}

// clean strips markup from remote content so it renders as plain text.
func (c *Client) clean(m Memory) Memory {
	m.Content = html.UnescapeString(c.sanitizer.Sanitize(m.Content))
	for i, tag := range m.Tags {
		m.Tags[i] = html.UnescapeString(c.sanitizer.Sanitize(tag))
	}
	return m
}

// leveledLogger routes retry transport logs to zap at debug level.
type leveledLogger struct {
	s *zap.SugaredLogger
}

func (l leveledLogger) Error(msg string, kv ...interface{}) { l.s.Warnw(msg, kv...) }
func (l leveledLogger) Warn(msg string, kv ...interface{})  { l.s.Debugw(msg, kv...) }
func (l leveledLogger) Info(msg string, kv ...interface{})  { l.s.Debugw(msg, kv...) }
func (l leveledLogger) Debug(msg string, kv ...interface{}) { l.s.Debugw(msg, kv...) }
