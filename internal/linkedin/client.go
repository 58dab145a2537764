package linkedin

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/go-resty/resty/v2"
	"github.com/hashicorp/go-retryablehttp"
	"github.com/klauspost/compress/gzip"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/CandorWorks/LinkBridge/backend/internal/domain/proxy"
	"github.com/CandorWorks/LinkBridge/backend/internal/domain/session"
	"github.com/CandorWorks/LinkBridge/backend/internal/infrastructure/config"
	"github.com/CandorWorks/LinkBridge/backend/internal/infrastructure/logging"
	"github.com/CandorWorks/LinkBridge/backend/internal/infrastructure/monitoring"
	"github.com/CandorWorks/LinkBridge/backend/internal/infrastructure/resilience"
)

// Client executes voyager calls directly with cached session cookies. A
// rate limiter paces individual calls and a circuit breaker stops hammering
// when the remote side starts failing (usually an expired session or a
// block). Retries happen at the transport level only; page-level retry
// policy belongs to callers.
type Client struct {
	resty   *resty.Client
	limiter *rate.Limiter
	breaker *resilience.Breaker
	logger  *logging.Logger
	metrics *monitoring.Metrics
}

// NewClient creates a direct voyager client from config.
func NewClient(cfg config.LinkedInConfig, logger *logging.Logger) *Client {
	if logger == nil {
		logger = logging.NewDefault()
	}

	retryClient := retryablehttp.NewClient()
	retryClient.RetryMax = 2
	retryClient.RetryWaitMin = 1 * time.Second
	retryClient.RetryWaitMax = 10 * time.Second
	retryClient.Logger = nil

	restyClient := resty.NewWithClient(retryClient.StandardClient())
	restyClient.
		SetTimeout(cfg.Timeout).
		SetHeader("User-Agent", cfg.UserAgent).
		SetHeader("Accept", "application/vnd.linkedin.normalized+json+2.1").
		SetHeader("Accept-Encoding", "gzip").
		SetHeader("X-RestLi-Protocol-Version", "2.0.0").
		SetDoNotParseResponse(true)

	breaker := resilience.New("voyager-direct", resilience.Settings{
		MaxRequests: 2,
		Interval:    60 * time.Second,
		Timeout:     2 * time.Minute,
		ReadyToTrip: func(counts resilience.Counts) bool {
			return counts.ConsecutiveFailures >= 4
		},
	})

	return &Client{
		resty:   restyClient,
		limiter: rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 1),
		breaker: breaker,
		logger:  logger,
	}
}

// WithMetrics attaches the metrics collector.
func (c *Client) WithMetrics(m *monitoring.Metrics) *Client {
	c.metrics = m
	return c
}

// Do executes one request with the given session. Transport failures and
// 5xx responses count against the breaker; 4xx responses do not (they are
// the caller's problem, not the remote's health).
func (c *Client) Do(ctx context.Context, req proxy.HTTPRequest, sess *session.Session) (*proxy.Response, error) {
	if sess == nil {
		return nil, session.ErrNoSession
	}
	return c.run(ctx, req, sess)
}

// DoPublic executes one request without session state, against pages that
// render for logged-out visitors. Same limiter and breaker as Do: the
// remote side does not care which of our paths is hammering it.
func (c *Client) DoPublic(ctx context.Context, req proxy.HTTPRequest) (*proxy.Response, error) {
	return c.run(ctx, req, nil)
}

func (c *Client) run(ctx context.Context, req proxy.HTTPRequest, sess *session.Session) (*proxy.Response, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	start := time.Now()
	var resp *proxy.Response
	err := c.breaker.Do(func() error {
		var doErr error
		resp, doErr = c.doOnce(ctx, req, sess)
		if doErr != nil {
			return doErr
		}
		if resp.StatusCode >= 500 {
			return fmt.Errorf("voyager status %d", resp.StatusCode)
		}
		return nil
	})

	if c.metrics != nil {
		class := "error"
		if resp != nil {
			class = fmt.Sprintf("%dxx", resp.StatusCode/100)
		}
		c.metrics.RecordDirectCall(class, time.Since(start))
	}

	if err != nil && resp == nil {
		return nil, err
	}
	// A 5xx opens the breaker path but the response is still the result.
	return resp, nil
}

func (c *Client) doOnce(ctx context.Context, req proxy.HTTPRequest, sess *session.Session) (*proxy.Response, error) {
	method := strings.ToUpper(req.Method)
	if method == "" {
		method = http.MethodGet
	}

	r := c.resty.R().SetContext(ctx)
	if sess != nil {
		r.SetHeader("Cookie", sess.CookieHeader()).
			SetHeader("Csrf-Token", sess.CSRFToken)
	}
	for k, v := range req.Headers {
		r.SetHeader(k, v)
	}
	if req.Body != "" {
		r.SetBody(req.Body)
	}

	res, err := r.Execute(method, req.URL)
	if err != nil {
		c.logger.Warn("Direct voyager call failed",
			zap.String("method", method),
			zap.Error(err),
		)
		return nil, fmt.Errorf("direct call: %w", err)
	}

	body, err := readBody(res)
	if err != nil {
		return nil, err
	}

	headers := make(map[string]string, len(res.Header()))
	for k := range res.Header() {
		headers[strings.ToLower(k)] = res.Header().Get(k)
	}

	return &proxy.Response{
		StatusCode: res.StatusCode(),
		Headers:    headers,
		Body:       encodeBody(body, headers),
	}, nil
}

// readBody drains the raw response, transparently inflating gzip.
func readBody(res *resty.Response) ([]byte, error) {
	raw := res.RawBody()
	defer raw.Close()

	var reader io.Reader = raw
	if strings.Contains(res.Header().Get("Content-Encoding"), "gzip") {
		gz, err := gzip.NewReader(raw)
		if err != nil {
			return nil, fmt.Errorf("open gzip body: %w", err)
		}
		defer gz.Close()
		reader = gz
	}

	body, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	return body, nil
}

// encodeBody keeps text bodies as-is and base64-encodes binary ones
// (images, media) so they survive the JSON response shape. The marker
// header tells callers which form they got.
func encodeBody(body []byte, headers map[string]string) string {
	if len(body) == 0 {
		return ""
	}
	mt := mimetype.Detect(body)
	for m := mt; m != nil; m = m.Parent() {
		if m.Is("text/plain") {
			return string(body)
		}
	}
	if strings.HasPrefix(mt.String(), "application/json") {
		return string(body)
	}
	headers["x-linkbridge-body-encoding"] = "base64"
	return base64.StdEncoding.EncodeToString(body)
}
