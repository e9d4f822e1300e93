package ragapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"ai-ragchat-client/internal/pkg/logger"

	"github.com/go-playground/validator/v10"
)

const logModule = "transport"

// ClientConfig holds configuration for creating a Client.
type ClientConfig struct {
	// BaseURL is the backend root, e.g. "http://0.0.0.0:5000".
	BaseURL string
	// HTTPClient is used for all requests. If nil, http.DefaultClient is used.
	HTTPClient *http.Client
	// Logger receives one entry per request. If nil, logging is disabled.
	Logger logger.ILogger
	// Timeout bounds each request. Zero leaves the transport's own
	// behavior in place.
	Timeout time.Duration
	// GetRetries is how many extra attempts an idempotent GET gets after a
	// transport, timeout or 5xx failure. Mutating calls are never retried.
	GetRetries int
	// DeleteMethod is the verb used for /delete-pdf/, POST or DELETE.
	DeleteMethod string
	// LogoutPath, when set, is called on logout as a best-effort notice.
	LogoutPath string
}

// Client executes one HTTP request per call against the chatbot backend. It
// holds no session state; protected calls take the bearer token as an
// argument.
type Client struct {
	baseURL      string
	httpClient   *http.Client
	logger       logger.ILogger
	timeout      time.Duration
	getRetries   int
	deleteMethod string
	logoutPath   string
	validate     *validator.Validate
}

func NewClient(config ClientConfig) (*Client, error) {
	if config.BaseURL == "" {
		return nil, fmt.Errorf("ragapi: BaseURL is required")
	}
	if _, err := url.Parse(config.BaseURL); err != nil {
		return nil, fmt.Errorf("ragapi: invalid BaseURL %q: %w", config.BaseURL, err)
	}

	httpClient := config.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	log := config.Logger
	if log == nil {
		log = logger.NewNopLogger()
	}

	deleteMethod := strings.ToUpper(config.DeleteMethod)
	switch deleteMethod {
	case "":
		deleteMethod = http.MethodPost
	case http.MethodPost, http.MethodDelete:
	default:
		return nil, fmt.Errorf("ragapi: unsupported DeleteMethod %q", config.DeleteMethod)
	}

	if config.GetRetries < 0 {
		return nil, fmt.Errorf("ragapi: GetRetries must not be negative")
	}

	validate := validator.New()
	if err := validate.RegisterValidation("pdfname", isPDFName); err != nil {
		return nil, fmt.Errorf("ragapi: register validation: %w", err)
	}

	return &Client{
		baseURL:      strings.TrimRight(config.BaseURL, "/"),
		httpClient:   httpClient,
		logger:       log,
		timeout:      config.Timeout,
		getRetries:   config.GetRetries,
		deleteMethod: deleteMethod,
		logoutPath:   config.LogoutPath,
		validate:     validate,
	}, nil
}

func isPDFName(fl validator.FieldLevel) bool {
	return strings.HasSuffix(strings.ToLower(fl.Field().String()), ".pdf")
}

// BaseURL returns the backend root the client talks to.
func (c *Client) BaseURL() string {
	return c.baseURL
}

type request struct {
	op          string
	method      string
	path        string
	token       string
	contentType string
	body        []byte
}

func jsonRequest(op, method, path, token string, payload interface{}) (request, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return request{}, fmt.Errorf("ragapi: %s: marshal request: %w", op, err)
	}
	return request{
		op:          op,
		method:      method,
		path:        path,
		token:       token,
		contentType: "application/json",
		body:        body,
	}, nil
}

// do runs req, retrying GETs up to getRetries extra times on failures that
// may be transient.
func (c *Client) do(ctx context.Context, req request) ([]byte, error) {
	attempts := 1
	if req.method == http.MethodGet {
		attempts += c.getRetries
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		body, err := c.doOnce(ctx, req)
		if err == nil {
			return body, nil
		}
		lastErr = err
		if attempt == attempts || !retryable(err) || ctx.Err() != nil {
			break
		}
		c.logger.Warn(logModule, "retrying request", map[string]interface{}{
			"op":      req.op,
			"attempt": attempt,
			"error":   err.Error(),
		})
	}
	return nil, lastErr
}

func (c *Client) doOnce(ctx context.Context, req request) ([]byte, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	var reader io.Reader
	if req.body != nil {
		reader = bytes.NewReader(req.body)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.method, c.baseURL+req.path, reader)
	if err != nil {
		return nil, transportError(req.op, err)
	}
	httpReq.Header.Set("Accept", "application/json")
	if req.contentType != "" {
		httpReq.Header.Set("Content-Type", req.contentType)
	}
	if req.token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+req.token)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		c.logger.Warn(logModule, "request failed", map[string]interface{}{
			"op":     req.op,
			"method": req.method,
			"path":   req.path,
			"error":  err.Error(),
		})
		return nil, transportError(req.op, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, transportError(req.op, err)
	}

	c.logger.Debug(logModule, "request completed", map[string]interface{}{
		"op":          req.op,
		"method":      req.method,
		"path":        req.path,
		"status":      resp.StatusCode,
		"duration_ms": time.Since(start).Milliseconds(),
	})

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, statusError(req.op, resp.StatusCode, body)
	}
	return body, nil
}

// decode unmarshals a success body into v. An empty body leaves v at its
// zero value, so optional fields fall back to their documented defaults.
func decode(op string, body []byte, v interface{}) error {
	if len(bytes.TrimSpace(body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, v); err != nil {
		return malformedError(op, fmt.Errorf("unmarshal response: %w", err))
	}
	return nil
}
