package judge

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
)

const maxResponseBytes = 1 << 20

// Client submits source text to a remote judge over HTTP.
type Client struct {
	// url is the full execute endpoint, e.g. ".../api/v1/judge/execute"
	url string

	httpClient *http.Client

	// authToken is sent as a bearer token when set
	authToken string

	language    string
	timeLimit   time.Duration
	memoryLimit int

	logger *log.Logger
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithAuthToken sets the bearer token.
func WithAuthToken(token string) ClientOption {
	return func(c *Client) {
		c.authToken = token
	}
}

// WithTimeout bounds each round trip.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		c.httpClient.Timeout = d
	}
}

// WithLimits sets the default language and resource limits sent with
// submissions that do not specify their own.
func WithLimits(language string, timeLimit time.Duration, memoryMB int) ClientOption {
	return func(c *Client) {
		if language != "" {
			c.language = language
		}
		if timeLimit > 0 {
			c.timeLimit = timeLimit
		}
		if memoryMB > 0 {
			c.memoryLimit = memoryMB
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *log.Logger) ClientOption {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// NewClient creates a judge client posting to url.
func NewClient(url string, opts ...ClientOption) *Client {
	c := &Client{
		url:         strings.TrimSpace(url),
		httpClient:  &http.Client{Timeout: 15 * time.Second},
		language:    "java",
		timeLimit:   5 * time.Second,
		memoryLimit: 256,
		logger:      log.New(io.Discard),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Submit sends the source to the judge. It never retries.
func (c *Client) Submit(ctx context.Context, sub Submission) Outcome {
	if IsBlank(sub.Source) {
		return RuntimeError(MsgEmptySource)
	}

	body, err := json.Marshal(c.request(sub))
	if err != nil {
		return TransportError(fmt.Sprintf("failed to encode request: %v", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return TransportError(fmt.Sprintf("failed to create request: %v", err))
	}
	reqID := uuid.NewString()
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Request-ID", reqID)
	c.addAuthHeader(req)

	c.logger.Debug("submitting", "url", c.url, "level", sub.LevelID, "request", reqID, "bytes", len(body))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(ctx.Err(), context.Canceled) {
			return TransportError("submission cancelled")
		}
		c.logger.Warn("judge unreachable", "request", reqID, "error", err)
		return TransportError(fmt.Sprintf("failed to connect: %v", err))
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return TransportError(fmt.Sprintf("failed to read response: %v", err))
	}

	var jr Response
	decodeErr := json.Unmarshal(raw, &jr)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// Some judges report compile and runtime errors with 4xx codes.
		if decodeErr == nil && jr.Status != "" {
			return jr.Outcome()
		}
		var er ErrorResponse
		if json.Unmarshal(raw, &er) == nil && er.Message != "" {
			return TransportError(fmt.Sprintf("judge returned status %d: %s", resp.StatusCode, er.Message))
		}
		return TransportError(fmt.Sprintf("judge returned status %d", resp.StatusCode))
	}

	if decodeErr != nil {
		c.logger.Warn("malformed judge response", "request", reqID, "error", decodeErr)
		return TransportError(fmt.Sprintf("malformed judge response: %v", decodeErr))
	}

	out := jr.Outcome()
	c.logger.Debug("judge responded", "request", reqID, "outcome", out.Kind, "commands", len(out.Commands))
	return out
}

func (c *Client) request(sub Submission) Request {
	r := Request{
		Code:        sub.Source,
		Language:    sub.Language,
		TimeLimit:   int(sub.TimeLimit / time.Millisecond),
		MemoryLimit: sub.MemoryLimitMB,
		LevelID:     sub.LevelID,
	}
	if r.Language == "" {
		r.Language = c.language
	}
	if r.TimeLimit <= 0 {
		r.TimeLimit = int(c.timeLimit / time.Millisecond)
	}
	if r.MemoryLimit <= 0 {
		r.MemoryLimit = c.memoryLimit
	}
	return r
}

// addAuthHeader adds the authorization header if a token is configured.
func (c *Client) addAuthHeader(req *http.Request) {
	if c.authToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.authToken)
	}
}
