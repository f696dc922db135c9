// Package progress talks to the gamification backend: it saves level
// completions and fetches the player's remote progress.
package progress

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

	"github.com/vovakirdan/codequest/internal/session"
)

// DefaultBaseURL is the backend used when none is configured.
const DefaultBaseURL = "http://localhost:4000/api/v1"

const (
	solvedPath     = "/gamification/challenge-solved"
	challengesPath = "/gamification/challenges"

	maxResponseBytes = 1 << 20
)

// ErrNoToken is returned before any request when the client has no token.
var ErrNoToken = errors.New("progress: no auth token")

// StatusError is a non-2xx response.
type StatusError struct {
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("progress: backend returned status %d: %s", e.Code, e.Message)
	}
	return fmt.Sprintf("progress: backend returned status %d", e.Code)
}

// Client is an HTTP client for the gamification API.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	logger     *log.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithTimeout bounds each request.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = d
	}
}

// WithLogger sets the logger.
func WithLogger(l *log.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// NewClient creates a client for baseURL (e.g. DefaultBaseURL) sending
// token as a bearer token.
func NewClient(baseURL, token string, opts ...Option) *Client {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	c := &Client{
		baseURL:    baseURL,
		token:      strings.TrimSpace(token),
		httpClient: &http.Client{Timeout: 10 * time.Second},
		logger:     log.New(io.Discard),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SaveCompletion reports a solved level.
func (c *Client) SaveCompletion(ctx context.Context, req CompletionRequest) (Result, error) {
	var resp CompletionResponse
	if err := c.do(ctx, http.MethodPost, solvedPath, req, &resp); err != nil {
		return Result{}, err
	}
	c.logger.Debug("completion saved", "level", req.ChallengeID, "xp", resp.Data.XPGained)
	return resp.Data, nil
}

// FetchChallenges returns the remote progress of every level the player
// has touched, keyed by level id.
func (c *Client) FetchChallenges(ctx context.Context) (map[string]ChallengeProgress, error) {
	var resp ChallengesResponse
	if err := c.do(ctx, http.MethodGet, challengesPath, nil, &resp); err != nil {
		return nil, err
	}
	if resp.Data == nil {
		resp.Data = map[string]ChallengeProgress{}
	}
	return resp.Data, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	if c.token == "" {
		return ErrNoToken
	}

	var rd io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("progress: failed to encode request: %w", err)
		}
		rd = bytes.NewReader(raw)
	}

	url := c.baseURL + path
	req, err := http.NewRequestWithContext(ctx, method, url, rd)
	if err != nil {
		return fmt.Errorf("progress: failed to create request: %w", err)
	}
	reqID := uuid.NewString()
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("X-Request-ID", reqID)

	c.logger.Debug("progress request", "method", method, "url", url, "request", reqID)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("progress: failed to connect: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return fmt.Errorf("progress: failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		se := &StatusError{Code: resp.StatusCode}
		var er ErrorResponse
		if json.Unmarshal(raw, &er) == nil {
			se.Message = er.Message
		}
		c.logger.Warn("progress request failed", "request", reqID, "status", resp.StatusCode)
		return se
	}

	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("progress: malformed response: %w", err)
	}
	return nil
}

// SaverName is reported in session events.
const SaverName = "remote"

// Name implements session.ProgressSaver.
func (c *Client) Name() string { return SaverName }

// SaveProgress implements session.ProgressSaver.
func (c *Client) SaveProgress(ctx context.Context, comp session.Completion) (session.Receipt, error) {
	res, err := c.SaveCompletion(ctx, CompletionRequest{
		ChallengeID:    comp.LevelID,
		Stars:          comp.Stars,
		CompletionTime: comp.CompletionSeconds(),
		FailedAttempts: comp.FailedAttempts,
		HintsUsed:      comp.HintsUsed,
		CodeLines:      comp.CodeLines,
	})
	if err != nil {
		return session.Receipt{}, err
	}

	r := session.Receipt{
		XPGained: res.XPGained,
		TotalXP:  res.Stats.XP,
		Note:     fmt.Sprintf("+%d XP, level %d", res.XPGained, res.Stats.Level),
	}
	for _, a := range res.Achievements {
		if a.IsNew {
			r.Achievements = append(r.Achievements, a.Name)
		}
	}
	return r, nil
}

var _ session.ProgressSaver = (*Client)(nil)
