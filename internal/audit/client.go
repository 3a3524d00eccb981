package audit

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"

	"coinpredict/internal/config"
)

// Client ships audit records to a remote log service that issues short-lived
// bearer tokens in exchange for an API key.
type Client struct {
	agent  string
	apiKey string
	http   *resty.Client

	mu        sync.RWMutex
	token     string
	expiresAt time.Time
}

type loginResponse struct {
	Token     string `json:"token"`
	ExpiresAt string `json:"expires_at"`
}

// NewClient returns nil when no base URL is configured; a nil *Client is a no-op.
func NewClient(cfg config.AuditConfig) *Client {
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if base == "" {
		return nil
	}
	agent := strings.TrimSpace(cfg.Agent)
	if agent == "" {
		agent = "coinpredict"
	}
	return &Client{
		agent:  agent,
		apiKey: strings.TrimSpace(cfg.APIKey),
		http: resty.New().
			SetBaseURL(base).
			SetTimeout(10*time.Second).
			SetHeader("Content-Type", "application/json"),
	}
}

func (c *Client) Login(ctx context.Context) error {
	if c.apiKey == "" {
		return errors.New("audit api key is empty")
	}
	var lr loginResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(map[string]any{"api_key": c.apiKey}).
		SetResult(&lr).
		Post("/api/v1/auth/login")
	if err != nil {
		return err
	}
	if !resp.IsSuccess() {
		return fmt.Errorf("audit login http %d: %s", resp.StatusCode(), strings.TrimSpace(resp.String()))
	}
	exp, _ := time.Parse(time.RFC3339, strings.TrimSpace(lr.ExpiresAt))

	c.mu.Lock()
	c.token = strings.TrimSpace(lr.Token)
	c.expiresAt = exp
	c.mu.Unlock()
	return nil
}

func (c *Client) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

func (c *Client) EnsureToken(ctx context.Context) error {
	c.mu.RLock()
	tok := c.token
	exp := c.expiresAt
	c.mu.RUnlock()
	if strings.TrimSpace(tok) == "" {
		return c.Login(ctx)
	}
	if !exp.IsZero() && time.Until(exp) < 2*time.Minute {
		return c.Login(ctx)
	}
	return nil
}

type Record struct {
	Agent    string         `json:"agent"`
	Action   string         `json:"action"`
	Level    string         `json:"level"`
	Details  map[string]any `json:"details"`
	Metadata map[string]any `json:"metadata"`
}

func (c *Client) CreateLog(ctx context.Context, rec Record) error {
	if c == nil {
		return nil
	}
	if err := c.EnsureToken(ctx); err != nil {
		return err
	}
	if rec.Agent == "" {
		rec.Agent = c.agent
	}
	if rec.Metadata == nil {
		rec.Metadata = map[string]any{}
	}
	resp, err := c.http.R().
		SetContext(ctx).
		SetAuthToken(c.Token()).
		SetBody(rec).
		Post("/api/v1/logs")
	if err != nil {
		return err
	}
	if !resp.IsSuccess() {
		return fmt.Errorf("audit create log http %d: %s", resp.StatusCode(), strings.TrimSpace(resp.String()))
	}
	return nil
}

// LogBestEffort sends a record on a detached 2s deadline and drops any error.
func (c *Client) LogBestEffort(action, level string, details map[string]any) {
	if c == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_ = c.CreateLog(ctx, Record{Action: action, Level: level, Details: details})
}
