package watsonx

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

const (
	defaultAuthURL    = "https://iam.cloud.ibm.com/identity/token"
	apiVersion        = "2024-05-31"
	contentType       = "application/json"
	defaultMaxRetries = 3

	// Tokens are refreshed this long before their reported expiry.
	tokenRefreshMargin = 2 * time.Minute
)

var sleep = time.Sleep

// Config describes a watsonx.ai endpoint. Exactly one of ProjectID or
// SpaceID must be set unless DeploymentID is used for generation.
type Config struct {
	URL            string
	AuthURL        string
	APIKey         string
	ProjectID      string
	SpaceID        string
	DeploymentID   string
	Model          string
	EmbeddingModel string
	MaxRetries     int
}

// Client talks to the watsonx.ai REST API. It is safe for concurrent use;
// the IAM token is the only mutable state and is guarded by a mutex.
type Client struct {
	cfg        Config
	logger     *zap.Logger
	HTTPClient *http.Client

	tokenMu     sync.Mutex
	token       string
	tokenExpiry time.Time
}

// NewClient validates the configuration and returns a client. No network
// call is made; the IAM token is fetched lazily on first use.
func NewClient(cfg Config, logger *zap.Logger) (*Client, error) {
	cfg.URL = strings.TrimRight(strings.TrimSpace(cfg.URL), "/")
	if cfg.URL == "" {
		return nil, errors.New("watsonx url is required")
	}

	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, errors.New("watsonx api key is required")
	}

	if cfg.DeploymentID == "" && cfg.ProjectID == "" && cfg.SpaceID == "" {
		return nil, errors.New("one of project id, space id or deployment id is required")
	}

	if cfg.AuthURL == "" {
		cfg.AuthURL = defaultAuthURL
	}

	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = defaultMaxRetries
	}

	if logger == nil {
		logger = zap.NewNop()
	}

	return &Client{
		cfg:    cfg,
		logger: logger,
		HTTPClient: &http.Client{
			Timeout: 2 * time.Minute,
		},
	}, nil
}

// Model reports the generation model identifier, or the deployment id when
// a deployment is configured.
func (c *Client) Model() string {
	if c.cfg.DeploymentID != "" {
		return "deployment/" + c.cfg.DeploymentID
	}
	return c.cfg.Model
}

type iamResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int    `json:"expires_in"`
}

// accessToken returns a cached IAM token, exchanging the api key for a new
// one when missing or close to expiry.
func (c *Client) accessToken(ctx context.Context) (string, error) {
	c.tokenMu.Lock()
	defer c.tokenMu.Unlock()

	if c.token != "" && time.Now().Before(c.tokenExpiry.Add(-tokenRefreshMargin)) {
		return c.token, nil
	}

	form := url.Values{}
	form.Set("grant_type", "urn:ibm:params:oauth:grant-type:apikey")
	form.Set("apikey", c.cfg.APIKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.AuthURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", contentType)

	c.logger.Debug("exchanging api key for IAM token", zap.String("url", c.cfg.AuthURL))

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("iam token request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", fmt.Errorf("iam token request: bad status %s: %s", resp.Status, strings.TrimSpace(string(body)))
	}

	var iam iamResponse
	if err := json.NewDecoder(resp.Body).Decode(&iam); err != nil {
		return "", fmt.Errorf("decode iam token response: %w", err)
	}

	if iam.AccessToken == "" {
		return "", errors.New("iam token response contains no access token")
	}

	c.token = iam.AccessToken
	c.tokenExpiry = time.Now().Add(time.Duration(iam.ExpiresIn) * time.Second)

	return c.token, nil
}

// postJSON sends the payload to the given API path and decodes the response
// into target. Responses with status 429 or 5xx are retried with backoff.
func (c *Client) postJSON(ctx context.Context, path string, payload, target any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal request payload: %w", err)
	}

	endpoint := fmt.Sprintf("%s%s?version=%s", c.cfg.URL, path, apiVersion)

	var lastErr error
	for attempt := 1; attempt <= c.cfg.MaxRetries; attempt++ {
		if attempt > 1 {
			if err := c.wait(ctx, backoff(attempt)); err != nil {
				return err
			}
		}

		retryable, err := c.doOnce(ctx, endpoint, body, target)
		if err == nil {
			return nil
		}

		lastErr = err
		if !retryable {
			return err
		}

		c.logger.Warn("watsonx request failed, retrying",
			zap.String("path", path),
			zap.Int("attempt", attempt),
			zap.Error(err),
		)
	}

	return fmt.Errorf("watsonx request failed after %d attempts: %w", c.cfg.MaxRetries, lastErr)
}

func (c *Client) doOnce(ctx context.Context, endpoint string, body []byte, target any) (retryable bool, err error) {
	token, err := c.accessToken(ctx)
	if err != nil {
		return false, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return false, err
	}

	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", contentType)

	c.logger.Debug("make request", zap.String("url", req.URL.String()))

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return true, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		err := fmt.Errorf("bad status %s: %s", resp.Status, strings.TrimSpace(string(data)))
		return resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= http.StatusInternalServerError, err
	}

	if target == nil {
		return false, nil
	}

	if err := json.NewDecoder(resp.Body).Decode(target); err != nil {
		return false, fmt.Errorf("decode response: %w", err)
	}

	return false, nil
}

// wait blocks for the given duration unless the context finishes first.
func (c *Client) wait(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		sleep(d)
	}()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-done:
		return nil
	}
}

func backoff(attempt int) time.Duration {
	return time.Duration(attempt-1) * 2 * time.Second
}
