package stepsource

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
)

type Config struct {
	BaseURL string `yaml:"baseUrl"`
	APIKey  string `yaml:"apiKey"`
}

// Client talks to the health-data provider's HTTP API.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

func NewClient(cfg Config) *Client {
	return &Client{
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		http:    &http.Client{Timeout: 10 * time.Second},
	}
}

func (c *Client) Steps(ctx context.Context, playerID uuid.UUID, from, to time.Time) (int64, error) {
	url := fmt.Sprintf("%s/v1/players/%s/steps?from=%s&to=%s",
		c.baseURL,
		playerID,
		from.UTC().Format(time.RFC3339),
		to.UTC().Format(time.RFC3339),
	)

	var result struct {
		Steps int64 `json:"steps"`
	}
	if err := c.do(ctx, http.MethodGet, url, nil, &result); err != nil {
		return 0, err
	}

	if result.Steps < 0 {
		return 0, fmt.Errorf("%w: negative step count", ErrUnavailable)
	}

	return result.Steps, nil
}

func (c *Client) Authorized(ctx context.Context, playerID uuid.UUID) (bool, error) {
	url := fmt.Sprintf("%s/v1/players/%s/authorization", c.baseURL, playerID)

	var result struct {
		Granted bool `json:"granted"`
	}
	if err := c.do(ctx, http.MethodGet, url, nil, &result); err != nil {
		return false, err
	}

	return result.Granted, nil
}

func (c *Client) RequestAuthorization(ctx context.Context, playerID uuid.UUID) error {
	url := fmt.Sprintf("%s/v1/players/%s/authorization", c.baseURL, playerID)
	return c.do(ctx, http.MethodPost, url, struct{}{}, nil)
}

func (c *Client) do(ctx context.Context, method, url string, payload, out interface{}) error {
	var body io.Reader
	if payload != nil {
		jsonData, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("error marshaling request: %w", err)
		}
		body = bytes.NewBuffer(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return fmt.Errorf("error creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return ErrUnauthorized
	case resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices:
		raw, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("%w: status %d: %s", ErrUnavailable, resp.StatusCode, raw)
	}

	if out == nil {
		return nil
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("error reading response: %w", err)
	}

	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("error parsing response: %w", err)
	}

	return nil
}
