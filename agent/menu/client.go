// Package menu fetches the tenant menu from the external catalog service.
package menu

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

const maxMenuResponseBytes = 4 << 20

// Config configures the catalog endpoint.
type Config struct {
	BaseURL string        `envconfig:"BASE_URL" split_words:"true" required:"true"`
	Timeout time.Duration `envconfig:"TIMEOUT" split_words:"true" default:"10s"`
}

// Client calls GET <base_url>?subdomain=<subdomain> and hands the item list
// through verbatim. Any non-200 answer is an error the caller surfaces as a
// recoverable tool result, never as a request failure.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

type menuResponse struct {
	Items []map[string]any `json:"items"`
}

func NewClient(cfg Config) (*Client, error) {
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		return nil, errors.New("menu base url is required")
	}
	if _, err := url.ParseRequestURI(baseURL); err != nil {
		return nil, fmt.Errorf("invalid menu base url: %w", err)
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
	}, nil
}

// Fetch returns the current items for a subdomain.
func (c *Client) Fetch(ctx context.Context, subdomain string) ([]map[string]any, error) {
	subdomain = strings.TrimSpace(subdomain)
	if subdomain == "" {
		return nil, errors.New("subdomain is required")
	}

	endpoint := c.baseURL + "?subdomain=" + url.QueryEscape(subdomain)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build menu request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		log.Warn().Err(err).Str("subdomain", subdomain).Msg("menu fetch failed")
		return nil, fmt.Errorf("execute menu request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxMenuResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("read menu response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		log.Warn().Int("status", resp.StatusCode).Str("subdomain", subdomain).Msg("menu service returned non-200")
		return nil, fmt.Errorf("menu service status=%d", resp.StatusCode)
	}

	var parsed menuResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, fmt.Errorf("decode menu response: %w", err)
	}
	return parsed.Items, nil
}
