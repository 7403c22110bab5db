// Package postgrest inserts leads into a hosted PostgREST table, the REST
// layer behind Supabase projects.
package postgrest

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

	landing "github.com/phbpx/landing"
)

// Config is the required properties to reach the table.
type Config struct {
	URL     string
	APIKey  string
	Table   string
	Timeout time.Duration
}

// Error is the error payload PostgREST answers a rejected request with.
type Error struct {
	Status  int    `json:"-"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details"`
	Hint    string `json:"hint"`
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("postgrest: status=%d", e.Status)
	if e.Code != "" {
		msg += " code=" + e.Code
	}
	if e.Message != "" {
		msg += " message=" + e.Message
	}
	return msg
}

// Unwrap lets callers match any rejection with landing.ErrWriteRejected.
func (e *Error) Unwrap() error {
	return landing.ErrWriteRejected
}

type Client struct {
	endpoint   string
	apiKey     string
	httpClient *http.Client
}

func NewClient(cfg Config) (*Client, error) {
	base, err := url.Parse(strings.TrimRight(cfg.URL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parsing url: %w", err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("parsing url: %q is not absolute", cfg.URL)
	}
	if strings.TrimSpace(cfg.Table) == "" {
		return nil, fmt.Errorf("missing table name")
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &Client{
		endpoint:   base.String() + "/rest/v1/" + url.PathEscape(cfg.Table),
		apiKey:     cfg.APIKey,
		httpClient: &http.Client{Timeout: timeout},
	}, nil
}

// Insert writes lead as a one-element batch.
func (c *Client) Insert(ctx context.Context, lead landing.Lead) error {
	raw, err := json.Marshal([]landing.Lead{lead})
	if err != nil {
		return fmt.Errorf("postgrest marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(raw))
	if err != nil {
		return fmt.Errorf("postgrest create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Prefer", "return=minimal")
	if c.apiKey != "" {
		req.Header.Set("apikey", c.apiKey)
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("postgrest request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusOK && resp.StatusCode < http.StatusMultipleChoices {
		io.Copy(io.Discard, resp.Body)
		return nil
	}

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	perr := &Error{Status: resp.StatusCode}
	if err := json.Unmarshal(body, perr); err != nil || perr.Message == "" {
		perr.Message = strings.TrimSpace(string(body))
	}
	return perr
}
