// Package pixel sends conversion events to the Meta Conversions API.
package pixel

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

const defaultGraphURL = "https://graph.facebook.com"

// Config is the required properties to send events.
type Config struct {
	PixelID     string
	AccessToken string
	APIVersion  string
	SourceURL   string
	Timeout     time.Duration
}

type Client struct {
	endpoint   string
	token      string
	sourceURL  string
	httpClient *http.Client
	log        *zap.SugaredLogger
	now        func() time.Time

	wg sync.WaitGroup
}

// NewClient returns nil when no pixel is configured, so callers can treat
// the tracker as absent.
func NewClient(cfg Config, log *zap.SugaredLogger) *Client {
	if strings.TrimSpace(cfg.PixelID) == "" || strings.TrimSpace(cfg.AccessToken) == "" {
		return nil
	}
	return newClient(defaultGraphURL, cfg, log)
}

func newClient(baseURL string, cfg Config, log *zap.SugaredLogger) *Client {
	version := cfg.APIVersion
	if version == "" {
		version = "v18.0"
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}

	return &Client{
		endpoint:   fmt.Sprintf("%s/%s/%s/events", strings.TrimRight(baseURL, "/"), version, url.PathEscape(cfg.PixelID)),
		token:      cfg.AccessToken,
		sourceURL:  cfg.SourceURL,
		httpClient: &http.Client{Timeout: timeout},
		log:        log,
		now:        time.Now,
	}
}

// Track dispatches event in the background and returns at once. Failures
// are logged, never reported to the caller.
func (c *Client) Track(ctx context.Context, event string) {
	if c == nil {
		return
	}

	payload := eventsRequest{
		Data: []serverEvent{{
			EventName:      event,
			EventTime:      c.now().Unix(),
			ActionSource:   "website",
			EventSourceURL: c.sourceURL,
		}},
	}

	// The request outlives the caller, which redirects away right after.
	sendCtx := context.Background()

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		if err := c.send(sendCtx, payload); err != nil {
			c.log.Warnw("track", "event", event, "error", err)
		}
	}()
}

// Wait blocks until every dispatched event has been sent or has failed.
func (c *Client) Wait() {
	if c == nil {
		return
	}
	c.wg.Wait()
}

func (c *Client) send(ctx context.Context, payload eventsRequest) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("pixel marshal payload: %w", err)
	}

	q := make(url.Values)
	q.Set("access_token", c.token)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint+"?"+q.Encode(), bytes.NewReader(raw))
	if err != nil {
		return fmt.Errorf("pixel create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("pixel request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("pixel send failed: status=%d body=%s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return nil
}

type eventsRequest struct {
	Data []serverEvent `json:"data"`
}

type serverEvent struct {
	EventName      string `json:"event_name"`
	EventTime      int64  `json:"event_time"`
	ActionSource   string `json:"action_source"`
	EventSourceURL string `json:"event_source_url,omitempty"`
}
