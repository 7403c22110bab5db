package pixel

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"
)

func TestNewClient_AbsentWithoutPixel(t *testing.T) {
	c := NewClient(Config{AccessToken: "token"}, zap.NewNop().Sugar())
	if c != nil {
		t.Fatalf("expected nil client without pixel id")
	}

	// A nil client must be safe to use.
	c.Track(context.Background(), "Lead")
	c.Wait()
}

func TestTrack_PostsEvent(t *testing.T) {
	var (
		mu      sync.Mutex
		gotPath string
		gotTok  string
		gotBody eventsRequest
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		defer mu.Unlock()
		gotPath = r.URL.Path
		gotTok = r.URL.Query().Get("access_token")
		json.NewDecoder(r.Body).Decode(&gotBody)
		w.Write([]byte(`{"events_received":1}`))
	}))
	defer srv.Close()

	c := newClient(srv.URL, Config{PixelID: "123", AccessToken: "secret", APIVersion: "v18.0", SourceURL: "https://example.com"}, zap.NewNop().Sugar())
	c.now = func() time.Time { return time.Unix(1700000000, 0) }

	c.Track(context.Background(), "Lead")
	c.Wait()

	mu.Lock()
	defer mu.Unlock()
	if gotPath != "/v18.0/123/events" {
		t.Fatalf("unexpected path %q", gotPath)
	}
	if gotTok != "secret" {
		t.Fatalf("unexpected token %q", gotTok)
	}
	if len(gotBody.Data) != 1 {
		t.Fatalf("expected one event, got %d", len(gotBody.Data))
	}
	ev := gotBody.Data[0]
	if ev.EventName != "Lead" || ev.EventTime != 1700000000 || ev.ActionSource != "website" || ev.EventSourceURL != "https://example.com" {
		t.Fatalf("unexpected event %+v", ev)
	}
}

func TestTrack_ReturnsBeforeDelivery(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
	}))
	defer srv.Close()
	defer close(release)

	c := newClient(srv.URL, Config{PixelID: "123", AccessToken: "secret"}, zap.NewNop().Sugar())

	start := time.Now()
	c.Track(context.Background(), "Lead")
	if elapsed := time.Since(start); elapsed > 100*time.Millisecond {
		t.Fatalf("Track blocked for %v", elapsed)
	}
}
