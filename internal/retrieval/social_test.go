package retrieval

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/yungbote/lazytrip-backend/internal/config"
	"github.com/yungbote/lazytrip-backend/internal/platform/logger"
)

const ddgFixture = `<html><body>
<div class="links_main">
  <div class="result results_links results_links_deep web-result">
    <a class="result__a" href="//duckduckgo.com/l/?uddg=https%3A%2F%2Fexample.com%2Fnotes%2F1&rut=abc">Xian travel notes</a>
    <a class="result__snippet" href="#">Three day itinerary for Xian with food stops.</a>
  </div>
  <div class="result results_links results_links_deep web-result">
    <a class="result__a" href="https://example.com/notes/2">Xian city walls</a>
    <a class="result__snippet" href="#">Cycling the walls at sunset.</a>
  </div>
</div>
</body></html>`

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New("development")
	if err != nil {
		t.Fatalf("init logger: %v", err)
	}
	return log
}

func newTestSocialSource(t *testing.T, endpoint, ddgURL string) *SocialSource {
	t.Helper()
	cfg := &config.Config{
		SocialEndpoint: endpoint,
		SocialTimeout:  500 * time.Millisecond,
	}
	s := NewSocialSource(cfg, nil, testLogger(t))
	s.ddg.baseURL = ddgURL
	return s
}

func TestSocialSearch_PrimarySuccess(t *testing.T) {
	primary := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/search" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data":[{"id":"n1","title":"Old town","content":"walkable","author":"u1","url":"https://x/1","tags":["xian"]}]}`))
	}))
	defer primary.Close()

	s := newTestSocialSource(t, primary.URL, "http://127.0.0.1:1/") // fallback must not be reached
	records := s.Search(context.Background(), "xian", 5)

	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}
	if records[0].ID != "n1" || records[0].SourceType != SourceSocial {
		t.Fatalf("record not normalized: %+v", records[0])
	}
}

func TestSocialSearch_PrimaryErrorFallsBack(t *testing.T) {
	primary := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer primary.Close()

	fallback := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(ddgFixture))
	}))
	defer fallback.Close()

	s := newTestSocialSource(t, primary.URL, fallback.URL)
	records := s.Search(context.Background(), "xian", 5)

	if len(records) != 2 {
		t.Fatalf("expected 2 fallback records, got %d", len(records))
	}
	if records[0].URL != "https://example.com/notes/1" {
		t.Fatalf("redirect URL not unwrapped: %q", records[0].URL)
	}
	if records[0].SourceType != SourceSocial {
		t.Fatalf("fallback record missing source type: %+v", records[0])
	}
	if records[0].ID == "" || records[0].ID == records[1].ID {
		t.Fatalf("fallback records need distinct ids: %q vs %q", records[0].ID, records[1].ID)
	}
}

func TestSocialSearch_PrimaryTimeoutFallsBack(t *testing.T) {
	primary := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(2 * time.Second)
	}))
	defer primary.Close()

	fallback := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(ddgFixture))
	}))
	defer fallback.Close()

	s := newTestSocialSource(t, primary.URL, fallback.URL)
	records := s.Search(context.Background(), "xian", 1)
	if len(records) != 1 {
		t.Fatalf("expected 1 record after timeout fallback, got %d", len(records))
	}
}

func TestSocialSearch_TotalFailureReturnsEmpty(t *testing.T) {
	s := newTestSocialSource(t, "http://127.0.0.1:1", "http://127.0.0.1:1/")
	records := s.Search(context.Background(), "xian", 5)
	if len(records) != 0 {
		t.Fatalf("expected empty result, got %d", len(records))
	}
}

func TestSocialSearch_EmptyPayloadFallsBack(t *testing.T) {
	primary := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"data":[]}`))
	}))
	defer primary.Close()

	fallback := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(ddgFixture))
	}))
	defer fallback.Close()

	s := newTestSocialSource(t, primary.URL, fallback.URL)
	records := s.Search(context.Background(), "xian", 5)
	if len(records) == 0 {
		t.Fatal("empty primary payload should trigger fallback")
	}
}
