package retrieval

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/yungbote/lazytrip-backend/internal/clients/rediscache"
	"github.com/yungbote/lazytrip-backend/internal/config"
	"github.com/yungbote/lazytrip-backend/internal/platform/logger"
)

// WebSource retrieves general web results. Primary path is a keyed search API;
// it is skipped entirely when no credential is configured or the credential
// looks like an OpenAI key pasted into the wrong variable. Fallback is the
// keyless DuckDuckGo scrape. Search never returns an error to its caller.
type WebSource struct {
	apiKey   string
	endpoint string
	http     *http.Client
	ddg      *ddgClient
	cache    *rediscache.Cache
	log      *logger.Logger
}

func NewWebSource(cfg *config.Config, cache *rediscache.Cache, log *logger.Logger) *WebSource {
	return &WebSource{
		apiKey:   cfg.WebSearchAPIKey,
		endpoint: cfg.WebSearchEndpoint,
		http:     &http.Client{Timeout: cfg.WebSearchTimeout},
		ddg:      newDDGClient(&http.Client{Timeout: 10 * time.Second}),
		cache:    cache,
		log:      log.With("source", "web"),
	}
}

type webSearchRequest struct {
	Query       string `json:"query"`
	APIKey      string `json:"api_key"`
	SearchDepth string `json:"search_depth"`
	MaxResults  int    `json:"max_results"`
}

type webSearchResponse struct {
	Results []struct {
		Title   string `json:"title"`
		Content string `json:"content"`
		URL     string `json:"url"`
	} `json:"results"`
}

func (s *WebSource) Search(ctx context.Context, query string, limit int) []Record {
	cacheKey := fmt.Sprintf("retrieval:web:%s:%d", query, limit)
	var cached []Record
	if s.cache.Get(ctx, cacheKey, &cached) && len(cached) > 0 {
		s.log.Debug("cache hit", "query", query, "records", len(cached))
		return cached
	}

	var records []Record
	if s.keyUsable() {
		records = s.searchPrimary(ctx, query, limit)
	}
	if len(records) == 0 {
		records = s.searchFallback(ctx, query, limit)
	}
	if len(records) > 0 {
		s.cache.Set(ctx, cacheKey, records)
	}
	return records
}

// keyUsable rejects absent keys and keys that belong to another service.
func (s *WebSource) keyUsable() bool {
	return s.apiKey != "" && !strings.Contains(s.apiKey, "sk-")
}

func (s *WebSource) searchPrimary(ctx context.Context, query string, limit int) []Record {
	body, err := json.Marshal(webSearchRequest{
		Query:       query,
		APIKey:      s.apiKey,
		SearchDepth: "basic",
		MaxResults:  limit,
	})
	if err != nil {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, "POST", s.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.http.Do(req)
	if err != nil {
		s.log.Warn("search API unavailable, falling back", "error", err)
		return nil
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		s.log.Warn("search API non-success, falling back", "status", resp.StatusCode)
		return nil
	}

	var out webSearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		s.log.Warn("search API payload unreadable, falling back", "error", err)
		return nil
	}

	records := make([]Record, 0, len(out.Results))
	for _, r := range out.Results {
		records = append(records, Record{
			ID:         fmt.Sprintf("web_%d", urlHash(r.URL)),
			Title:      r.Title,
			Content:    r.Content,
			URL:        r.URL,
			SourceType: SourceWeb,
		})
	}
	if len(records) > limit {
		records = records[:limit]
	}
	return records
}

func (s *WebSource) searchFallback(ctx context.Context, query string, limit int) []Record {
	hits, err := s.ddg.Search(ctx, query, limit)
	if err != nil {
		s.log.Warn("web fallback search failed", "query", query, "error", err)
		return nil
	}

	records := make([]Record, 0, len(hits))
	for _, h := range hits {
		records = append(records, Record{
			ID:         fmt.Sprintf("web_%d", urlHash(h.URL)),
			Title:      h.Title,
			Content:    h.Snippet,
			URL:        h.URL,
			SourceType: SourceWeb,
		})
	}
	if len(records) > limit {
		records = records[:limit]
	}
	return records
}
