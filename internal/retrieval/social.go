package retrieval

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"hash/fnv"
	"net/http"
	"time"

	"github.com/yungbote/lazytrip-backend/internal/clients/rediscache"
	"github.com/yungbote/lazytrip-backend/internal/config"
	"github.com/yungbote/lazytrip-backend/internal/platform/logger"
)

// SocialSource retrieves community travel notes. Primary path is a configured
// note-search endpoint with a deliberately short timeout; any failure or
// empty payload falls back to a domain-restricted web search that synthesizes
// comparable records. Search never returns an error to its caller.
type SocialSource struct {
	endpoint string
	timeout  time.Duration
	http     *http.Client
	ddg      *ddgClient
	cache    *rediscache.Cache
	log      *logger.Logger
}

func NewSocialSource(cfg *config.Config, cache *rediscache.Cache, log *logger.Logger) *SocialSource {
	httpClient := &http.Client{Timeout: cfg.SocialTimeout}
	return &SocialSource{
		endpoint: cfg.SocialEndpoint,
		timeout:  cfg.SocialTimeout,
		http:     httpClient,
		ddg:      newDDGClient(&http.Client{Timeout: 10 * time.Second}),
		cache:    cache,
		log:      log.With("source", "social"),
	}
}

type socialSearchRequest struct {
	Keyword string `json:"keyword"`
	Count   int    `json:"count"`
}

type socialSearchResponse struct {
	Data []Record `json:"data"`
}

func (s *SocialSource) Search(ctx context.Context, keyword string, limit int) []Record {
	cacheKey := fmt.Sprintf("retrieval:social:%s:%d", keyword, limit)
	var cached []Record
	if s.cache.Get(ctx, cacheKey, &cached) && len(cached) > 0 {
		s.log.Debug("cache hit", "keyword", keyword, "records", len(cached))
		return cached
	}

	records := s.searchPrimary(ctx, keyword, limit)
	if len(records) == 0 {
		records = s.searchFallback(ctx, keyword, limit)
	}
	if len(records) > 0 {
		s.cache.Set(ctx, cacheKey, records)
	}
	return records
}

func (s *SocialSource) searchPrimary(ctx context.Context, keyword string, limit int) []Record {
	body, err := json.Marshal(socialSearchRequest{Keyword: keyword, Count: limit})
	if err != nil {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, "POST", s.endpoint+"/search", bytes.NewReader(body))
	if err != nil {
		return nil
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.http.Do(req)
	if err != nil {
		s.log.Warn("note endpoint unavailable, falling back", "endpoint", s.endpoint, "error", err)
		return nil
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		s.log.Warn("note endpoint non-success, falling back", "status", resp.StatusCode)
		return nil
	}

	var out socialSearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		s.log.Warn("note endpoint payload unreadable, falling back", "error", err)
		return nil
	}

	records := out.Data
	if len(records) > limit {
		records = records[:limit]
	}
	for i := range records {
		records[i].SourceType = SourceSocial
	}
	return records
}

func (s *SocialSource) searchFallback(ctx context.Context, keyword string, limit int) []Record {
	hits, err := s.ddg.Search(ctx, "site:xiaohongshu.com "+keyword, limit)
	if err != nil {
		s.log.Warn("social fallback search failed", "keyword", keyword, "error", err)
		return nil
	}

	records := make([]Record, 0, len(hits))
	for _, h := range hits {
		records = append(records, Record{
			ID:         fmt.Sprintf("ddg_%d", urlHash(h.URL)),
			Title:      h.Title,
			Content:    h.Snippet,
			Author:     "social_user",
			URL:        h.URL,
			Tags:       []string{keyword, "fallback"},
			SourceType: SourceSocial,
		})
	}
	if len(records) > limit {
		records = records[:limit]
	}
	return records
}

func urlHash(u string) uint32 {
	h := fnv.New32a()
	_, _ = h.Write([]byte(u))
	return h.Sum32()
}
