package config

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/yungbote/lazytrip-backend/internal/platform/envutil"
)

// Config is built once at process start and handed to every component by
// reference. Components never read the environment themselves.
type Config struct {
	OpenAI OpenAIConfig
	Neo4j  Neo4jConfig
	Redis  RedisConfig

	// Social-content collaborator (MCP-style note search endpoint).
	SocialEndpoint string
	SocialTimeout  time.Duration

	// Keyed web-search collaborator (Tavily-shaped API).
	WebSearchAPIKey   string
	WebSearchEndpoint string
	WebSearchTimeout  time.Duration

	DataDir    string
	NotesDir   string
	ExportsDir string
}

type OpenAIConfig struct {
	APIKey      string
	BaseURL     string
	Model       string
	Timeout     time.Duration
	Temperature float64
}

type Neo4jConfig struct {
	URI      string
	User     string
	Password string
	Database string
	Timeout  time.Duration
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	TTL      time.Duration
}

func Load() Config {
	dataDir := envutil.String("DATA_DIR", "data")
	return Config{
		OpenAI: OpenAIConfig{
			APIKey:      envutil.String("OPENAI_API_KEY", ""),
			BaseURL:     envutil.String("OPENAI_BASE_URL", "https://api.openai.com/v1"),
			Model:       envutil.String("OPENAI_MODEL", "gpt-5.2"),
			Timeout:     time.Duration(envutil.Int("OPENAI_TIMEOUT_SECONDS", 120)) * time.Second,
			Temperature: 0.7,
		},
		Neo4j: Neo4jConfig{
			URI:      envutil.String("NEO4J_URI", ""),
			User:     envutil.String("NEO4J_USER", "neo4j"),
			Password: envutil.String("NEO4J_PASSWORD", ""),
			Database: envutil.String("NEO4J_DATABASE", ""),
			Timeout:  time.Duration(envutil.Int("NEO4J_TIMEOUT_SECONDS", 10)) * time.Second,
		},
		Redis: RedisConfig{
			Addr:     envutil.String("REDIS_ADDR", ""),
			Password: envutil.String("REDIS_PASSWORD", ""),
			DB:       envutil.Int("REDIS_DB", 0),
			TTL:      time.Duration(envutil.Int("REDIS_CACHE_TTL_SECONDS", 900)) * time.Second,
		},
		SocialEndpoint: envutil.String("SOCIAL_SEARCH_ENDPOINT", "http://localhost:8000"),
		SocialTimeout:  time.Duration(envutil.Int("SOCIAL_SEARCH_TIMEOUT_SECONDS", 2)) * time.Second,

		WebSearchAPIKey:   envutil.String("WEB_SEARCH_API_KEY", ""),
		WebSearchEndpoint: envutil.String("WEB_SEARCH_ENDPOINT", "https://api.tavily.com/search"),
		WebSearchTimeout:  time.Duration(envutil.Int("WEB_SEARCH_TIMEOUT_SECONDS", 5)) * time.Second,

		DataDir:    dataDir,
		NotesDir:   filepath.Join(dataDir, "notes"),
		ExportsDir: filepath.Join(dataDir, "exports"),
	}
}

// Validate reports configuration the pipeline cannot run without. Retrieval
// and graph credentials are optional (those stages degrade); the generation
// credential is not.
func (c *Config) Validate() error {
	if c.OpenAI.APIKey == "" {
		return fmt.Errorf("config: OPENAI_API_KEY is required")
	}
	return nil
}
