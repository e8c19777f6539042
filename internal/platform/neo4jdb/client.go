package neo4jdb

import (
	"context"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/yungbote/lazytrip-backend/internal/config"
	"github.com/yungbote/lazytrip-backend/internal/platform/logger"
)

// Client wraps a single driver opened once per service instance. A nil Driver
// means the graph store is not configured or not reachable; callers treat that
// as a logged no-op rather than an error.
type Client struct {
	Driver   neo4j.DriverWithContext
	Database string
	log      *logger.Logger
}

func New(cfg config.Neo4jConfig, log *logger.Logger) *Client {
	c := &Client{Database: cfg.Database, log: log.With("client", "Neo4jDB")}

	if cfg.URI == "" {
		c.log.Warn("Neo4j not configured; graph features disabled")
		return c
	}

	auth := neo4j.BasicAuth(cfg.User, cfg.Password, "")
	driver, err := neo4j.NewDriverWithContext(cfg.URI, auth, func(dc *neo4j.Config) {
		dc.SocketConnectTimeout = cfg.Timeout
	})
	if err != nil {
		c.log.Warn("Neo4j init failed; graph features disabled", "error", err)
		return c
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Timeout)
	defer cancel()
	if err := driver.VerifyConnectivity(ctx); err != nil {
		_ = driver.Close(ctx)
		c.log.Warn("Neo4j unreachable; graph features disabled", "uri", cfg.URI, "error", err)
		return c
	}

	c.Driver = driver
	return c
}

func (c *Client) Connected() bool {
	return c != nil && c.Driver != nil
}

func (c *Client) Close(ctx context.Context) error {
	if c == nil || c.Driver == nil {
		return nil
	}
	if ctx == nil {
		ctx = context.Background()
	}
	err := c.Driver.Close(ctx)
	c.Driver = nil
	return err
}
