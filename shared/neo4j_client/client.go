// Обёртка над драйвером Neo4j, общая для репозиториев
package neo4jclient

import (
	"context"
	"errors"
	"fmt"
	"sync_service/shared/config"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

var ErrNilConfig = errors.New("neo4j config is nil")

type Client struct {
	driver   neo4j.DriverWithContext
	database string
}

// NewClient создаёт драйвер и проверяет соединение
func NewClient(ctx context.Context, cfg *config.Neo4jConfig) (*Client, error) {
	if cfg == nil {
		return nil, ErrNilConfig
	}

	driver, err := neo4j.NewDriverWithContext(
		cfg.URI,
		neo4j.BasicAuth(cfg.Username, cfg.Password, ""),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create Neo4j driver: %w", err)
	}

	verifyCtx, cancel := context.WithTimeout(ctx, cfg.ConnectTimeout)
	defer cancel()

	if err := driver.VerifyConnectivity(verifyCtx); err != nil {
		_ = driver.Close(ctx)
		return nil, fmt.Errorf("failed to verify Neo4j connectivity: %w", err)
	}

	return &Client{driver: driver, database: cfg.Database}, nil
}

// NewSession открывает сессию к базе из конфига
func (c *Client) NewSession(ctx context.Context, mode neo4j.AccessMode) neo4j.SessionWithContext {
	return c.driver.NewSession(ctx, neo4j.SessionConfig{
		AccessMode:   mode,
		DatabaseName: c.database,
	})
}

func (c *Client) Close(ctx context.Context) error {
	if c.driver != nil {
		return c.driver.Close(ctx)
	}
	return nil
}
