package startup

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	embeddedpostgres "github.com/fergusstrange/embedded-postgres"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/miamiwave/internal/logger"
)

// ConnectDBWithRetry подключается к Postgres с повторами; недоступная при старте БД не роняет процесс сразу.
func ConnectDBWithRetry(ctx context.Context, poolCfg *pgxpool.Config, maxWait time.Duration) (*pgxpool.Pool, error) {
	var pool *pgxpool.Pool
	err := retry(ctx, maxWait, "db connect", func(ctx context.Context) error {
		connCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		p, err := pgxpool.NewWithConfig(connCtx, poolCfg)
		cancel()
		if err != nil {
			return err
		}
		pingCtx, pingCancel := context.WithTimeout(ctx, 5*time.Second)
		err = p.Ping(pingCtx)
		pingCancel()
		if err != nil {
			p.Close()
			return err
		}
		pool = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	return pool, nil
}

// EmbeddedDB — локальный Postgres для режима -dev.
type EmbeddedDB struct {
	db  *embeddedpostgres.EmbeddedPostgres
	URL string
}

// StartEmbeddedPostgres поднимает Postgres в ./.pgdata.
func StartEmbeddedPostgres(port uint32) (*EmbeddedDB, error) {
	const (
		user     = "miamiwave"
		password = "miamiwave_dev"
		database = "miamiwave"
	)
	if port == 0 {
		port = 5432
	}

	dataDir := filepath.Join(".", ".pgdata")
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("create pgdata dir: %w", err)
	}

	db := embeddedpostgres.NewDatabase(
		embeddedpostgres.DefaultConfig().
			Port(port).
			Username(user).
			Password(password).
			Database(database).
			DataPath(dataDir).
			RuntimePath(filepath.Join(os.TempDir(), "embedded-pg-runtime")),
	)

	logger.Info("starting embedded PostgreSQL...")
	if err := db.Start(); err != nil {
		return nil, fmt.Errorf("start embedded postgres: %w", err)
	}
	logger.Infof("embedded PostgreSQL running on port %d", port)
	return &EmbeddedDB{
		db:  db,
		URL: fmt.Sprintf("postgres://%s:%s@localhost:%d/%s?sslmode=disable", user, password, port, database),
	}, nil
}

func (e *EmbeddedDB) Stop() {
	logger.Info("stopping embedded postgres...")
	if err := e.db.Stop(); err != nil {
		logger.Errorf("embedded postgres stop: %v", err)
	}
}
