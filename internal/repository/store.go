// Package repository is the record store: durable persistence for users,
// devices, readings, analyses, FHIR projections, revocations, and audit
// events, via sqlx + lib/pq.
package repository

import (
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/zeromicro/go-zero/core/logx"

	"github.com/medhealth/vitalcore/internal/config"
	"github.com/medhealth/vitalcore/internal/migrate"
)

// Store wraps the bounded connection pool and hosts all entity
// repositories as methods, so the svc.ServiceContext can hold a single
// *Store instead of one struct per table.
type Store struct {
	DB *sqlx.DB
}

// Open connects to Postgres and configures the pool bounds from config.
// cfg.AcquireTimeoutS is not applied: sql.DB has no acquire-timeout
// setting, so a call waiting on a full pool waits until its own context
// is done.
func Open(cfg config.DatabaseConfig) (*Store, error) {
	db, err := sqlx.Connect("postgres", cfg.URL)
	if err != nil {
		logx.Errorf("failed to connect to postgres: %v", err)
		return nil, fmt.Errorf("connect postgres: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxConns)
	db.SetMaxIdleConns(cfg.MinConns)
	db.SetConnMaxIdleTime(time.Duration(cfg.IdleTimeoutS) * time.Second)
	db.SetConnMaxLifetime(time.Duration(cfg.MaxLifetimeS) * time.Second)

	if err := db.Ping(); err != nil {
		logx.Errorf("failed to ping postgres: %v", err)
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	if err := migrate.Apply(db.DB); err != nil {
		logx.Errorf("failed to apply migrations: %v", err)
		return nil, fmt.Errorf("apply migrations: %w", err)
	}

	logx.Info("connected to postgres")
	return &Store{DB: db}, nil
}

func (s *Store) Close() error {
	return s.DB.Close()
}

// Healthy reports whether the store can still serve a round-trip, used by
// GET /health.
func (s *Store) Healthy() bool {
	return s.DB.Ping() == nil
}
