// Package database opens the MySQL pool shared by every store.
package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"

	"github.com/openvoyage/touring-api/internal/config"
)

const (
	maxOpenConns = 25
	maxIdleConns = 10
	connLifetime = 30 * time.Minute
	pingTimeout  = 5 * time.Second
)

// Open builds the DSN from the loaded configuration, opens the pool and
// verifies connectivity before the server starts accepting requests.
func Open(cfg config.Config) (*sql.DB, error) {
	creds := cfg.DBUser
	if cfg.DBPass != "" {
		creds += ":" + cfg.DBPass
	}
	// parseTime turns DATETIME columns into time.Time; loc=UTC keeps every
	// timestamp in one zone end to end.
	dsn := fmt.Sprintf("%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=true&loc=UTC",
		creds, cfg.DBHost, cfg.DBPort, cfg.DBName)

	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("open mysql: %w", err)
	}
	db.SetMaxOpenConns(maxOpenConns)
	db.SetMaxIdleConns(maxIdleConns)
	db.SetConnMaxLifetime(connLifetime)

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping mysql: %w", err)
	}
	return db, nil
}
