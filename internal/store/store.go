// Package store selects and opens the backing persistence driver.
package store

import (
	"context"
	"fmt"

	"github.com/maticastro/authgate/internal/domain/repository"
)

// Store exposes the repositories backed by one driver.
type Store interface {
	Users() repository.UserRepository
	Tokens() repository.TokenRepository
	Otps() repository.OtpRepository

	// Ping verifies connectivity (readiness probe).
	Ping(ctx context.Context) error

	// Close releases the underlying connections.
	Close()
}

// Config selects a driver.
type Config struct {
	// Driver is "postgres" or "memory".
	Driver string

	// DSN is the connection string (postgres only).
	DSN string

	// MaxConns caps the pool size; 0 uses the driver default.
	MaxConns int
}

// Opener is implemented by driver packages and registered at init time.
type Opener func(ctx context.Context, cfg Config) (Store, error)

var openers = map[string]Opener{}

// Register makes a driver available to Open. Called from driver init().
func Register(name string, open Opener) {
	openers[name] = open
}

// Open builds a Store for the configured driver.
func Open(ctx context.Context, cfg Config) (Store, error) {
	driver := cfg.Driver
	if driver == "" {
		driver = "postgres"
	}
	open, ok := openers[driver]
	if !ok {
		return nil, fmt.Errorf("store: unknown driver %q", driver)
	}
	return open(ctx, cfg)
}
