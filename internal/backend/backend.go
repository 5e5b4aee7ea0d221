// Package backend assembles the funding service from configuration: the
// request store, the optional AMQP publisher and their cleanup.
package backend

import (
	"fmt"
	"log/slog"

	"fundreq/internal/amqp"
	"fundreq/internal/config"
	"fundreq/internal/services"
	"fundreq/internal/storage"
)

// Type selects the request store implementation.
type Type string

const (
	SQLiteBackend Type = "sqlite"
	MemoryBackend Type = "memory"
)

func (t Type) String() string {
	return string(t)
}

// IsValid returns true if the backend type is known.
func (t Type) IsValid() bool {
	switch t {
	case SQLiteBackend, MemoryBackend:
		return true
	default:
		return false
	}
}

// Config holds what the factory needs to build a backend.
type Config struct {
	Type Type

	SQLiteDBPath string
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string
}

// FromAppConfig converts application config to backend config.
func FromAppConfig(appConfig *config.Config) (Config, error) {
	if appConfig == nil {
		return Config{}, fmt.Errorf("app config is nil")
	}

	t := Type(appConfig.DataBackend)
	if !t.IsValid() {
		return Config{}, fmt.Errorf("invalid backend type in config: %s", appConfig.DataBackend)
	}

	return Config{
		Type:         t,
		SQLiteDBPath: appConfig.SQLiteDBPath,
		AMQPURL:      appConfig.AMQPURL,
		AMQPExchange: appConfig.AMQPExchange,
		AMQPQueue:    appConfig.AMQPQueue,
	}, nil
}

// Validate checks the backend configuration.
func (c Config) Validate() error {
	if !c.Type.IsValid() {
		return fmt.Errorf("invalid backend type: %s", c.Type)
	}
	if c.Type == SQLiteBackend && c.SQLiteDBPath == "" {
		return fmt.Errorf("SQLite database path is required for sqlite backend")
	}
	// AMQP stays optional: without it, requests are exported by the
	// worker's catch-up pass only.
	return nil
}

// NewFundingService builds the funding service for the configured backend.
func NewFundingService(cfg Config, logger *slog.Logger) (*services.FundingService, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	switch cfg.Type {
	case MemoryBackend:
		logger.Info("Initialized memory backend")
		return services.NewFundingService(storage.NewMemoryStore(), nil), nil

	case SQLiteBackend:
		repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
		if err != nil {
			return nil, fmt.Errorf("initialize SQLite repository: %w", err)
		}

		var publisher services.Publisher
		closers := []func() error{repo.Close}
		if cfg.AMQPURL != "" {
			client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
			if err != nil {
				logger.Warn("Failed to initialize AMQP client, continuing without publisher", "error", err)
			} else {
				logger.Info("Initialized AMQP client",
					"exchange", cfg.AMQPExchange,
					"queue", cfg.AMQPQueue)
				publisher = client
				closers = append(closers, client.Close)
			}
		}

		logger.Info("Initialized SQLite backend",
			"db_path", cfg.SQLiteDBPath,
			"amqp_enabled", publisher != nil)

		return services.NewFundingService(repo, publisher, closers...), nil

	default:
		return nil, fmt.Errorf("unsupported backend type: %s", cfg.Type)
	}
}
