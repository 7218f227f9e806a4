package backend

import (
	"errors"
	"fmt"

	"budgetx/internal/config"
)

type Config struct {
	Type BackendType

	SQLitePath   string
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// SeedDir optionally holds <key>.json documents for the memory backend.
	SeedDir string
}

// FromAppConfig picks out the backend settings and resolves the SQLite
// path from DATABASE_URL.
func FromAppConfig(app *config.Config) (Config, error) {
	if app == nil {
		return Config{}, errors.New("app config is nil")
	}

	cfg := Config{
		Type:         BackendType(app.DataBackend),
		AMQPURL:      app.AMQPURL,
		AMQPExchange: app.AMQPExchange,
		AMQPQueue:    app.AMQPQueue,
		SeedDir:      app.SeedDir,
	}
	if cfg.Type == SQLiteBackend {
		path, err := app.SQLitePath()
		if err != nil {
			return Config{}, err
		}
		cfg.SQLitePath = path
	}
	return cfg, cfg.Validate()
}

func (c Config) Validate() error {
	switch c.Type {
	case SQLiteBackend:
		if c.SQLitePath == "" {
			return errors.New("sqlite backend needs a database path")
		}
		if c.AMQPURL != "" && (c.AMQPExchange == "" || c.AMQPQueue == "") {
			return errors.New("AMQP exchange and queue are required when AMQP is enabled")
		}
	case MemoryBackend:
	default:
		return fmt.Errorf("%w %q: want %s or %s", errUnknownBackend, c.Type, SQLiteBackend, MemoryBackend)
	}
	return nil
}
