package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spigell/skillmatch/internal/logger"
	"go.uber.org/zap"
)

const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"
	BackendS3     = "s3"
)

// Config selects the durable snapshot backend.
type Config struct {
	Enabled    bool     `mapstructure:"enabled"`
	Backend    string   `mapstructure:"backend"`
	Dir        string   `mapstructure:"dir"`
	SQLitePath string   `mapstructure:"sqlite-path"`
	S3         S3Config `mapstructure:"s3"`
}

// Layered writes every snapshot to memory and, when configured, to a durable store.
// Durable failures are logged and never fail a save.
type Layered struct {
	memory  *Memory
	durable Store
	logger  *zap.Logger
}

func NewLayered(durable Store, log *zap.Logger) *Layered {
	return &Layered{
		memory:  NewMemory(),
		durable: durable,
		logger:  logger.OrNop(log),
	}
}

func (l *Layered) Save(ctx context.Context, snapshot *Snapshot) error {
	if err := l.memory.Save(ctx, snapshot); err != nil {
		return err
	}

	if l.durable == nil {
		return nil
	}
	if err := l.durable.Save(ctx, snapshot); err != nil {
		logger.WithSession(l.logger, snapshot.Session).Warn("writing durable snapshot failed", zap.Error(err))
	}
	return nil
}

// Load returns the newer of the durable and in-memory snapshots. Memory wins ties, so a
// failed durable write never hides the latest build of this process.
func (l *Layered) Load(ctx context.Context, session string) (*Snapshot, error) {
	inMemory, memErr := l.memory.Load(ctx, session)
	if l.durable == nil {
		return inMemory, memErr
	}

	durable, err := l.durable.Load(ctx, session)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			logger.WithSession(l.logger, session).Warn("reading durable snapshot failed", zap.Error(err))
		}
		return inMemory, memErr
	}

	if memErr == nil && !durable.SavedAt.After(inMemory.SavedAt) {
		return inMemory, nil
	}
	return durable, nil
}

// Open builds the store described by cfg. A disabled config yields a memory-only store.
func Open(ctx context.Context, cfg Config, log *zap.Logger) (*Layered, error) {
	if !cfg.Enabled {
		return NewLayered(nil, log), nil
	}

	var (
		durable Store
		err     error
	)
	switch strings.ToLower(strings.TrimSpace(cfg.Backend)) {
	case "", BackendFile:
		durable, err = NewFile(cfg.Dir)
	case BackendSQLite:
		durable, err = NewSQLite(cfg.SQLitePath)
	case BackendS3:
		durable, err = NewS3(ctx, cfg.S3)
	default:
		return nil, fmt.Errorf("unsupported snapshot backend: %s", cfg.Backend)
	}
	if err != nil {
		return nil, fmt.Errorf("opening %s snapshot store: %w", cfg.Backend, err)
	}

	logger.OrNop(log).Info("snapshot store opened", zap.String("backend", cfg.Backend))
	return NewLayered(durable, log), nil
}

// Close releases the durable store when it holds resources.
func (l *Layered) Close() error {
	if closer, ok := l.durable.(interface{ Close() error }); ok {
		return closer.Close()
	}
	return nil
}
