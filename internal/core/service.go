package core

import (
	"context"
	"errors"
	"log/slog"
	"time"
)

// ImportTimeout bounds one whole import, fetch included.
var ImportTimeout = 10 * time.Minute

// Source produces the raw rows of one import. The first row is the header.
type Source interface {
	// Describe names the source for logs and import history.
	Describe() string

	// ReadRows retrieves and tokenizes the source.
	ReadRows(ctx context.Context) ([]RawRow, error)
}

// ServiceConfig holds the optional settings of a Service.
type ServiceConfig struct {
	// LockWait is how long an import waits for another to finish.
	LockWait time.Duration

	Logger *slog.Logger
}

// Service runs imports against one FeedStore. At most one import writes to
// the store at a time.
type Service struct {
	store   FeedStore
	limiter *ImportLimiter
	logger  *slog.Logger
}

// NewService returns a ready Service. A nil store is a construction error.
func NewService(store FeedStore, cfg ServiceConfig) (*Service, error) {
	if store == nil {
		return nil, errors.New("core: nil feed store")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Service{
		store:   store,
		limiter: NewImportLimiter(cfg.LockWait),
		logger:  logger,
	}, nil
}

// Limiter exposes the import lock, for shutdown draining.
func (s *Service) Limiter() *ImportLimiter {
	return s.limiter
}
