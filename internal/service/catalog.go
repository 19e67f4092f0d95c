package service

import (
	"context"
	"time"

	"github.com/robertarktes/court-reservations/internal/domain"
	"github.com/robertarktes/court-reservations/internal/observability"
)

// Catalog is the read-only court and sport data the core depends on.
type Catalog interface {
	Sports(ctx context.Context) ([]domain.Sport, error)
	Courts(ctx context.Context, clubID, sportID *int64) ([]domain.Court, error)
	Court(ctx context.Context, id int64) (domain.Court, error)
}

type SportsCache interface {
	GetSports(ctx context.Context) ([]domain.Sport, bool, error)
	SetSports(ctx context.Context, sports []domain.Sport, ttl time.Duration) error
}

type SportsService struct {
	catalog Catalog
	cache   SportsCache
	ttl     time.Duration
	logger  observability.Logger
}

// NewSportsService returns a service that reads through cache when it is not nil.
func NewSportsService(catalog Catalog, cache SportsCache, ttl time.Duration, logger observability.Logger) *SportsService {
	return &SportsService{catalog: catalog, cache: cache, ttl: ttl, logger: logger}
}

// List serves sports from the cache when possible. Cache failures are logged and bypassed.
func (s *SportsService) List(ctx context.Context) ([]domain.Sport, error) {
	if s.cache != nil {
		sports, ok, err := s.cache.GetSports(ctx)
		if err != nil {
			s.logger.WithField("error", err.Error()).Warn("sports cache read failed")
		}
		if ok {
			return sports, nil
		}
	}

	sports, err := s.catalog.Sports(ctx)
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		if err := s.cache.SetSports(ctx, sports, s.ttl); err != nil {
			s.logger.WithField("error", err.Error()).Warn("sports cache write failed")
		}
	}
	return sports, nil
}
