package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/noah-isme/class-control-api/internal/models"
)

type geographyRepository interface {
	Countries(ctx context.Context) ([]models.GeoEntry, error)
	States(ctx context.Context, country string) ([]models.GeoEntry, error)
	Sites(ctx context.Context, country, state string) ([]models.GeoEntry, error)
}

// GeographyService lists the login picker entries.
type GeographyService struct {
	repo   geographyRepository
	cache  *CacheService
	logger *zap.Logger
}

// NewGeographyService constructs a GeographyService.
func NewGeographyService(repo geographyRepository, cache *CacheService, logger *zap.Logger) *GeographyService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GeographyService{repo: repo, cache: cache, logger: logger}
}

// Countries lists countries sorted by name.
func (s *GeographyService) Countries(ctx context.Context) ([]models.GeoEntry, error) {
	return s.cached(ctx, geographyCacheKey("countries"), func() ([]models.GeoEntry, error) {
		return s.repo.Countries(ctx)
	})
}

// States lists the states of a country.
func (s *GeographyService) States(ctx context.Context, country string) ([]models.GeoEntry, error) {
	return s.cached(ctx, geographyCacheKey("states", country), func() ([]models.GeoEntry, error) {
		return s.repo.States(ctx, country)
	})
}

// Sites lists the sites of a state.
func (s *GeographyService) Sites(ctx context.Context, country, state string) ([]models.GeoEntry, error) {
	return s.cached(ctx, geographyCacheKey("sites", country, state), func() ([]models.GeoEntry, error) {
		return s.repo.Sites(ctx, country, state)
	})
}

// Invalidate drops every cached listing.
func (s *GeographyService) Invalidate(ctx context.Context) error {
	if err := s.cache.InvalidateGeography(ctx); err != nil {
		return internalError(err, "failed to invalidate geography cache")
	}
	return nil
}

func (s *GeographyService) cached(ctx context.Context, key string, load func() ([]models.GeoEntry, error)) ([]models.GeoEntry, error) {
	var entries []models.GeoEntry
	_, err := s.cache.Remember(ctx, key, &entries, func() (interface{}, error) {
		return load()
	})
	if err != nil {
		return nil, internalError(err, "failed to list geography")
	}
	if entries == nil {
		entries = []models.GeoEntry{}
	}
	return entries, nil
}
