package repository

import (
	"context"
	"fmt"
	"sort"

	"github.com/noah-isme/class-control-api/internal/models"
	"github.com/noah-isme/class-control-api/pkg/docstore"
)

// GeographyRepository lists the country, state and site documents.
type GeographyRepository struct {
	store docstore.Store
}

// NewGeographyRepository constructs a GeographyRepository.
func NewGeographyRepository(store docstore.Store) *GeographyRepository {
	return &GeographyRepository{store: store}
}

// Countries lists every country.
func (r *GeographyRepository) Countries(ctx context.Context) ([]models.GeoEntry, error) {
	return r.list(ctx, CountriesCollection)
}

// States lists the states of a country.
func (r *GeographyRepository) States(ctx context.Context, country string) ([]models.GeoEntry, error) {
	return r.list(ctx, docstore.Join(CountriesCollection, country, "states"))
}

// Sites lists the sites of a state.
func (r *GeographyRepository) Sites(ctx context.Context, country, state string) ([]models.GeoEntry, error) {
	return r.list(ctx, docstore.Join(CountriesCollection, country, "states", state, "sites"))
}

func (r *GeographyRepository) list(ctx context.Context, collection string) ([]models.GeoEntry, error) {
	docs, err := r.store.List(ctx, collection)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", collection, err)
	}
	entries := make([]models.GeoEntry, 0, len(docs))
	for _, doc := range docs {
		entries = append(entries, models.GeoEntryFromDocument(doc))
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name < entries[j].Name })
	return entries, nil
}
