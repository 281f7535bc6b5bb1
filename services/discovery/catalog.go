package discovery

import (
	dinder_constants "Dinder/constants/dinder"
	"Dinder/models/postgres"
	session_models "Dinder/models/session"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"

	"gorm.io/gorm"
)

// CatalogProvider draws candidates from the restaurants table. Radius is not
// applied: the catalog only knows cities, not coordinates.
type CatalogProvider struct {
	db *gorm.DB
}

func NewCatalogProvider(db *gorm.DB) *CatalogProvider {
	return &CatalogProvider{db: db}
}

func (p *CatalogProvider) FetchCandidates(ctx context.Context, query session_models.Query) ([]session_models.Candidate, error) {
	tx := p.db.WithContext(ctx).Model(&postgres.Restaurant{})
	if location := strings.TrimSpace(query.Location); location != "" {
		tx = tx.Where("LOWER(city) = LOWER(?)", location)
	}
	if len(query.Filters.PriceTiers) > 0 {
		tx = tx.Where("price_tier IN ?", query.Filters.PriceTiers)
	}
	if query.Filters.MinRating != nil {
		tx = tx.Where("rating >= ?", *query.Filters.MinRating)
	}

	var rows []postgres.Restaurant
	err := tx.Order("rating DESC").Order("reviews DESC").
		Limit(dinder_constants.MaxCandidates).
		Find(&rows).Error
	if err != nil {
		return nil, fail("catalog", fmt.Errorf("error querying restaurants: %w", err))
	}

	candidates := make([]session_models.Candidate, 0, len(rows))
	for _, row := range rows {
		candidates = append(candidates, restaurantCandidate(row))
	}
	return finish("catalog", candidates)
}

func restaurantCandidate(r postgres.Restaurant) session_models.Candidate {
	tags := []string{}
	if len(r.Tags) > 0 {
		if err := json.Unmarshal(r.Tags, &tags); err != nil {
			log.Printf("[CATALOG-ERROR] Restaurant %s has unreadable tags: %v", r.ID, err)
			tags = []string{}
		}
	}
	return session_models.Candidate{
		ID:             r.ID,
		Name:           r.Name,
		Category:       r.Cuisine,
		PriceTier:      r.PriceTier,
		Rating:         r.Rating,
		Proximity:      r.Proximity,
		Tags:           tags,
		ImageRef:       r.ImageRef,
		ExternalMapRef: r.MapsURI,
		Reviews:        r.Reviews,
	}
}
