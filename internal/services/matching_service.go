package services

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/govjobalert/govjobalert/internal/models"
)

const (
	FallbackCategory = "uncategorized"
	FallbackLocation = "various"
	FallbackState    = "various"

	// Names shorter than this match too much text to be useful.
	minMatchLen = 3
)

// CatalogSource lists the categories and locations known to the board.
type CatalogSource interface {
	ListCategories(ctx context.Context) ([]models.Category, error)
	ListLocations(ctx context.Context) ([]models.Location, error)
}

// MatcherService resolves free text from a scraped listing to catalog slugs.
type MatcherService struct {
	Source CatalogSource

	mu         sync.RWMutex
	categories []models.Category
	locations  []models.Location
}

func NewMatcherService(source CatalogSource) *MatcherService {
	return &MatcherService{Source: source}
}

// Refresh reloads the catalog. Longer names are tried first so that
// "Navi Mumbai" wins over "Mumbai".
func (s *MatcherService) Refresh(ctx context.Context) error {
	categories, err := s.Source.ListCategories(ctx)
	if err != nil {
		return fmt.Errorf("load categories: %w", err)
	}
	locations, err := s.Source.ListLocations(ctx)
	if err != nil {
		return fmt.Errorf("load locations: %w", err)
	}
	slices.SortStableFunc(categories, func(a, b models.Category) int {
		return cmp.Compare(len(b.Name), len(a.Name))
	})
	slices.SortStableFunc(locations, func(a, b models.Location) int {
		return cmp.Compare(len(b.City), len(a.City))
	})

	s.mu.Lock()
	s.categories, s.locations = categories, locations
	s.mu.Unlock()
	return nil
}

// MatchCategory returns the slug of the first category whose name or slug
// appears in any of texts, or FallbackCategory.
func (s *MatcherService) MatchCategory(texts ...string) string {
	haystack := strings.ToLower(strings.Join(texts, " "))

	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, c := range s.categories {
		if containsName(haystack, c.Name) || containsName(haystack, c.Slug) {
			return c.Slug
		}
	}
	return FallbackCategory
}

// MatchLocation returns the slug and state of the first location whose city
// appears in any of texts, or the "various" fallbacks.
func (s *MatcherService) MatchLocation(texts ...string) (slug, state string) {
	haystack := strings.ToLower(strings.Join(texts, " "))

	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, l := range s.locations {
		if containsName(haystack, l.City) {
			return l.Slug, l.State
		}
	}
	// A state name alone still narrows the listing.
	for _, l := range s.locations {
		if containsName(haystack, l.State) {
			return FallbackLocation, l.State
		}
	}
	return FallbackLocation, FallbackState
}

func containsName(haystack, name string) bool {
	name = strings.ToLower(strings.TrimSpace(name))
	if len(name) < minMatchLen {
		return false
	}
	return strings.Contains(haystack, name)
}
