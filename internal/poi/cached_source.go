package poi

import (
	"context"
	"fmt"
	"strings"
	"time"

	"ai-trip-planner/internal/trip"

	gocache "github.com/patrickmn/go-cache"
)

// CachedSource wraps a Source to cache search results, reducing collaborator
// calls across turns of the same conversation.
type CachedSource struct {
	realSource Source
	cache      *gocache.Cache
}

// NewCachedSource creates a caching wrapper with the given TTL.
func NewCachedSource(realSource Source, ttl time.Duration) *CachedSource {
	return &CachedSource{
		realSource: realSource,
		cache:      gocache.New(ttl, 2*ttl),
	}
}

// SearchPOIs checks the cache first. Exclusion lists vary per call, so only
// the city/interests/category axis is cached and constraints are re-applied
// to the cached set.
func (c *CachedSource) SearchPOIs(ctx context.Context, city string, interests []string, constraints SearchConstraints) ([]trip.POI, error) {
	key := cacheKey(city, interests, constraints.Category)

	if v, ok := c.cache.Get(key); ok {
		return Filter(v.([]trip.POI), constraints), nil
	}

	broad := constraints
	broad.ExcludeNames = nil
	broad.IndoorOnly = false
	broad.Limit = 0

	pois, err := c.realSource.SearchPOIs(ctx, city, interests, broad)
	if err != nil {
		return nil, fmt.Errorf("poi search failed: %w", err)
	}

	c.cache.SetDefault(key, pois)
	return Filter(pois, constraints), nil
}

func cacheKey(city string, interests []string, category string) string {
	return strings.ToLower(city + "|" + strings.Join(interests, ",") + "|" + category)
}
