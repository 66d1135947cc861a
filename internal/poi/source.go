package poi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"ai-trip-planner/internal/config"
	"ai-trip-planner/internal/trip"
)

// SearchConstraints narrow a POI search beyond city and interests.
type SearchConstraints struct {
	Category     string   // restrict to one category (e.g. "museum")
	IndoorOnly   bool     // e.g. "swap for something indoors"
	ExcludeNames []string // POIs already placed elsewhere in the plan
	Limit        int      // 0 = source default
}

// Source is the POI-search collaborator contract. Every returned POI must
// carry a non-empty SourceID.
type Source interface {
	SearchPOIs(ctx context.Context, city string, interests []string, c SearchConstraints) ([]trip.POI, error)
}

// categoryVisitMinutes substitutes a default visit duration when a POI
// arrives without an estimate. Such activities are flagged uncertain.
var categoryVisitMinutes = map[string]int{
	"museum":     120,
	"fort":       150,
	"palace":     120,
	"temple":     60,
	"market":     90,
	"food":       75,
	"restaurant": 75,
	"park":       60,
	"garden":     60,
	"viewpoint":  45,
	"gallery":    90,
}

// DefaultVisitMinutes returns the category default, or 60 for unknown categories.
func DefaultVisitMinutes(category string) int {
	if m, ok := categoryVisitMinutes[strings.ToLower(category)]; ok {
		return m
	}
	return 60
}

// alternatives offered when a city has no POI data.
var knownCities = []string{"Jaipur", "Mumbai", "Delhi", "Udaipur", "Goa", "Agra"}

// SuggestAlternatives returns at least three cities we do have data for,
// excluding the one that failed.
func SuggestAlternatives(city string) []string {
	var out []string
	for _, c := range knownCities {
		if !strings.EqualFold(c, city) {
			out = append(out, c)
		}
		if len(out) == 5 {
			break
		}
	}
	return out
}

// httpSource is the concrete HTTP implementation of the Source contract.
type httpSource struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewHTTPSource creates a Source backed by the configured POI API.
func NewHTTPSource(cfg *config.Config) Source {
	return &httpSource{
		baseURL:    strings.TrimRight(cfg.POIAPIURL, "/"),
		apiKey:     cfg.POIAPIKey,
		httpClient: &http.Client{},
	}
}

type poisResponse struct {
	POIs []trip.POI `json:"pois"`
}

// SearchPOIs queries the POI API and filters the response by constraints.
func (s *httpSource) SearchPOIs(ctx context.Context, city string, interests []string, c SearchConstraints) ([]trip.POI, error) {
	q := url.Values{}
	q.Set("city", city)
	q.Set("interests", strings.Join(interests, ","))
	if c.Category != "" {
		q.Set("category", c.Category)
	}
	if c.Limit > 0 {
		q.Set("limit", fmt.Sprintf("%d", c.Limit))
	}

	reqURL := fmt.Sprintf("%s/pois?%s", s.baseURL, q.Encode())
	req, err := http.NewRequestWithContext(ctx, "GET", reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if s.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+s.apiKey)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("poi api error: status %d", resp.StatusCode)
	}

	var parsed poisResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	return Filter(parsed.POIs, c), nil
}

// Filter applies constraints a source may not enforce server-side. POIs
// without a source identifier are dropped here; grounding forbids them.
func Filter(pois []trip.POI, c SearchConstraints) []trip.POI {
	excluded := make(map[string]bool, len(c.ExcludeNames))
	for _, n := range c.ExcludeNames {
		excluded[strings.ToLower(n)] = true
	}

	var out []trip.POI
	for _, p := range pois {
		if p.SourceID == "" {
			continue
		}
		if excluded[strings.ToLower(p.Name)] {
			continue
		}
		if c.IndoorOnly && !p.Indoor {
			continue
		}
		if c.Category != "" && !strings.EqualFold(p.Category, c.Category) {
			continue
		}
		out = append(out, p)
	}
	if c.Limit > 0 && len(out) > c.Limit {
		out = out[:c.Limit]
	}
	return out
}
