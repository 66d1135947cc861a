package scheduler

import (
	"sort"
	"strings"

	"ai-trip-planner/internal/trip"

	"github.com/samber/lo"
)

// InterestMatch counts how many stated interests a POI satisfies, matching
// against category, name and description.
func InterestMatch(p trip.POI, interests []string) int {
	haystack := strings.ToLower(p.Category + " " + p.Name + " " + p.Description)
	return lo.CountBy(interests, func(interest string) bool {
		return strings.Contains(haystack, strings.ToLower(interest))
	})
}

// Score ranks a POI for selection. Interest match dominates; POIs unused in
// this session, rated POIs, and complete metadata break toward the front.
func Score(p trip.POI, interests []string, used map[string]bool) float64 {
	s := 2.0 * float64(InterestMatch(p, interests))
	if !used[p.Name] {
		s += 1.0
	}
	s += p.Rating / 5.0
	if p.MetadataComplete() {
		s += 0.25
	}
	return s
}

// SelectPOIs returns the top n candidates. Ties break by higher interest
// match, then by source completeness (travel cost is applied later, at
// ordering time, once a previous activity exists).
func SelectPOIs(pois []trip.POI, interests []string, used map[string]bool, n int) []trip.POI {
	ranked := append([]trip.POI(nil), pois...)
	sort.SliceStable(ranked, func(i, j int) bool {
		si, sj := Score(ranked[i], interests, used), Score(ranked[j], interests, used)
		if si != sj {
			return si > sj
		}
		mi, mj := InterestMatch(ranked[i], interests), InterestMatch(ranked[j], interests)
		if mi != mj {
			return mi > mj
		}
		return ranked[i].MetadataComplete() && !ranked[j].MetadataComplete()
	})
	if n > 0 && len(ranked) > n {
		ranked = ranked[:n]
	}
	return ranked
}
