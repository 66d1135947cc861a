package scheduler

import (
	"sort"

	"ai-trip-planner/internal/trip"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geo"
)

// ClusterByDay groups POIs into one geographic cluster per day so that a
// day's activities sit close together. Seeds are spread with a
// farthest-point pass, then POIs fill the nearest seed with free capacity.
func ClusterByDay(pois []trip.POI, days, perDayCap int) [][]trip.POI {
	if days <= 0 {
		return nil
	}
	clusters := make([][]trip.POI, days)
	if len(pois) == 0 {
		return clusters
	}
	if days == 1 {
		clusters[0] = append([]trip.POI(nil), pois...)
		if perDayCap > 0 && len(clusters[0]) > perDayCap {
			clusters[0] = clusters[0][:perDayCap]
		}
		return clusters
	}

	seeds := farthestPointSeeds(pois, days)

	// Assign remaining POIs, closest seed first, respecting capacity.
	remaining := make([]trip.POI, 0, len(pois))
	seeded := make(map[string]bool, len(seeds))
	for i, s := range seeds {
		clusters[i] = append(clusters[i], s)
		seeded[s.Name] = true
	}
	for _, p := range pois {
		if !seeded[p.Name] {
			remaining = append(remaining, p)
		}
	}

	for _, p := range remaining {
		best := -1
		bestDist := 0.0
		for i := range clusters {
			if perDayCap > 0 && len(clusters[i]) >= perDayCap {
				continue
			}
			d := geo.DistanceHaversine(p.Location, centroid(clusters[i]))
			if best == -1 || d < bestDist {
				best, bestDist = i, d
			}
		}
		if best == -1 {
			break // every day is full
		}
		clusters[best] = append(clusters[best], p)
	}

	return clusters
}

// farthestPointSeeds picks k spread-out POIs: the first is the one farthest
// from the overall centroid, each next maximizes distance to chosen seeds.
func farthestPointSeeds(pois []trip.POI, k int) []trip.POI {
	if k >= len(pois) {
		return append([]trip.POI(nil), pois...)
	}

	all := centroidOf(pois)
	first := pois[0]
	firstDist := -1.0
	for _, p := range pois {
		if d := geo.DistanceHaversine(p.Location, all); d > firstDist {
			first, firstDist = p, d
		}
	}

	seeds := []trip.POI{first}
	for len(seeds) < k {
		var next trip.POI
		nextDist := -1.0
		for _, p := range pois {
			if containsPOI(seeds, p.Name) {
				continue
			}
			d := minDistanceTo(seeds, p.Location)
			if d > nextDist {
				next, nextDist = p, d
			}
		}
		seeds = append(seeds, next)
	}
	return seeds
}

// OrderByProximity chains POIs nearest-neighbor style, starting from the
// highest-ranked candidate (callers pass a ranked slice).
func OrderByProximity(pois []trip.POI) []trip.POI {
	if len(pois) <= 2 {
		return append([]trip.POI(nil), pois...)
	}

	ordered := []trip.POI{pois[0]}
	rest := append([]trip.POI(nil), pois[1:]...)
	for len(rest) > 0 {
		last := ordered[len(ordered)-1]
		sort.SliceStable(rest, func(i, j int) bool {
			return geo.DistanceHaversine(last.Location, rest[i].Location) <
				geo.DistanceHaversine(last.Location, rest[j].Location)
		})
		ordered = append(ordered, rest[0])
		rest = rest[1:]
	}
	return ordered
}

func centroid(pois []trip.POI) orb.Point {
	return centroidOf(pois)
}

func centroidOf(pois []trip.POI) orb.Point {
	if len(pois) == 0 {
		return orb.Point{}
	}
	var lon, lat float64
	for _, p := range pois {
		lon += p.Location[0]
		lat += p.Location[1]
	}
	n := float64(len(pois))
	return orb.Point{lon / n, lat / n}
}

func minDistanceTo(pois []trip.POI, pt orb.Point) float64 {
	best := -1.0
	for _, p := range pois {
		d := geo.DistanceHaversine(p.Location, pt)
		if best < 0 || d < best {
			best = d
		}
	}
	return best
}

func containsPOI(pois []trip.POI, name string) bool {
	for _, p := range pois {
		if p.Name == name {
			return true
		}
	}
	return false
}
