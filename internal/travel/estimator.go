package travel

import (
	"context"
	"errors"
	"log"
	"math"
	"time"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geo"
)

// Mode of travel between activities.
type Mode string

const (
	ModeWalking Mode = "walking"
	ModeTransit Mode = "transit"
)

// Estimate is the travel-time collaborator result.
type Estimate struct {
	Minutes int    `json:"minutes"`
	Method  string `json:"method"` // "lookup" or "distance_estimate"
}

// Estimator is the travel-time collaborator contract.
type Estimator interface {
	EstimateTravelTime(ctx context.Context, origin, destination orb.Point, mode Mode) (Estimate, error)
}

// Speeds used by the distance fallback, in km/h.
const (
	walkingSpeedKmh = 4.5
	transitSpeedKmh = 18.0
)

// HaversineEstimator estimates travel time from great-circle distance. It is
// both the offline default and the fallback when a real lookup times out.
type HaversineEstimator struct{}

// EstimateTravelTime never fails; it derives minutes from distance and mode.
func (HaversineEstimator) EstimateTravelTime(_ context.Context, origin, destination orb.Point, mode Mode) (Estimate, error) {
	km := geo.DistanceHaversine(origin, destination) / 1000.0

	speed := walkingSpeedKmh
	if mode == ModeTransit {
		speed = transitSpeedKmh
	}

	minutes := int(math.Ceil(km / speed * 60))
	if minutes < 1 && km > 0 {
		minutes = 1
	}
	return Estimate{Minutes: minutes, Method: "distance_estimate"}, nil
}

// collaborator call policy: bounded timeout, one retry, then degrade.
const (
	lookupTimeout = 5 * time.Second
	lookupRetries = 1
)

// FallbackEstimator asks the primary estimator with a bounded timeout and a
// single retry, then degrades to the distance estimate rather than blocking.
type FallbackEstimator struct {
	Primary  Estimator
	Fallback HaversineEstimator
}

// EstimateTravelTime implements Estimator.
func (f FallbackEstimator) EstimateTravelTime(ctx context.Context, origin, destination orb.Point, mode Mode) (Estimate, error) {
	if f.Primary == nil {
		return f.Fallback.EstimateTravelTime(ctx, origin, destination, mode)
	}

	var lastErr error
	for attempt := 0; attempt <= lookupRetries; attempt++ {
		callCtx, cancel := context.WithTimeout(ctx, lookupTimeout)
		est, err := f.Primary.EstimateTravelTime(callCtx, origin, destination, mode)
		cancel()
		if err == nil {
			return est, nil
		}
		lastErr = err
		if !errors.Is(err, context.DeadlineExceeded) {
			break
		}
	}

	log.Printf("Warning: travel-time lookup failed (%v), using distance estimate", lastErr)
	return f.Fallback.EstimateTravelTime(ctx, origin, destination, mode)
}
