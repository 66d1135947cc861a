package travel

import (
	"context"
	"errors"
	"testing"

	"github.com/paulmach/orb"
)

// Roughly 11 km apart east-west at this latitude.
var (
	pointA = orb.Point{75.80, 26.90}
	pointB = orb.Point{75.91, 26.90}
)

func TestHaversineEstimatorWalking(t *testing.T) {
	est, err := HaversineEstimator{}.EstimateTravelTime(context.Background(), pointA, pointB, ModeWalking)
	if err != nil {
		t.Fatalf("EstimateTravelTime failed: %v", err)
	}
	if est.Method != "distance_estimate" {
		t.Errorf("method = %q", est.Method)
	}
	// ~11 km at 4.5 km/h is about 146 minutes.
	if est.Minutes < 120 || est.Minutes > 170 {
		t.Errorf("walking estimate out of range: %d", est.Minutes)
	}
}

func TestHaversineEstimatorTransitFaster(t *testing.T) {
	ctx := context.Background()
	walk, _ := HaversineEstimator{}.EstimateTravelTime(ctx, pointA, pointB, ModeWalking)
	transit, _ := HaversineEstimator{}.EstimateTravelTime(ctx, pointA, pointB, ModeTransit)
	if transit.Minutes >= walk.Minutes {
		t.Errorf("transit (%d) not faster than walking (%d)", transit.Minutes, walk.Minutes)
	}
}

func TestHaversineEstimatorZeroDistance(t *testing.T) {
	est, _ := HaversineEstimator{}.EstimateTravelTime(context.Background(), pointA, pointA, ModeWalking)
	if est.Minutes != 0 {
		t.Errorf("same point must be 0 minutes, got %d", est.Minutes)
	}
}

type scriptedEstimator struct {
	results []error
	calls   int
}

func (s *scriptedEstimator) EstimateTravelTime(ctx context.Context, o, d orb.Point, m Mode) (Estimate, error) {
	err := s.results[s.calls]
	s.calls++
	if err != nil {
		return Estimate{}, err
	}
	return Estimate{Minutes: 7, Method: "lookup"}, nil
}

func TestFallbackUsesPrimaryWhenHealthy(t *testing.T) {
	primary := &scriptedEstimator{results: []error{nil}}
	f := FallbackEstimator{Primary: primary}

	est, err := f.EstimateTravelTime(context.Background(), pointA, pointB, ModeWalking)
	if err != nil {
		t.Fatalf("EstimateTravelTime failed: %v", err)
	}
	if est.Method != "lookup" || est.Minutes != 7 {
		t.Errorf("primary result not used: %+v", est)
	}
}

func TestFallbackRetriesTimeoutThenDegrades(t *testing.T) {
	primary := &scriptedEstimator{results: []error{context.DeadlineExceeded, context.DeadlineExceeded}}
	f := FallbackEstimator{Primary: primary}

	est, err := f.EstimateTravelTime(context.Background(), pointA, pointB, ModeWalking)
	if err != nil {
		t.Fatalf("fallback must not surface the timeout: %v", err)
	}
	if primary.calls != 2 {
		t.Errorf("expected one retry, got %d calls", primary.calls)
	}
	if est.Method != "distance_estimate" {
		t.Errorf("expected the distance fallback, got %+v", est)
	}
}

func TestFallbackHardErrorSkipsRetry(t *testing.T) {
	primary := &scriptedEstimator{results: []error{errors.New("connection refused")}}
	f := FallbackEstimator{Primary: primary}

	est, err := f.EstimateTravelTime(context.Background(), pointA, pointB, ModeTransit)
	if err != nil {
		t.Fatalf("fallback must not surface the error: %v", err)
	}
	if primary.calls != 1 {
		t.Errorf("hard errors must not be retried, got %d calls", primary.calls)
	}
	if est.Method != "distance_estimate" {
		t.Errorf("expected the distance fallback, got %+v", est)
	}
}

func TestFallbackWithoutPrimary(t *testing.T) {
	est, err := FallbackEstimator{}.EstimateTravelTime(context.Background(), pointA, pointB, ModeWalking)
	if err != nil {
		t.Fatalf("EstimateTravelTime failed: %v", err)
	}
	if est.Method != "distance_estimate" {
		t.Errorf("expected the distance estimate, got %+v", est)
	}
}
