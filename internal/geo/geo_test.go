package geo

import (
	"math"
	"testing"
)

func TestHaversineKMBangaloreSample(t *testing.T) {
	// MG Road to Koramangala, roughly 5.18 km great-circle with R=6371.
	got := HaversineKM(12.9716, 77.5946, 12.9352, 77.6245)
	if math.Abs(got-5.1847) > 0.01 {
		t.Fatalf("expected ~5.18 km, got %f", got)
	}
}

func TestHaversineKMZeroDistance(t *testing.T) {
	if got := HaversineKM(12.9716, 77.5946, 12.9716, 77.5946); got != 0 {
		t.Fatalf("expected 0, got %f", got)
	}
}

func TestPathDistanceKM(t *testing.T) {
	points := []Point{
		{Lat: 12.9716, Lon: 77.5946},
		{Lat: 12.9352, Lon: 77.6245},
	}
	got := PathDistanceKM(points)
	if math.Abs(got-5.1847) > 0.01 {
		t.Fatalf("expected ~5.18 km, got %f", got)
	}
}

func TestPathDistanceKMSinglePoint(t *testing.T) {
	if got := PathDistanceKM([]Point{{Lat: 1, Lon: 1}}); got != 0 {
		t.Fatalf("expected 0 for single point, got %f", got)
	}
	if got := PathDistanceKM(nil); got != 0 {
		t.Fatalf("expected 0 for empty path, got %f", got)
	}
}

func TestNearestNeighborOrderNearestFirst(t *testing.T) {
	ordered := NearestNeighborOrder(0, 0, []Point{
		{Lat: 0, Lon: 2},
		{Lat: 0, Lon: 1},
	})
	if len(ordered) != 2 {
		t.Fatalf("expected 2 locations, got %d", len(ordered))
	}
	if ordered[0].Lon != 1 || ordered[1].Lon != 2 {
		t.Fatalf("expected nearest-first ordering, got %+v", ordered)
	}
}

func TestNearestNeighborOrderEmptyInput(t *testing.T) {
	ordered := NearestNeighborOrder(0, 0, nil)
	if ordered == nil || len(ordered) != 0 {
		t.Fatalf("expected empty result, got %v", ordered)
	}
}

func TestNearestNeighborOrderTieBreaksFirstIndex(t *testing.T) {
	// Equidistant east/west points; the first-encountered index wins.
	ordered := NearestNeighborOrder(0, 0, []Point{
		{Lat: 0, Lon: 1},
		{Lat: 0, Lon: -1},
	})
	if ordered[0].Lon != 1 {
		t.Fatalf("expected first-encountered tie-break, got %+v", ordered)
	}
}
