package geo

import (
	"math"
)

// earthRadiusKM mean Earth radius used for great-circle distances.
const earthRadiusKM = 6371.0

// Point a geographic coordinate pair.
type Point struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// HaversineKM returns the great-circle distance in kilometers between two
// coordinates.
func HaversineKM(lat1, lon1, lat2, lon2 float64) float64 {
	dLat := toRadians(lat2 - lat1)
	dLon := toRadians(lon2 - lon1)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRadians(lat1))*math.Cos(toRadians(lat2))*
			math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return earthRadiusKM * c
}

// PathDistanceKM sums consecutive-point distances over an ordered path.
// Paths with at most one point have distance 0.
func PathDistanceKM(points []Point) float64 {
	if len(points) < 2 {
		return 0
	}
	var total float64
	for i := 1; i < len(points); i++ {
		total += HaversineKM(points[i-1].Lat, points[i-1].Lon, points[i].Lat, points[i].Lon)
	}
	return total
}

// NearestNeighborOrder orders locations by repeatedly visiting the closest
// unvisited one from the current position. Greedy heuristic, O(n^2); ties
// break toward the first-encountered index so the result is deterministic.
// Empty input yields an empty (non-nil) result.
func NearestNeighborOrder(currentLat, currentLon float64, locations []Point) []Point {
	ordered := make([]Point, 0, len(locations))
	remaining := make([]Point, len(locations))
	copy(remaining, locations)

	lat, lon := currentLat, currentLon
	for len(remaining) > 0 {
		best := 0
		bestDist := HaversineKM(lat, lon, remaining[0].Lat, remaining[0].Lon)
		for i := 1; i < len(remaining); i++ {
			d := HaversineKM(lat, lon, remaining[i].Lat, remaining[i].Lon)
			if d < bestDist {
				best = i
				bestDist = d
			}
		}
		next := remaining[best]
		ordered = append(ordered, next)
		remaining = append(remaining[:best], remaining[best+1:]...)
		lat, lon = next.Lat, next.Lon
	}
	return ordered
}

func toRadians(deg float64) float64 {
	return deg * math.Pi / 180
}
