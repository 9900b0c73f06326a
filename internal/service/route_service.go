package service

import (
	"context"
	"strings"

	"github.com/dispatch-next/internal/geo"
	"github.com/dispatch-next/internal/models"
	"github.com/dispatch-next/internal/repository"
)

// RouteService orders a rider's pending stops by travel distance
type RouteService struct {
	shipmentRepo repository.ShipmentRepository
	tracking     *TrackingService
}

// NewRouteService creates the route planner
func NewRouteService(shipmentRepo repository.ShipmentRepository, tracking *TrackingService) *RouteService {
	return &RouteService{
		shipmentRepo: shipmentRepo,
		tracking:     tracking,
	}
}

// OptimizedRoute planner output: shipments in visit order plus the stops
// that could not be placed for lack of coordinates.
type OptimizedRoute struct {
	Ordered   []models.Shipment `json:"ordered"`
	Unlocated []models.Shipment `json:"unlocated"`
	TotalKM   float64           `json:"total_km"`
	StartLat  float64           `json:"start_lat"`
	StartLon  float64           `json:"start_lon"`
}

// OptimizeRoute orders the given shipments nearest first from the
// rider's current position. Shipments without coordinates keep their
// request order at the end.
func (s *RouteService) OptimizeRoute(ctx context.Context, riderID string, shipmentIDs []uint) (*OptimizedRoute, error) {
	riderID = strings.TrimSpace(riderID)
	if riderID == "" || len(shipmentIDs) == 0 {
		return nil, ErrShipmentInvalid
	}
	location, err := s.tracking.GetCurrentLocation(ctx, riderID)
	if err != nil {
		return nil, err
	}
	shipments, err := s.shipmentRepo.ListByIDs(shipmentIDs)
	if err != nil {
		return nil, ErrShipmentFetchFailed
	}

	located := make([]models.Shipment, 0, len(shipments))
	stops := make([]geo.Point, 0, len(shipments))
	unlocated := make([]models.Shipment, 0)
	for _, shipment := range shipments {
		if shipment.Latitude != nil && shipment.Longitude != nil {
			located = append(located, shipment)
			stops = append(stops, geo.Point{Lat: *shipment.Latitude, Lon: *shipment.Longitude})
		} else {
			unlocated = append(unlocated, shipment)
		}
	}

	start := geo.Point{Lat: location.Latitude, Lon: location.Longitude}
	orderedPoints := geo.NearestNeighborOrder(start.Lat, start.Lon, stops)

	// map each visited point back to its shipment; stops sharing a
	// coordinate are consumed in request order
	byPoint := make(map[geo.Point][]models.Shipment, len(located))
	for i := range located {
		byPoint[stops[i]] = append(byPoint[stops[i]], located[i])
	}
	ordered := make([]models.Shipment, 0, len(orderedPoints))
	path := make([]geo.Point, 0, len(orderedPoints)+1)
	path = append(path, start)
	for _, p := range orderedPoints {
		bucket := byPoint[p]
		ordered = append(ordered, bucket[0])
		byPoint[p] = bucket[1:]
		path = append(path, p)
	}

	return &OptimizedRoute{
		Ordered:   ordered,
		Unlocated: unlocated,
		TotalKM:   geo.PathDistanceKM(path),
		StartLat:  location.Latitude,
		StartLon:  location.Longitude,
	}, nil
}
