package registry

import (
	"context"
	"fmt"
	"log"
	"math"
)

// Service orchestrates a coordinate sync: load the registry, resolve fresh
// coordinates for every sensor, then patch the document. Sensors are
// processed sequentially in registry order and the first failure aborts the
// run with the document untouched.
type Service struct {
	store    *Store
	resolver Resolver
	patcher  *Patcher
	logger   *log.Logger
}

// NewService creates a Service from its collaborators.
func NewService(store *Store, resolver Resolver, patcher *Patcher, logger *log.Logger) *Service {
	return &Service{
		store:    store,
		resolver: resolver,
		patcher:  patcher,
		logger:   logger,
	}
}

// Plan loads the registry at path and resolves fresh coordinates for every
// sensor without modifying the document. The returned sensors carry the
// resolved values rounded to registry precision.
func (s *Service) Plan(ctx context.Context, path string) ([]Sensor, error) {
	doc, err := s.store.Load(path)
	if err != nil {
		return nil, err
	}

	sensors := doc.Sensors
	for i := range sensors {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		s.logger.Printf("DEBUG: resolving coordinates for sensor %q", sensors[i].Name)
		coords, err := s.resolver.Resolve(ctx, sensors[i])
		if err != nil {
			return nil, fmt.Errorf("resolve coordinates for %q: %w", sensors[i].Name, err)
		}
		lat := roundCoordinate(coords.Latitude)
		lon := roundCoordinate(coords.Longitude)
		sensors[i].Latitude = &lat
		sensors[i].Longitude = &lon
	}
	return sensors, nil
}

// Sync runs Plan and writes the resolved coordinates back into the document,
// touching only the latitude/longitude lines. It returns every sensor the
// run refreshed.
func (s *Service) Sync(ctx context.Context, path string) ([]Sensor, error) {
	sensors, err := s.Plan(ctx, path)
	if err != nil {
		return nil, err
	}

	updates := make(map[string]*CoordinateUpdate, len(sensors))
	for _, sensor := range sensors {
		updates[sensor.Name] = &CoordinateUpdate{
			Latitude:  *sensor.Latitude,
			Longitude: *sensor.Longitude,
		}
	}

	if err := s.patcher.Apply(path, updates); err != nil {
		return nil, err
	}
	return sensors, nil
}

// roundCoordinate rounds to the six decimal places kept in the registry.
func roundCoordinate(v float64) float64 {
	return math.Round(v*1e6) / 1e6
}
