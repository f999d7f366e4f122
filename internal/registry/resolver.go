package registry

import "context"

// Resolver produces geographic coordinates for a sensor from an external
// source.
type Resolver interface {
	Resolve(ctx context.Context, sensor Sensor) (Coordinates, error)
}
