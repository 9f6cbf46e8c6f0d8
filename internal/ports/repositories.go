package ports

import (
	"context"
	"hos-trip-planner/internal/domain"
	"time"
)

// Port: driver profiles and their on-duty history.
type DriverRepository interface {
	// Return domain.ErrNotFound when the driver does not exist.
	GetDriver(ctx context.Context, driverID string) (domain.Driver, error)
	// Assemble the cycle seed from days strictly before the calendar day of at.
	DriverSeed(ctx context.Context, driverID string, at time.Time) (domain.DriverSeed, error)
}

// Port: planned trips and the duty-status records they produced.
type TripRepository interface {
	SaveTrip(ctx context.Context, trip *domain.Trip) error
	// Return domain.ErrNotFound when no trip has the ID.
	GetTrip(ctx context.Context, tripID string) (domain.Trip, error)
	// Records overlapping [from, to), ordered by start.
	ListDutyRecords(ctx context.Context, driverID string, from, to time.Time) ([]domain.DutyStatusRecord, error)
}
