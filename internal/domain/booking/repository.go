package booking

import (
	"context"

	"github.com/google/uuid"
)

// Repository defines the persistence contract for booking aggregates.
type Repository interface {
	// FindByID retrieves a booking by its unique identifier.
	FindByID(ctx context.Context, id uuid.UUID) (*Booking, error)

	// FindByRequesterID retrieves bookings made by a specific user with pagination.
	FindByRequesterID(ctx context.Context, requesterID uuid.UUID, page, limit int) ([]*Booking, int64, error)

	// FindByChargerID retrieves bookings for a specific charger with pagination.
	FindByChargerID(ctx context.Context, chargerID uuid.UUID, page, limit int) ([]*Booking, int64, error)

	// FindActiveByChargerID retrieves every non-cancelled booking for a
	// charger; these are the intervals admission control checks against.
	FindActiveByChargerID(ctx context.Context, chargerID uuid.UUID) ([]*Booking, error)

	// ListAll retrieves all bookings with pagination (admin).
	ListAll(ctx context.Context, page, limit int) ([]*Booking, int64, error)

	// CountByStatus returns booking counts grouped by status (admin).
	CountByStatus(ctx context.Context) (map[string]int64, error)

	// Save persists a new booking.
	Save(ctx context.Context, b *Booking) error

	// Update persists changes to an existing booking with optimistic locking.
	Update(ctx context.Context, b *Booking) error

	// Delete removes a booking record.
	Delete(ctx context.Context, b *Booking) error
}
