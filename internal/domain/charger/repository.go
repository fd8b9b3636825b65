package charger

import (
	"context"

	"github.com/google/uuid"
)

// Repository defines the persistence contract for charger aggregates.
type Repository interface {
	// FindByID retrieves a charger by its unique identifier.
	FindByID(ctx context.Context, id uuid.UUID) (*Charger, error)

	// List retrieves all chargers with pagination.
	List(ctx context.Context, page, limit int) ([]*Charger, int64, error)

	// Save persists a new charger.
	Save(ctx context.Context, c *Charger) error

	// Update persists changes to an existing charger with optimistic locking.
	Update(ctx context.Context, c *Charger) error
}
