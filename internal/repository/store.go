package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/voltgrid-charging/service-reservation/internal/application"
	"github.com/voltgrid-charging/service-reservation/internal/domain/booking"
	"github.com/voltgrid-charging/service-reservation/internal/domain/charger"
)

// GormStore implements application.Store on top of a GORM connection.
// Atomically hands the callback a Store bound to a single database
// transaction, so every repository call inside it commits or rolls back as
// one unit.
type GormStore struct {
	db       *gorm.DB
	bookings *GormBookingRepository
	chargers *GormChargerRepository
}

// NewGormStore creates a GormStore over the given connection.
func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{
		db:       db,
		bookings: NewGormBookingRepository(db),
		chargers: NewGormChargerRepository(db),
	}
}

// Bookings returns the booking repository.
func (s *GormStore) Bookings() booking.Repository {
	return s.bookings
}

// Chargers returns the charger repository.
func (s *GormStore) Chargers() charger.Repository {
	return s.chargers
}

// Atomically runs fn inside a database transaction.
func (s *GormStore) Atomically(ctx context.Context, fn func(tx application.Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewGormStore(tx))
	})
}
