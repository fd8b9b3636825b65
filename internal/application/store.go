package application

import (
	"context"

	"github.com/voltgrid-charging/service-reservation/internal/domain/booking"
	"github.com/voltgrid-charging/service-reservation/internal/domain/charger"
)

// Store gives the application services access to repositories and to an
// atomic unit grouping several writes. Atomically runs fn against a Store
// whose repositories share one transaction; if fn returns an error nothing
// inside it is visible.
type Store interface {
	Bookings() booking.Repository
	Chargers() charger.Repository
	Atomically(ctx context.Context, fn func(tx Store) error) error
}
