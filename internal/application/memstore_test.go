package application_test

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/voltgrid-charging/service-reservation/internal/application"
	bookingDomain "github.com/voltgrid-charging/service-reservation/internal/domain/booking"
	chargerDomain "github.com/voltgrid-charging/service-reservation/internal/domain/charger"
	"github.com/voltgrid-charging/service-reservation/pkg/domain"
)

// memStore is an in-memory application.Store. Aggregates are cloned on every
// read and write, so rolling back a failed atomic unit is just restoring the
// map snapshots.
type memStore struct {
	mu       sync.Mutex
	bookings map[uuid.UUID]*bookingDomain.Booking
	chargers map[uuid.UUID]*chargerDomain.Charger
}

func newMemStore() *memStore {
	return &memStore{
		bookings: make(map[uuid.UUID]*bookingDomain.Booking),
		chargers: make(map[uuid.UUID]*chargerDomain.Charger),
	}
}

func (s *memStore) Bookings() bookingDomain.Repository { return &memBookingRepo{store: s} }
func (s *memStore) Chargers() chargerDomain.Repository { return &memChargerRepo{store: s} }

func (s *memStore) Atomically(ctx context.Context, fn func(tx application.Store) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	bookingsSnapshot := make(map[uuid.UUID]*bookingDomain.Booking, len(s.bookings))
	for k, v := range s.bookings {
		bookingsSnapshot[k] = v
	}
	chargersSnapshot := make(map[uuid.UUID]*chargerDomain.Charger, len(s.chargers))
	for k, v := range s.chargers {
		chargersSnapshot[k] = v
	}

	if err := fn(&txStore{store: s}); err != nil {
		s.bookings = bookingsSnapshot
		s.chargers = chargersSnapshot
		return err
	}
	return nil
}

// txStore is handed to Atomically callbacks; its repos skip the store mutex,
// which is already held for the duration of the unit.
type txStore struct {
	store *memStore
}

func (t *txStore) Bookings() bookingDomain.Repository {
	return &memBookingRepo{store: t.store, inTx: true}
}

func (t *txStore) Chargers() chargerDomain.Repository {
	return &memChargerRepo{store: t.store, inTx: true}
}

func (t *txStore) Atomically(ctx context.Context, fn func(tx application.Store) error) error {
	return fn(t)
}

func (s *memStore) lock(inTx bool) func() {
	if inTx {
		return func() {}
	}
	s.mu.Lock()
	return s.mu.Unlock
}

func cloneBooking(b *bookingDomain.Booking) *bookingDomain.Booking {
	return bookingDomain.ReconstructBooking(
		b.ID(), b.BookingNumber(), b.RequesterID(), b.ChargerID(), b.Slot(),
		b.Status(), b.CancelNote(), b.CancelledAt(), b.CompletedAt(),
		b.Version(), b.CreatedAt(), b.UpdatedAt(),
	)
}

func cloneCharger(c *chargerDomain.Charger) *chargerDomain.Charger {
	return chargerDomain.ReconstructCharger(
		c.ID(), c.ConnectorType(), c.PowerKW(), c.Status(),
		c.Version(), c.CreatedAt(), c.UpdatedAt(),
	)
}

type memBookingRepo struct {
	store     *memStore
	inTx      bool
	unchecked bool
}

func (r *memBookingRepo) FindByID(ctx context.Context, id uuid.UUID) (*bookingDomain.Booking, error) {
	defer r.store.lock(r.inTx)()
	b, ok := r.store.bookings[id]
	if !ok {
		return nil, domain.NewNotFoundError("Booking", id.String())
	}
	return cloneBooking(b), nil
}

func (r *memBookingRepo) FindByRequesterID(ctx context.Context, requesterID uuid.UUID, page, limit int) ([]*bookingDomain.Booking, int64, error) {
	defer r.store.lock(r.inTx)()
	var out []*bookingDomain.Booking
	for _, b := range r.store.bookings {
		if b.RequesterID() == requesterID {
			out = append(out, cloneBooking(b))
		}
	}
	return out, int64(len(out)), nil
}

func (r *memBookingRepo) FindByChargerID(ctx context.Context, chargerID uuid.UUID, page, limit int) ([]*bookingDomain.Booking, int64, error) {
	defer r.store.lock(r.inTx)()
	var out []*bookingDomain.Booking
	for _, b := range r.store.bookings {
		if b.ChargerID() == chargerID {
			out = append(out, cloneBooking(b))
		}
	}
	return out, int64(len(out)), nil
}

func (r *memBookingRepo) FindActiveByChargerID(ctx context.Context, chargerID uuid.UUID) ([]*bookingDomain.Booking, error) {
	defer r.store.lock(r.inTx)()
	var out []*bookingDomain.Booking
	for _, b := range r.store.bookings {
		if b.ChargerID() == chargerID && b.Status() != bookingDomain.StatusCancelled {
			out = append(out, cloneBooking(b))
		}
	}
	return out, nil
}

func (r *memBookingRepo) ListAll(ctx context.Context, page, limit int) ([]*bookingDomain.Booking, int64, error) {
	defer r.store.lock(r.inTx)()
	var out []*bookingDomain.Booking
	for _, b := range r.store.bookings {
		out = append(out, cloneBooking(b))
	}
	return out, int64(len(out)), nil
}

func (r *memBookingRepo) CountByStatus(ctx context.Context) (map[string]int64, error) {
	defer r.store.lock(r.inTx)()
	counts := make(map[string]int64)
	for _, b := range r.store.bookings {
		counts[string(b.Status())]++
	}
	return counts, nil
}

func (r *memBookingRepo) Save(ctx context.Context, b *bookingDomain.Booking) error {
	defer r.store.lock(r.inTx)()
	if _, exists := r.store.bookings[b.ID()]; exists {
		return domain.NewConflictError("booking already exists")
	}
	r.store.bookings[b.ID()] = cloneBooking(b)
	return nil
}

func (r *memBookingRepo) Update(ctx context.Context, b *bookingDomain.Booking) error {
	defer r.store.lock(r.inTx)()
	current, ok := r.store.bookings[b.ID()]
	if !ok || (!r.unchecked && current.Version() != b.Version()-1) {
		return domain.NewConflictError("booking was modified by another transaction")
	}
	r.store.bookings[b.ID()] = cloneBooking(b)
	return nil
}

func (r *memBookingRepo) Delete(ctx context.Context, b *bookingDomain.Booking) error {
	defer r.store.lock(r.inTx)()
	if _, ok := r.store.bookings[b.ID()]; !ok {
		return domain.NewNotFoundError("Booking", b.ID().String())
	}
	delete(r.store.bookings, b.ID())
	return nil
}

type memChargerRepo struct {
	store     *memStore
	inTx      bool
	unchecked bool
}

func (r *memChargerRepo) FindByID(ctx context.Context, id uuid.UUID) (*chargerDomain.Charger, error) {
	defer r.store.lock(r.inTx)()
	c, ok := r.store.chargers[id]
	if !ok {
		return nil, domain.NewNotFoundError("Charger", id.String())
	}
	return cloneCharger(c), nil
}

func (r *memChargerRepo) List(ctx context.Context, page, limit int) ([]*chargerDomain.Charger, int64, error) {
	defer r.store.lock(r.inTx)()
	var out []*chargerDomain.Charger
	for _, c := range r.store.chargers {
		out = append(out, cloneCharger(c))
	}
	return out, int64(len(out)), nil
}

func (r *memChargerRepo) Save(ctx context.Context, c *chargerDomain.Charger) error {
	defer r.store.lock(r.inTx)()
	r.store.chargers[c.ID()] = cloneCharger(c)
	return nil
}

func (r *memChargerRepo) Update(ctx context.Context, c *chargerDomain.Charger) error {
	defer r.store.lock(r.inTx)()
	current, ok := r.store.chargers[c.ID()]
	if !ok || (!r.unchecked && current.Version() != c.Version()-1) {
		return domain.NewConflictError("charger was modified by another transaction")
	}
	r.store.chargers[c.ID()] = cloneCharger(c)
	return nil
}

// racyStore strips the storage-level protections memStore provides:
// Atomically runs the unit without holding the store mutex and updates skip
// the version comparison. Map access is still guarded per operation. With
// this store, the per-charger lock in the services is the only thing keeping
// a check-then-act sequence from interleaving.
type racyStore struct {
	store *memStore
}

func (s *racyStore) Bookings() bookingDomain.Repository {
	return &memBookingRepo{store: s.store, unchecked: true}
}

func (s *racyStore) Chargers() chargerDomain.Repository {
	return &memChargerRepo{store: s.store, unchecked: true}
}

func (s *racyStore) Atomically(ctx context.Context, fn func(tx application.Store) error) error {
	return fn(s)
}
