package application

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	bookingDomain "github.com/voltgrid-charging/service-reservation/internal/domain/booking"
	chargerDomain "github.com/voltgrid-charging/service-reservation/internal/domain/charger"
	"github.com/voltgrid-charging/service-reservation/internal/events"
	"github.com/voltgrid-charging/service-reservation/pkg/domain"
	"github.com/voltgrid-charging/service-reservation/pkg/kafka"
	"github.com/voltgrid-charging/service-reservation/pkg/keymutex"
)

// CreateBookingRequest holds the data needed to reserve a charger.
type CreateBookingRequest struct {
	ChargerID uuid.UUID `json:"charger_id"`
	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`
}

// UpdateBookingStatusRequest holds a requested status change.
type UpdateBookingStatusRequest struct {
	Status string `json:"status" binding:"required"`
	Reason string `json:"reason"`
}

// BookingDTO is the response representation of a booking.
type BookingDTO struct {
	ID            uuid.UUID  `json:"id"`
	BookingNumber string     `json:"booking_number"`
	RequesterID   uuid.UUID  `json:"requester_id"`
	ChargerID     uuid.UUID  `json:"charger_id"`
	StartTime     time.Time  `json:"start_time"`
	EndTime       time.Time  `json:"end_time"`
	Status        string     `json:"status"`
	CancelNote    string     `json:"cancel_note,omitempty"`
	CancelledAt   *time.Time `json:"cancelled_at,omitempty"`
	CompletedAt   *time.Time `json:"completed_at,omitempty"`
	Version       int64      `json:"version"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// ReservationService is the admission-control core. It decides whether a
// charger is free for a requested slot and keeps booking status and charger
// status mutually consistent. All check-then-act sequences are serialized
// per charger ID and their writes grouped in one atomic unit.
type ReservationService struct {
	store    Store
	locks    *keymutex.KeyMutex
	producer *kafka.Producer
	logger   *zap.Logger
}

// NewReservationService creates a ReservationService.
func NewReservationService(store Store, locks *keymutex.KeyMutex, producer *kafka.Producer, logger *zap.Logger) *ReservationService {
	return &ReservationService{
		store:    store,
		locks:    locks,
		producer: producer,
		logger:   logger,
	}
}

// CreateBooking admits or rejects a new reservation. On success the booking
// is created in pending status and the charger moves to being_used; neither
// write is visible without the other.
func (s *ReservationService) CreateBooking(ctx context.Context, requesterID uuid.UUID, req CreateBookingRequest) (*BookingDTO, error) {
	bk, err := bookingDomain.NewBooking(requesterID, req.ChargerID, req.StartTime, req.EndTime)
	if err != nil {
		return nil, err
	}

	key := req.ChargerID.String()
	s.locks.Lock(key)
	defer s.locks.Unlock(key)

	var oldChargerStatus chargerDomain.ChargerStatus
	err = s.store.Atomically(ctx, func(tx Store) error {
		ch, err := tx.Chargers().FindByID(ctx, req.ChargerID)
		if err != nil {
			return err
		}
		if !ch.IsAvailable() {
			return domain.NewConflictError("charger is not available for booking")
		}

		existing, err := tx.Bookings().FindActiveByChargerID(ctx, req.ChargerID)
		if err != nil {
			return err
		}
		for _, other := range existing {
			if other.Slot().Conflicts(bk.Slot()) {
				return domain.NewConflictError("charger is already booked for this time period")
			}
		}

		oldChargerStatus = ch.Status()
		if err := ch.ChangeStatus(chargerDomain.StatusBeingUsed); err != nil {
			return err
		}
		ch.IncrementVersion()
		if err := tx.Chargers().Update(ctx, ch); err != nil {
			return err
		}
		return tx.Bookings().Save(ctx, bk)
	})
	if err != nil {
		return nil, err
	}

	s.publishBookingCreated(ctx, bk)
	s.publishChargerStatusChanged(ctx, bk.ChargerID(), oldChargerStatus, chargerDomain.StatusBeingUsed)

	result := toBookingDTO(bk)
	return &result, nil
}

// GetBooking retrieves a single booking by ID.
func (s *ReservationService) GetBooking(ctx context.Context, id uuid.UUID) (*BookingDTO, error) {
	bk, err := s.store.Bookings().FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	result := toBookingDTO(bk)
	return &result, nil
}

// ListBookingsByUser retrieves paginated bookings made by the given user.
func (s *ReservationService) ListBookingsByUser(ctx context.Context, userID uuid.UUID, page, limit int) (*domain.PaginatedResult[BookingDTO], error) {
	bookings, total, err := s.store.Bookings().FindByRequesterID(ctx, userID, page, limit)
	if err != nil {
		return nil, err
	}
	result := domain.NewPaginatedResult(toBookingDTOs(bookings), total, page, limit)
	return &result, nil
}

// ListBookingsByCharger retrieves paginated bookings for the given charger.
func (s *ReservationService) ListBookingsByCharger(ctx context.Context, chargerID uuid.UUID, page, limit int) (*domain.PaginatedResult[BookingDTO], error) {
	bookings, total, err := s.store.Bookings().FindByChargerID(ctx, chargerID, page, limit)
	if err != nil {
		return nil, err
	}
	result := domain.NewPaginatedResult(toBookingDTOs(bookings), total, page, limit)
	return &result, nil
}

// UpdateBookingStatus applies a lifecycle transition to a booking. Reaching
// cancelled or completed releases the charger in the same atomic unit.
func (s *ReservationService) UpdateBookingStatus(ctx context.Context, id uuid.UUID, target bookingDomain.BookingStatus, reason string) (*BookingDTO, error) {
	loaded, err := s.store.Bookings().FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	key := loaded.ChargerID().String()
	s.locks.Lock(key)
	defer s.locks.Unlock(key)

	var (
		bk       *bookingDomain.Booking
		old      bookingDomain.BookingStatus
		released bool
	)
	err = s.store.Atomically(ctx, func(tx Store) error {
		var err error
		bk, err = tx.Bookings().FindByID(ctx, id)
		if err != nil {
			return err
		}

		old = bk.Status()
		if target == bookingDomain.StatusCancelled {
			err = bk.Cancel(reason)
		} else {
			err = bk.ChangeStatus(target)
		}
		if err != nil {
			return err
		}
		if old == target {
			// No-op transition, nothing to persist.
			return nil
		}

		if target.ReleasesCharger() {
			released, err = s.releaseCharger(ctx, tx, bk.ChargerID())
			if err != nil {
				return err
			}
		}

		bk.IncrementVersion()
		return tx.Bookings().Update(ctx, bk)
	})
	if err != nil {
		return nil, err
	}

	if old != target {
		s.publishBookingStatusChanged(ctx, bk, old, target)
		if released {
			s.publishChargerStatusChanged(ctx, bk.ChargerID(), chargerDomain.StatusBeingUsed, chargerDomain.StatusAvailable)
		}
	}

	result := toBookingDTO(bk)
	return &result, nil
}

// DeleteBooking removes a booking record. Deleting a confirmed booking
// releases the charger, same as cancellation.
func (s *ReservationService) DeleteBooking(ctx context.Context, id uuid.UUID) error {
	loaded, err := s.store.Bookings().FindByID(ctx, id)
	if err != nil {
		return err
	}

	key := loaded.ChargerID().String()
	s.locks.Lock(key)
	defer s.locks.Unlock(key)

	var (
		bk       *bookingDomain.Booking
		released bool
	)
	err = s.store.Atomically(ctx, func(tx Store) error {
		var err error
		bk, err = tx.Bookings().FindByID(ctx, id)
		if err != nil {
			return err
		}

		if bk.Status() == bookingDomain.StatusConfirmed {
			released, err = s.releaseCharger(ctx, tx, bk.ChargerID())
			if err != nil {
				return err
			}
		}
		return tx.Bookings().Delete(ctx, bk)
	})
	if err != nil {
		return err
	}

	s.publishBookingDeleted(ctx, bk)
	if released {
		s.publishChargerStatusChanged(ctx, bk.ChargerID(), chargerDomain.StatusBeingUsed, chargerDomain.StatusAvailable)
	}
	return nil
}

// releaseCharger hands the charger back to available. The release only fires
// when the charger is currently being_used, so an operator-imposed
// maintenance or out-of-service state is never clobbered by a booking
// transition.
func (s *ReservationService) releaseCharger(ctx context.Context, tx Store, chargerID uuid.UUID) (bool, error) {
	ch, err := tx.Chargers().FindByID(ctx, chargerID)
	if err != nil {
		return false, err
	}
	if ch.Status() != chargerDomain.StatusBeingUsed {
		return false, nil
	}
	if err := ch.ChangeStatus(chargerDomain.StatusAvailable); err != nil {
		return false, err
	}
	ch.IncrementVersion()
	if err := tx.Chargers().Update(ctx, ch); err != nil {
		return false, err
	}
	return true, nil
}

// --- Admin methods ---

// BookingStatsDTO holds booking statistics for the admin dashboard.
type BookingStatsDTO struct {
	TotalBookings int64            `json:"total_bookings"`
	ByStatus      map[string]int64 `json:"by_status"`
}

// ListAllBookings returns a paginated list of all bookings (admin).
func (s *ReservationService) ListAllBookings(ctx context.Context, page, limit int) ([]BookingDTO, int64, error) {
	bookings, total, err := s.store.Bookings().ListAll(ctx, page, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list bookings: %w", err)
	}
	return toBookingDTOs(bookings), total, nil
}

// GetBookingStats returns aggregate booking statistics (admin).
func (s *ReservationService) GetBookingStats(ctx context.Context) (*BookingStatsDTO, error) {
	counts, err := s.store.Bookings().CountByStatus(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get booking stats: %w", err)
	}

	var total int64
	for _, c := range counts {
		total += c
	}
	return &BookingStatsDTO{TotalBookings: total, ByStatus: counts}, nil
}

// --- Helpers ---

func toBookingDTO(bk *bookingDomain.Booking) BookingDTO {
	return BookingDTO{
		ID:            bk.ID(),
		BookingNumber: bk.BookingNumber(),
		RequesterID:   bk.RequesterID(),
		ChargerID:     bk.ChargerID(),
		StartTime:     bk.Slot().Start,
		EndTime:       bk.Slot().End,
		Status:        string(bk.Status()),
		CancelNote:    bk.CancelNote(),
		CancelledAt:   bk.CancelledAt(),
		CompletedAt:   bk.CompletedAt(),
		Version:       bk.Version(),
		CreatedAt:     bk.CreatedAt(),
		UpdatedAt:     bk.UpdatedAt(),
	}
}

func toBookingDTOs(bookings []*bookingDomain.Booking) []BookingDTO {
	dtos := make([]BookingDTO, len(bookings))
	for i, bk := range bookings {
		dtos[i] = toBookingDTO(bk)
	}
	return dtos
}

func (s *ReservationService) publishBookingCreated(ctx context.Context, bk *bookingDomain.Booking) {
	evt := events.BookingCreatedEvent{
		BookingID:     bk.ID(),
		BookingNumber: bk.BookingNumber(),
		RequesterID:   bk.RequesterID(),
		ChargerID:     bk.ChargerID(),
		StartTime:     bk.Slot().Start,
		EndTime:       bk.Slot().End,
		OccurredAt:    time.Now().UTC(),
	}
	s.publishEvent(ctx, events.BookingCreated, bk.ChargerID().String(), evt)
}

func (s *ReservationService) publishBookingStatusChanged(ctx context.Context, bk *bookingDomain.Booking, old, target bookingDomain.BookingStatus) {
	evt := events.BookingStatusChangedEvent{
		BookingID:     bk.ID(),
		BookingNumber: bk.BookingNumber(),
		ChargerID:     bk.ChargerID(),
		OldStatus:     string(old),
		NewStatus:     string(target),
		OccurredAt:    time.Now().UTC(),
	}
	s.publishEvent(ctx, events.BookingStatusChanged, bk.ChargerID().String(), evt)
}

func (s *ReservationService) publishBookingDeleted(ctx context.Context, bk *bookingDomain.Booking) {
	evt := events.BookingDeletedEvent{
		BookingID:  bk.ID(),
		ChargerID:  bk.ChargerID(),
		Status:     string(bk.Status()),
		OccurredAt: time.Now().UTC(),
	}
	s.publishEvent(ctx, events.BookingDeleted, bk.ChargerID().String(), evt)
}

func (s *ReservationService) publishChargerStatusChanged(ctx context.Context, chargerID uuid.UUID, old, target chargerDomain.ChargerStatus) {
	evt := events.ChargerStatusChangedEvent{
		ChargerID:  chargerID,
		OldStatus:  string(old),
		NewStatus:  string(target),
		OccurredAt: time.Now().UTC(),
	}
	s.publishEvent(ctx, events.ChargerStatusChanged, chargerID.String(), evt)
}

func (s *ReservationService) publishEvent(ctx context.Context, eventType, key string, data interface{}) {
	if s.producer == nil {
		return
	}
	cloudEvent, err := kafka.NewCloudEvent("service-reservation", eventType, data)
	if err != nil {
		s.logger.Error("failed to create cloud event",
			zap.String("event_type", eventType),
			zap.Error(err),
		)
		return
	}
	if err := s.producer.PublishEventWithKey(ctx, events.TopicReservationEvents, key, cloudEvent); err != nil {
		s.logger.Error("failed to publish event",
			zap.String("event_type", eventType),
			zap.Error(err),
		)
	}
}
