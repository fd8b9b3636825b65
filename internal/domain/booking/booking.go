package booking

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"time"

	"github.com/google/uuid"

	"github.com/voltgrid-charging/service-reservation/pkg/domain"
)

const bookingNumberChars = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// Booking is the aggregate root for a reservation of one charger for one
// time slot by one requester.
type Booking struct {
	id            uuid.UUID
	bookingNumber string
	requesterID   uuid.UUID
	chargerID     uuid.UUID
	slot          TimeSlot
	status        BookingStatus
	cancelNote    string
	cancelledAt   *time.Time
	completedAt   *time.Time
	version       int64
	createdAt     time.Time
	updatedAt     time.Time
}

// generateBookingNumber creates a booking number in the format "RV-XXXXXX".
func generateBookingNumber() (string, error) {
	result := make([]byte, 6)
	for i := range result {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(bookingNumberChars))))
		if err != nil {
			return "", fmt.Errorf("failed to generate booking number: %w", err)
		}
		result[i] = bookingNumberChars[n.Int64()]
	}
	return "RV-" + string(result), nil
}

// NewBooking validates the request and creates a Booking with status=pending.
// The rules run in a fixed order and the first failure wins.
func NewBooking(requesterID, chargerID uuid.UUID, start, end time.Time) (*Booking, error) {
	if start.IsZero() {
		return nil, domain.NewValidationError("start time is required")
	}
	if end.IsZero() || !end.After(start) {
		return nil, domain.NewValidationError("end time must be after start time")
	}
	if requesterID == uuid.Nil {
		return nil, domain.NewValidationError("requester ID is required")
	}
	if chargerID == uuid.Nil {
		return nil, domain.NewValidationError("charger ID is required")
	}
	if start.Before(time.Now().UTC()) {
		return nil, domain.NewValidationError("start time cannot be in the past")
	}

	bookingNumber, err := generateBookingNumber()
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	return &Booking{
		id:            uuid.New(),
		bookingNumber: bookingNumber,
		requesterID:   requesterID,
		chargerID:     chargerID,
		slot:          NewTimeSlot(start.UTC(), end.UTC()),
		status:        StatusPending,
		version:       1,
		createdAt:     now,
		updatedAt:     now,
	}, nil
}

// ReconstructBooking rebuilds a Booking from persistence data (no validation).
func ReconstructBooking(
	id uuid.UUID,
	bookingNumber string,
	requesterID uuid.UUID,
	chargerID uuid.UUID,
	slot TimeSlot,
	status BookingStatus,
	cancelNote string,
	cancelledAt *time.Time,
	completedAt *time.Time,
	version int64,
	createdAt time.Time,
	updatedAt time.Time,
) *Booking {
	return &Booking{
		id:            id,
		bookingNumber: bookingNumber,
		requesterID:   requesterID,
		chargerID:     chargerID,
		slot:          slot,
		status:        status,
		cancelNote:    cancelNote,
		cancelledAt:   cancelledAt,
		completedAt:   completedAt,
		version:       version,
		createdAt:     createdAt,
		updatedAt:     updatedAt,
	}
}

// ID returns the booking's unique identifier.
func (b *Booking) ID() uuid.UUID { return b.id }

// BookingNumber returns the human-readable booking number.
func (b *Booking) BookingNumber() string { return b.bookingNumber }

// RequesterID returns the ID of the user who made the reservation.
func (b *Booking) RequesterID() uuid.UUID { return b.requesterID }

// ChargerID returns the ID of the reserved charger.
func (b *Booking) ChargerID() uuid.UUID { return b.chargerID }

// Slot returns the reserved time slot.
func (b *Booking) Slot() TimeSlot { return b.slot }

// Status returns the current booking status.
func (b *Booking) Status() BookingStatus { return b.status }

// CancelNote returns the cancellation reason, if any.
func (b *Booking) CancelNote() string { return b.cancelNote }

// CancelledAt returns the time the booking was cancelled.
func (b *Booking) CancelledAt() *time.Time { return b.cancelledAt }

// CompletedAt returns the time the booking was completed.
func (b *Booking) CompletedAt() *time.Time { return b.completedAt }

// Version returns the entity version for optimistic locking.
func (b *Booking) Version() int64 { return b.version }

// CreatedAt returns the creation timestamp.
func (b *Booking) CreatedAt() time.Time { return b.createdAt }

// UpdatedAt returns the last-updated timestamp.
func (b *Booking) UpdatedAt() time.Time { return b.updatedAt }

// IsActive reports whether the booking still counts against the charger's
// schedule. Cancelled bookings free their slot; everything else occupies it.
func (b *Booking) IsActive() bool {
	return b.status != StatusCancelled
}

// ChangeStatus moves the booking to the target status. Transitions out of a
// terminal state are rejected; re-asserting the current status is a no-op.
func (b *Booking) ChangeStatus(target BookingStatus) error {
	if !target.IsValid() {
		return domain.NewValidationError("invalid booking status: " + string(target))
	}
	if !b.status.CanTransitionTo(target) {
		return domain.NewInvalidStateError(string(b.status), string(target))
	}
	if b.status == target {
		return nil
	}

	now := time.Now().UTC()
	switch target {
	case StatusCancelled:
		b.cancelledAt = &now
	case StatusCompleted:
		b.completedAt = &now
	}
	b.status = target
	b.updatedAt = now
	return nil
}

// Cancel transitions the booking to cancelled with a reason. Cancelling an
// already-cancelled booking is a no-op that keeps the original note.
func (b *Booking) Cancel(reason string) error {
	if b.status == StatusCancelled {
		return nil
	}
	if err := b.ChangeStatus(StatusCancelled); err != nil {
		return err
	}
	b.cancelNote = reason
	return nil
}

// IncrementVersion bumps the version for optimistic locking.
func (b *Booking) IncrementVersion() {
	b.version++
	b.updatedAt = time.Now().UTC()
}
