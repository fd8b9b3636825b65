package events

import (
	"time"

	"github.com/google/uuid"
)

// Topics the reservation service produces to and consumes from.
const (
	TopicReservationEvents = "reservation.events"
	TopicStationEvents     = "station.events"
)

// Event types on reservation.events (produced).
const (
	BookingCreated       = "reservation.booking.created"
	BookingStatusChanged = "reservation.booking.status_changed"
	BookingDeleted       = "reservation.booking.deleted"
	ChargerStatusChanged = "reservation.charger.status_changed"
)

// Event types on station.events (consumed, emitted by the station gateway).
const (
	ChargerFaulted   = "station.charger.faulted"
	ChargerRecovered = "station.charger.recovered"
)

// BookingCreatedEvent is published when admission control accepts a booking.
type BookingCreatedEvent struct {
	BookingID     uuid.UUID `json:"booking_id"`
	BookingNumber string    `json:"booking_number"`
	RequesterID   uuid.UUID `json:"requester_id"`
	ChargerID     uuid.UUID `json:"charger_id"`
	StartTime     time.Time `json:"start_time"`
	EndTime       time.Time `json:"end_time"`
	OccurredAt    time.Time `json:"occurred_at"`
}

// BookingStatusChangedEvent is published on every accepted status transition.
type BookingStatusChangedEvent struct {
	BookingID     uuid.UUID `json:"booking_id"`
	BookingNumber string    `json:"booking_number"`
	ChargerID     uuid.UUID `json:"charger_id"`
	OldStatus     string    `json:"old_status"`
	NewStatus     string    `json:"new_status"`
	OccurredAt    time.Time `json:"occurred_at"`
}

// BookingDeletedEvent is published when a booking record is removed.
type BookingDeletedEvent struct {
	BookingID  uuid.UUID `json:"booking_id"`
	ChargerID  uuid.UUID `json:"charger_id"`
	Status     string    `json:"status"`
	OccurredAt time.Time `json:"occurred_at"`
}

// ChargerStatusChangedEvent is published whenever a charger's operational
// status changes, whether booking-driven or operator-driven.
type ChargerStatusChangedEvent struct {
	ChargerID  uuid.UUID `json:"charger_id"`
	OldStatus  string    `json:"old_status"`
	NewStatus  string    `json:"new_status"`
	OccurredAt time.Time `json:"occurred_at"`
}

// StationReportEvent is the payload of charger fault/recovery notifications
// from the station gateway.
type StationReportEvent struct {
	ChargerID  uuid.UUID `json:"charger_id"`
	ErrorCode  string    `json:"error_code,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}
