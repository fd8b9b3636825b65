//go:build integration

package main_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/voltgrid-charging/service-reservation/internal/application"
	bookingDomain "github.com/voltgrid-charging/service-reservation/internal/domain/booking"
	chargerDomain "github.com/voltgrid-charging/service-reservation/internal/domain/charger"
	reservationEvents "github.com/voltgrid-charging/service-reservation/internal/events"
)

// TestBookingAdmission_EndToEnd drives the full admission flow against real
// PostgreSQL and Kafka: create a booking, observe the charger flip to
// being_used, reject a competing booking, complete the booking, observe the
// charger released and the events on the wire.
func TestBookingAdmission_EndToEnd(t *testing.T) {
	infra := setupContainers(t)
	defer infra.Cleanup()

	stack := setupReservationStack(t, infra.DB, infra.KafkaBrokers)
	defer stack.CleanupProducer()

	ctx := context.Background()

	charger, err := stack.Chargers.RegisterCharger(ctx, application.RegisterChargerRequest{
		ConnectorType: "CCS2",
		PowerKW:       150,
	})
	require.NoError(t, err)

	requester := uuid.New()
	start := time.Now().Add(2 * time.Hour)
	end := start.Add(time.Hour)

	created, err := stack.Reservations.CreateBooking(ctx, requester, application.CreateBookingRequest{
		ChargerID: charger.ID,
		StartTime: start,
		EndTime:   end,
	})
	require.NoError(t, err)
	assert.Equal(t, string(bookingDomain.StatusPending), created.Status)

	model := waitForChargerStatus(t, infra.DB, charger.ID, string(chargerDomain.StatusBeingUsed), 5*time.Second)
	assert.Equal(t, int64(2), model.Version)

	// A competing booking on the same charger is rejected.
	_, err = stack.Reservations.CreateBooking(ctx, uuid.New(), application.CreateBookingRequest{
		ChargerID: charger.ID,
		StartTime: start,
		EndTime:   end,
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "charger is not available for booking")

	// Completing the booking releases the charger.
	_, err = stack.Reservations.UpdateBookingStatus(ctx, created.ID, bookingDomain.StatusCompleted, "")
	require.NoError(t, err)
	waitForChargerStatus(t, infra.DB, charger.ID, string(chargerDomain.StatusAvailable), 5*time.Second)

	// The created event made it onto the reservation topic.
	ce := consumeOneEvent(t, infra.KafkaBrokers, reservationEvents.TopicReservationEvents,
		reservationEvents.BookingCreated, 15*time.Second)

	var evt reservationEvents.BookingCreatedEvent
	require.NoError(t, ce.ParseData(&evt))
	assert.Equal(t, created.ID, evt.BookingID)
	assert.Equal(t, charger.ID, evt.ChargerID)
	assert.Equal(t, requester, evt.RequesterID)
}

// TestStationFault_ForcesChargerOutOfService verifies that a fault report
// published to station.events is picked up by the consumer and forces the
// charger out of service, and that a recovery report restores it.
func TestStationFault_ForcesChargerOutOfService(t *testing.T) {
	infra := setupContainers(t)
	defer infra.Cleanup()

	stack := setupReservationStack(t, infra.DB, infra.KafkaBrokers)
	defer stack.CleanupProducer()
	defer func() { _ = stack.Consumer.Close() }()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = stack.Consumer.Start(ctx) }()
	time.Sleep(3 * time.Second) // Wait for consumer group join.

	charger, err := stack.Chargers.RegisterCharger(ctx, application.RegisterChargerRequest{
		ConnectorType: "CHAdeMO",
		PowerKW:       50,
	})
	require.NoError(t, err)

	publishTestEvent(t, infra.KafkaBrokers, reservationEvents.TopicStationEvents,
		"station-gateway", reservationEvents.ChargerFaulted, reservationEvents.StationReportEvent{
			ChargerID:  charger.ID,
			ErrorCode:  "E42",
			OccurredAt: time.Now().UTC(),
		})

	waitForChargerStatus(t, infra.DB, charger.ID, string(chargerDomain.StatusOutOfService), 15*time.Second)

	// While out of service the charger rejects bookings.
	start := time.Now().Add(2 * time.Hour)
	_, err = stack.Reservations.CreateBooking(ctx, uuid.New(), application.CreateBookingRequest{
		ChargerID: charger.ID,
		StartTime: start,
		EndTime:   start.Add(time.Hour),
	})
	require.Error(t, err)

	publishTestEvent(t, infra.KafkaBrokers, reservationEvents.TopicStationEvents,
		"station-gateway", reservationEvents.ChargerRecovered, reservationEvents.StationReportEvent{
			ChargerID:  charger.ID,
			OccurredAt: time.Now().UTC(),
		})

	waitForChargerStatus(t, infra.DB, charger.ID, string(chargerDomain.StatusAvailable), 15*time.Second)
}
