package application

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	chargerDomain "github.com/voltgrid-charging/service-reservation/internal/domain/charger"
	"github.com/voltgrid-charging/service-reservation/internal/events"
	"github.com/voltgrid-charging/service-reservation/pkg/domain"
	"github.com/voltgrid-charging/service-reservation/pkg/kafka"
	"github.com/voltgrid-charging/service-reservation/pkg/keymutex"
)

// RegisterChargerRequest holds the data needed to register a charger.
type RegisterChargerRequest struct {
	ConnectorType string  `json:"connector_type" binding:"required"`
	PowerKW       float64 `json:"power_kw" binding:"required"`
}

// ChargerDTO is the response representation of a charger.
type ChargerDTO struct {
	ID            uuid.UUID `json:"id"`
	ConnectorType string    `json:"connector_type"`
	PowerKW       float64   `json:"power_kw"`
	Status        string    `json:"status"`
	Version       int64     `json:"version"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// ChargerService owns operator-facing charger management and the charger
// operational state machine. Booking-driven status changes live in
// ReservationService; both share the same per-charger locks.
type ChargerService struct {
	store    Store
	locks    *keymutex.KeyMutex
	producer *kafka.Producer
	logger   *zap.Logger
}

// NewChargerService creates a ChargerService.
func NewChargerService(store Store, locks *keymutex.KeyMutex, producer *kafka.Producer, logger *zap.Logger) *ChargerService {
	return &ChargerService{
		store:    store,
		locks:    locks,
		producer: producer,
		logger:   logger,
	}
}

// RegisterCharger creates a new charger in the available state.
func (s *ChargerService) RegisterCharger(ctx context.Context, req RegisterChargerRequest) (*ChargerDTO, error) {
	ch, err := chargerDomain.NewCharger(req.ConnectorType, req.PowerKW)
	if err != nil {
		return nil, err
	}
	if err := s.store.Chargers().Save(ctx, ch); err != nil {
		return nil, err
	}

	result := toChargerDTO(ch)
	return &result, nil
}

// GetCharger retrieves a single charger by ID.
func (s *ChargerService) GetCharger(ctx context.Context, id uuid.UUID) (*ChargerDTO, error) {
	ch, err := s.store.Chargers().FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	result := toChargerDTO(ch)
	return &result, nil
}

// ListChargers retrieves paginated chargers.
func (s *ChargerService) ListChargers(ctx context.Context, page, limit int) (*domain.PaginatedResult[ChargerDTO], error) {
	chargers, total, err := s.store.Chargers().List(ctx, page, limit)
	if err != nil {
		return nil, err
	}

	dtos := make([]ChargerDTO, len(chargers))
	for i, ch := range chargers {
		dtos[i] = toChargerDTO(ch)
	}
	result := domain.NewPaginatedResult(dtos, total, page, limit)
	return &result, nil
}

// GetAvailability returns the charger's current operational status.
func (s *ChargerService) GetAvailability(ctx context.Context, id uuid.UUID) (chargerDomain.ChargerStatus, error) {
	ch, err := s.store.Chargers().FindByID(ctx, id)
	if err != nil {
		return "", err
	}
	return ch.Status(), nil
}

// UpdateAvailability applies an operator-requested status change. The change
// is rejected while the charger has outstanding bookings, so the operator
// cannot pull a charger out from under an admitted reservation.
func (s *ChargerService) UpdateAvailability(ctx context.Context, id uuid.UUID, target chargerDomain.ChargerStatus) (*ChargerDTO, error) {
	key := id.String()
	s.locks.Lock(key)
	defer s.locks.Unlock(key)

	var (
		ch  *chargerDomain.Charger
		old chargerDomain.ChargerStatus
	)
	err := s.store.Atomically(ctx, func(tx Store) error {
		var err error
		ch, err = tx.Chargers().FindByID(ctx, id)
		if err != nil {
			return err
		}
		old = ch.Status()
		if old == target {
			return nil
		}

		outstanding, err := s.hasOutstandingBookings(ctx, tx, id)
		if err != nil {
			return err
		}
		if outstanding {
			return domain.NewConflictError("charger has outstanding bookings")
		}

		if err := ch.ChangeStatus(target); err != nil {
			return err
		}
		ch.IncrementVersion()
		return tx.Chargers().Update(ctx, ch)
	})
	if err != nil {
		return nil, err
	}

	if old != target {
		s.publishStatusChanged(ctx, id, old, target)
	}
	result := toChargerDTO(ch)
	return &result, nil
}

// ReportFault records a hardware fault from the station gateway. The
// connector is physically down, so the status is forced to out_of_service
// regardless of the transition table or outstanding bookings.
func (s *ChargerService) ReportFault(ctx context.Context, id uuid.UUID, errorCode string) error {
	key := id.String()
	s.locks.Lock(key)
	defer s.locks.Unlock(key)

	var old chargerDomain.ChargerStatus
	err := s.store.Atomically(ctx, func(tx Store) error {
		ch, err := tx.Chargers().FindByID(ctx, id)
		if err != nil {
			return err
		}
		old = ch.Status()
		if old == chargerDomain.StatusOutOfService {
			return nil
		}
		ch.ForceStatus(chargerDomain.StatusOutOfService)
		ch.IncrementVersion()
		return tx.Chargers().Update(ctx, ch)
	})
	if err != nil {
		return err
	}

	if old != chargerDomain.StatusOutOfService {
		s.logger.Warn("charger fault reported",
			zap.String("charger_id", id.String()),
			zap.String("error_code", errorCode),
		)
		s.publishStatusChanged(ctx, id, old, chargerDomain.StatusOutOfService)
	}
	return nil
}

// ReportRecovery records a recovery from the station gateway. The status is
// recomputed from the booking set instead of blindly set to available, so an
// outstanding reservation keeps the charger marked being_used.
func (s *ChargerService) ReportRecovery(ctx context.Context, id uuid.UUID) error {
	key := id.String()
	s.locks.Lock(key)
	defer s.locks.Unlock(key)

	var old, target chargerDomain.ChargerStatus
	err := s.store.Atomically(ctx, func(tx Store) error {
		ch, err := tx.Chargers().FindByID(ctx, id)
		if err != nil {
			return err
		}
		old = ch.Status()

		outstanding, err := s.hasOutstandingBookings(ctx, tx, id)
		if err != nil {
			return err
		}
		target = chargerDomain.StatusAvailable
		if outstanding {
			target = chargerDomain.StatusBeingUsed
		}
		if old == target {
			return nil
		}

		ch.ForceStatus(target)
		ch.IncrementVersion()
		return tx.Chargers().Update(ctx, ch)
	})
	if err != nil {
		return err
	}

	if old != target {
		s.publishStatusChanged(ctx, id, old, target)
	}
	return nil
}

// hasOutstandingBookings reports whether any non-cancelled, non-completed
// booking for the charger is still pending or underway.
func (s *ChargerService) hasOutstandingBookings(ctx context.Context, tx Store, chargerID uuid.UUID) (bool, error) {
	active, err := tx.Bookings().FindActiveByChargerID(ctx, chargerID)
	if err != nil {
		return false, err
	}
	for _, bk := range active {
		if !bk.Status().IsTerminal() {
			return true, nil
		}
	}
	return false, nil
}

func toChargerDTO(ch *chargerDomain.Charger) ChargerDTO {
	return ChargerDTO{
		ID:            ch.ID(),
		ConnectorType: ch.ConnectorType(),
		PowerKW:       ch.PowerKW(),
		Status:        string(ch.Status()),
		Version:       ch.Version(),
		CreatedAt:     ch.CreatedAt(),
		UpdatedAt:     ch.UpdatedAt(),
	}
}

func (s *ChargerService) publishStatusChanged(ctx context.Context, chargerID uuid.UUID, old, target chargerDomain.ChargerStatus) {
	if s.producer == nil {
		return
	}
	evt := events.ChargerStatusChangedEvent{
		ChargerID:  chargerID,
		OldStatus:  string(old),
		NewStatus:  string(target),
		OccurredAt: time.Now().UTC(),
	}
	cloudEvent, err := kafka.NewCloudEvent("service-reservation", events.ChargerStatusChanged, evt)
	if err != nil {
		s.logger.Error("failed to create cloud event", zap.Error(err))
		return
	}
	if err := s.producer.PublishEventWithKey(ctx, events.TopicReservationEvents, chargerID.String(), cloudEvent); err != nil {
		s.logger.Error("failed to publish charger status event",
			zap.String("charger_id", chargerID.String()),
			zap.Error(err),
		)
	}
}
