package charger

import (
	"time"

	"github.com/google/uuid"

	"github.com/voltgrid-charging/service-reservation/pkg/domain"
)

// Charger is the aggregate root for a single physical connector point.
// Its status is the fast-path answer to "can a new booking be admitted now";
// every change to it goes through ChangeStatus so the transition table is the
// single place the rules live.
type Charger struct {
	id            uuid.UUID
	connectorType string
	powerKW       float64
	status        ChargerStatus
	version       int64
	createdAt     time.Time
	updatedAt     time.Time
}

// NewCharger creates a new Charger in the available state.
func NewCharger(connectorType string, powerKW float64) (*Charger, error) {
	if connectorType == "" {
		return nil, domain.NewValidationError("connector type is required")
	}
	if powerKW <= 0 {
		return nil, domain.NewValidationError("rated power must be positive")
	}

	now := time.Now().UTC()
	return &Charger{
		id:            uuid.New(),
		connectorType: connectorType,
		powerKW:       powerKW,
		status:        StatusAvailable,
		version:       1,
		createdAt:     now,
		updatedAt:     now,
	}, nil
}

// ReconstructCharger rebuilds a Charger from persistence data (no validation).
func ReconstructCharger(
	id uuid.UUID,
	connectorType string,
	powerKW float64,
	status ChargerStatus,
	version int64,
	createdAt time.Time,
	updatedAt time.Time,
) *Charger {
	return &Charger{
		id:            id,
		connectorType: connectorType,
		powerKW:       powerKW,
		status:        status,
		version:       version,
		createdAt:     createdAt,
		updatedAt:     updatedAt,
	}
}

// ID returns the charger's unique identifier.
func (c *Charger) ID() uuid.UUID { return c.id }

// ConnectorType returns the physical connector type (e.g. "CCS2").
func (c *Charger) ConnectorType() string { return c.connectorType }

// PowerKW returns the rated power in kilowatts.
func (c *Charger) PowerKW() float64 { return c.powerKW }

// Status returns the current operational status.
func (c *Charger) Status() ChargerStatus { return c.status }

// Version returns the entity version for optimistic locking.
func (c *Charger) Version() int64 { return c.version }

// CreatedAt returns the creation timestamp.
func (c *Charger) CreatedAt() time.Time { return c.createdAt }

// UpdatedAt returns the last-updated timestamp.
func (c *Charger) UpdatedAt() time.Time { return c.updatedAt }

// IsAvailable reports whether a new booking may be admitted right now.
func (c *Charger) IsAvailable() bool {
	return c.status == StatusAvailable
}

// ChangeStatus moves the charger to the target status if the transition
// table allows it.
func (c *Charger) ChangeStatus(target ChargerStatus) error {
	if !target.IsValid() {
		return domain.NewValidationError("invalid charger status: " + string(target))
	}
	if !c.status.CanTransitionTo(target) {
		return domain.NewInvalidStateError(string(c.status), string(target))
	}
	c.status = target
	c.updatedAt = time.Now().UTC()
	return nil
}

// ForceStatus sets the status without consulting the transition table. It is
// reserved for hardware reports from the station gateway, where the physical
// state has already changed and the model must follow.
func (c *Charger) ForceStatus(target ChargerStatus) {
	c.status = target
	c.updatedAt = time.Now().UTC()
}

// IncrementVersion bumps the version for optimistic locking.
func (c *Charger) IncrementVersion() {
	c.version++
	c.updatedAt = time.Now().UTC()
}
