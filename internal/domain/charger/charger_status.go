package charger

import "fmt"

// ChargerStatus represents the operational availability of a charger.
type ChargerStatus string

const (
	StatusAvailable        ChargerStatus = "available"
	StatusBeingUsed        ChargerStatus = "being_used"
	StatusUnderMaintenance ChargerStatus = "under_maintenance"
	StatusOutOfService     ChargerStatus = "out_of_service"
)

// validTransitions defines the state machine for charger status changes.
// Every transition is allowed except out_of_service -> being_used: a charger
// that is out of service cannot be handed to a new charging session.
var validTransitions = map[ChargerStatus][]ChargerStatus{
	StatusAvailable:        {StatusBeingUsed, StatusUnderMaintenance, StatusOutOfService},
	StatusBeingUsed:        {StatusAvailable, StatusUnderMaintenance, StatusOutOfService},
	StatusUnderMaintenance: {StatusAvailable, StatusBeingUsed, StatusOutOfService},
	StatusOutOfService:     {StatusAvailable, StatusUnderMaintenance},
}

// IsValid returns true if the status is a recognized charger status.
func (s ChargerStatus) IsValid() bool {
	_, exists := validTransitions[s]
	return exists
}

// CanTransitionTo returns true if a transition from this status to the target
// is allowed. Setting the same status again is always accepted.
func (s ChargerStatus) CanTransitionTo(target ChargerStatus) bool {
	if s == target {
		return true
	}
	allowed, exists := validTransitions[s]
	if !exists {
		return false
	}
	for _, t := range allowed {
		if t == target {
			return true
		}
	}
	return false
}

// String returns the string representation of the status.
func (s ChargerStatus) String() string {
	return string(s)
}

// ParseChargerStatus converts a string to a ChargerStatus, returning an error if invalid.
func ParseChargerStatus(s string) (ChargerStatus, error) {
	status := ChargerStatus(s)
	if !status.IsValid() {
		return "", fmt.Errorf("invalid charger status: %s", s)
	}
	return status, nil
}
