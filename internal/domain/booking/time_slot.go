package booking

import "time"

// TimeSlot is an immutable value object for the interval a charger is
// reserved for. Both endpoints are inclusive for conflict purposes.
type TimeSlot struct {
	Start time.Time `json:"start_time"`
	End   time.Time `json:"end_time"`
}

// NewTimeSlot creates a TimeSlot without validating it; validation happens
// in NewBooking so the error messages stay in one place.
func NewTimeSlot(start, end time.Time) TimeSlot {
	return TimeSlot{Start: start, End: end}
}

// Duration returns the length of the slot.
func (s TimeSlot) Duration() time.Duration {
	return s.End.Sub(s.Start)
}

// Conflicts reports whether an existing slot s collides with the requested
// slot. Boundaries are inclusive: two slots that merely touch at an endpoint
// conflict.
func (s TimeSlot) Conflicts(requested TimeSlot) bool {
	// s.Start <= requested.End && s.End >= requested.Start
	if !s.Start.After(requested.End) && !s.End.Before(requested.Start) {
		return true
	}
	// s.Start >= requested.Start && s.Start <= requested.End
	if !s.Start.Before(requested.Start) && !s.Start.After(requested.End) {
		return true
	}
	return false
}
