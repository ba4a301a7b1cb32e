package attendance

import "errors"

// Submission rejection kinds. Every kind except notification failure is
// detected before any record is written.
const (
	KindSlotTaken             = "slot_taken"
	KindEmptyRoster           = "empty_roster"
	KindLocationRequired      = "location_required"
	KindGeofenceMisconfigured = "geofence_misconfigured"
	KindOutOfRange            = "out_of_range"
	KindInvalidInput          = "invalid_input"
)

// SubmitError is a user-attributable rejection of a submission. Kind drives
// the HTTP mapping; the extra fields let clients render an actionable
// message instead of a generic failure.
type SubmitError struct {
	Kind     string  `json:"kind"`
	Detail   string  `json:"detail"`
	TakenBy  string  `json:"taken_by,omitempty"`
	Distance float64 `json:"distance_meters,omitempty"`
	Radius   float64 `json:"radius_meters,omitempty"`
}

func (e *SubmitError) Error() string { return e.Detail }

// AsSubmitError unwraps err into a SubmitError if it is one.
func AsSubmitError(err error) (*SubmitError, bool) {
	var se *SubmitError
	if errors.As(err, &se) {
		return se, true
	}
	return nil, false
}

// ErrSlotConflict is returned by the ledger when the unique constraint on
// (branch, semester, date, period) fires. The workflow turns it into a
// slot_taken SubmitError naming the staff member who got there first.
var ErrSlotConflict = errors.New("cohort slot already taken")
