package booking

// Status classifies how one booking attempt ended. Fatal conditions
// are not a Status: they travel as a non-nil error next to the zero
// Outcome, and stop the worker that hit them.
type Status string

const (
	// StatusBooked: the reservation went through. Ends the race.
	StatusBooked Status = "booked"

	// StatusSlotUnavailable: the desired slot is not offered (date
	// outside the bookable horizon, facility closed, time not listed,
	// no matching reserve control). Move on to the next candidate.
	StatusSlotUnavailable Status = "slot_unavailable"

	// StatusAlreadyReserved: this account already holds a reservation
	// for the period. Account-specific; move on.
	StatusAlreadyReserved Status = "already_reserved"

	// StatusCreditExhausted: this account's online booking credit is
	// empty. Account-specific; move on.
	StatusCreditExhausted Status = "credit_exhausted"
)

// Outcome reports one attempt. CourtID/Date/Time/Username are filled
// only when Status is StatusBooked.
type Outcome struct {
	Status Status
	Reason string

	CourtID  string
	Date     string
	Time     string
	Username string
}

// Booked reports whether the attempt won the race.
func (o Outcome) Booked() bool { return o.Status == StatusBooked }

func unavailable(reason string) Outcome {
	return Outcome{Status: StatusSlotUnavailable, Reason: reason}
}
