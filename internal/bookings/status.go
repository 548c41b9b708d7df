package bookings

// Status is the booking lifecycle state. All transitions are centralized
// here; callers never write the status field directly.
type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusPaid      Status = "paid"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
	StatusNoShow    Status = "no_show"
	StatusRefunded  Status = "refunded"
)

func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusPaid, StatusCompleted,
		StatusCancelled, StatusNoShow, StatusRefunded:
		return true
	}
	return false
}

func (s Status) String() string {
	return string(s)
}

// IsTerminal reports whether no further transitions leave this state.
// Cancelled is not terminal: a paid booking that was cancelled can still
// move to refunded.
func (s Status) IsTerminal() bool {
	switch s {
	case StatusCompleted, StatusNoShow, StatusRefunded:
		return true
	}
	return false
}

// CanBeCancelled reports whether Cancel is legal from this state.
func (s Status) CanBeCancelled() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusPaid:
		return true
	}
	return false
}

// CanCheckIn reports whether CheckIn is legal from this state.
func (s Status) CanCheckIn() bool {
	return s == StatusConfirmed || s == StatusPaid
}

// legalTransitions maps each source state to its allowed targets.
var legalTransitions = map[Status][]Status{
	StatusPending:   {StatusConfirmed, StatusCancelled},
	StatusConfirmed: {StatusPaid, StatusCompleted, StatusCancelled, StatusNoShow},
	StatusPaid:      {StatusCompleted, StatusCancelled, StatusNoShow, StatusRefunded},
	StatusCancelled: {StatusRefunded},
	// completed, no_show, refunded are terminal
}

// CanTransitionTo reports whether moving from s to target is legal.
func (s Status) CanTransitionTo(target Status) bool {
	for _, allowed := range legalTransitions[s] {
		if allowed == target {
			return true
		}
	}
	return false
}

// PaymentStatus tracks the money side independently of the booking
// lifecycle; it is driven by the payment collaborator.
type PaymentStatus string

const (
	PaymentPending  PaymentStatus = "pending"
	PaymentPartial  PaymentStatus = "partial"
	PaymentPaid     PaymentStatus = "paid"
	PaymentRefunded PaymentStatus = "refunded"
	PaymentFailed   PaymentStatus = "failed"
)

func (p PaymentStatus) IsValid() bool {
	switch p {
	case PaymentPending, PaymentPartial, PaymentPaid, PaymentRefunded, PaymentFailed:
		return true
	}
	return false
}
