package availability

import "time"

// AvailabilitySummary is the listing shape returned to travelers.
type AvailabilitySummary struct {
	ID                 string     `json:"id"`
	TourID             string     `json:"tour_id"`
	TourName           string     `json:"tour_name,omitempty"`
	Date               time.Time  `json:"date"`
	DayOfWeek          string     `json:"day_of_week"`
	AvailableSpots     int        `json:"available_spots"`
	TotalCapacity      int        `json:"total_capacity"`
	BasePricePerPerson float64    `json:"base_price_per_person"`
	Currency           string     `json:"currency"`
	TimeSlots          []TimeSlot `json:"time_slots,omitempty"`
}

// QuoteResponse is the result of a price quote.
type QuoteResponse struct {
	AvailabilityID string            `json:"availability_id"`
	Participants   int               `json:"participants"`
	PricePerPerson float64           `json:"price_per_person"`
	TotalAmount    float64           `json:"total_amount"`
	Currency       string            `json:"currency"`
	Discounts      []AppliedDiscount `json:"applied_discounts,omitempty"`
	QuotedAt       time.Time         `json:"quoted_at"`
}

// ToSummary converts an Availability to its listing shape.
func (a *Availability) ToSummary() AvailabilitySummary {
	return AvailabilitySummary{
		ID:                 a.ID.String(),
		TourID:             a.TourID.String(),
		TourName:           a.TourName,
		Date:               a.Date,
		DayOfWeek:          a.DayOfWeek,
		AvailableSpots:     a.AvailableSpots,
		TotalCapacity:      a.TotalCapacity,
		BasePricePerPerson: a.BasePricePerPerson,
		Currency:           a.Currency,
		TimeSlots:          a.TimeSlots,
	}
}
