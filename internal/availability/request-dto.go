package availability

import "time"

type CreateAvailabilityRequest struct {
	TourID              string            `json:"tour_id" binding:"required,uuid"`
	Date                time.Time         `json:"date" binding:"required"`
	TotalCapacity       int               `json:"total_capacity" binding:"required,min=1,max=10000"`
	BasePricePerPerson  float64           `json:"base_price_per_person" binding:"required,min=0"`
	Currency            string            `json:"currency" binding:"omitempty,len=3"`
	Type                string            `json:"availability_type" binding:"omitempty,oneof=regular special blocked maintenance"`
	TimeSlots           []TimeSlotRequest `json:"time_slots" binding:"omitempty,dive"`
	PricingRules        []PricingRule     `json:"pricing_rules"`
	MinimumParticipants int               `json:"minimum_participants" binding:"omitempty,min=1"`
	MaximumParticipants *int              `json:"maximum_participants" binding:"omitempty,min=1"`
	TourName            string            `json:"tour_name" binding:"omitempty,max=255"`
}

type TimeSlotRequest struct {
	StartTime      string  `json:"start_time" binding:"required"`
	EndTime        string  `json:"end_time" binding:"required"`
	MaxCapacity    int     `json:"max_capacity" binding:"required,min=1"`
	PricePerPerson float64 `json:"price_per_person" binding:"required,min=0"`
	Notes          string  `json:"notes" binding:"omitempty,max=500"`
}

type AvailabilityListQuery struct {
	TourID    string `form:"tour_id" binding:"omitempty,uuid"`
	StartDate string `form:"start_date"`
	EndDate   string `form:"end_date"`
}

type QuoteQuery struct {
	Participants int `form:"participants" binding:"required,min=1"`
}
