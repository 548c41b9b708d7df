package registrations

import "time"

type CreateTourRequest struct {
	Title          string    `json:"title" binding:"required,min=1,max=200"`
	Description    string    `json:"description,omitempty" binding:"omitempty,max=2000"`
	StartDate      time.Time `json:"start_date" binding:"required" time_format:"2006-01-02"`
	EndDate        time.Time `json:"end_date" binding:"required" time_format:"2006-01-02"`
	MaxTourists    int       `json:"max_tourists" binding:"required,min=1"`
	PricePerPerson float64   `json:"price_per_person" binding:"min=0"`
	Currency       string    `json:"currency,omitempty" binding:"omitempty,len=3"`
}

type RegisterRequest struct {
	CustomTourID string `json:"custom_tour_id" binding:"required,uuid"`
	Message      string `json:"message,omitempty" binding:"omitempty,max=1000"`
	ContactEmail string `json:"contact_email" binding:"required,email"`
	ContactPhone string `json:"contact_phone,omitempty"`
}

type DecideRequest struct {
	Status string `json:"status" binding:"required,oneof=approved rejected"`
}
