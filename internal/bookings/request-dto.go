package bookings

type CreateBookingRequest struct {
	AvailabilityID       string               `json:"availability_id" binding:"required,uuid"`
	NumberOfParticipants int                  `json:"number_of_participants" binding:"required,min=1"`
	TimeSlotIndex        *int                 `json:"time_slot_index,omitempty" binding:"omitempty,min=0"`
	Participants         []ParticipantRequest `json:"participants,omitempty" binding:"omitempty,dive"`
	ContactEmail         string               `json:"contact_email" binding:"required,email"`
	ContactPhone         string               `json:"contact_phone,omitempty"`
	SpecialRequests      string               `json:"special_requests,omitempty" binding:"omitempty,max=1000"`
}

type ParticipantRequest struct {
	Name                string   `json:"name" binding:"required,min=1,max=100"`
	Age                 *int     `json:"age,omitempty" binding:"omitempty,min=0,max=120"`
	DietaryRequirements []string `json:"dietary_requirements,omitempty"`
	SpecialNeeds        string   `json:"special_needs,omitempty" binding:"omitempty,max=500"`
}

type CancelBookingRequest struct {
	Reason string `json:"reason,omitempty" binding:"omitempty,max=500"`
}

type ProcessPaymentRequest struct {
	PaymentMethod string `json:"payment_method" binding:"required,oneof=card paypal bank_transfer"`
}
