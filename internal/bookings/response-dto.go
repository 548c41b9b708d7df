package bookings

import (
	"time"

	"tourly/internal/availability"
)

// BookingResponse is the API shape of a booking.
type BookingResponse struct {
	ID               string            `json:"id"`
	BookingReference string            `json:"booking_reference"`
	AvailabilityID   string            `json:"availability_id"`
	TourID           string            `json:"tour_id"`
	TourDate         time.Time         `json:"tour_date"`
	SelectedTimeSlot *SelectedTimeSlot `json:"selected_time_slot,omitempty"`

	NumberOfParticipants int           `json:"number_of_participants"`
	Participants         []Participant `json:"participants,omitempty"`

	PricePerPerson   float64                        `json:"price_per_person"`
	TotalAmount      float64                        `json:"total_amount"`
	Currency         string                         `json:"currency"`
	AppliedDiscounts []availability.AppliedDiscount `json:"applied_discounts,omitempty"`

	Status        string `json:"status"`
	PaymentStatus string `json:"payment_status"`

	ContactEmail    string `json:"contact_email"`
	ContactPhone    string `json:"contact_phone,omitempty"`
	SpecialRequests string `json:"special_requests,omitempty"`

	CancelledAt        *time.Time `json:"cancelled_at,omitempty"`
	CancellationReason string     `json:"cancellation_reason,omitempty"`
	RefundAmount       *float64   `json:"refund_amount,omitempty"`

	CheckedInAt *time.Time `json:"checked_in_at,omitempty"`
	NoShow      bool       `json:"no_show,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

type BookingListResponse struct {
	Bookings   []BookingResponse `json:"bookings"`
	Pagination PaginationMeta    `json:"pagination"`
}

type PaginationMeta struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	TotalCount int64 `json:"total_count"`
	TotalPages int   `json:"total_pages"`
}

func (b *Booking) ToResponse() BookingResponse {
	return BookingResponse{
		ID:                   b.ID.String(),
		BookingReference:     b.BookingReference,
		AvailabilityID:       b.AvailabilityID.String(),
		TourID:               b.TourID.String(),
		TourDate:             b.TourDate,
		SelectedTimeSlot:     b.SelectedTimeSlot,
		NumberOfParticipants: b.NumberOfParticipants,
		Participants:         b.Participants,
		PricePerPerson:       b.PricePerPerson,
		TotalAmount:          b.TotalAmount,
		Currency:             b.Currency,
		AppliedDiscounts:     b.AppliedDiscounts,
		Status:               b.Status.String(),
		PaymentStatus:        string(b.PaymentStatus),
		ContactEmail:         b.ContactEmail,
		ContactPhone:         b.ContactPhone,
		SpecialRequests:      b.SpecialRequests,
		CancelledAt:          b.CancelledAt,
		CancellationReason:   b.CancellationReason,
		RefundAmount:         b.RefundAmount,
		CheckedInAt:          b.CheckedInAt,
		NoShow:               b.NoShow,
		CreatedAt:            b.CreatedAt,
	}
}

func ToListResponse(bookings []Booking, page, limit int, totalCount int64) BookingListResponse {
	responses := make([]BookingResponse, 0, len(bookings))
	for i := range bookings {
		responses = append(responses, bookings[i].ToResponse())
	}

	totalPages := int(totalCount) / limit
	if int(totalCount)%limit != 0 {
		totalPages++
	}

	return BookingListResponse{
		Bookings: responses,
		Pagination: PaginationMeta{
			Page:       page,
			Limit:      limit,
			TotalCount: totalCount,
			TotalPages: totalPages,
		},
	}
}
