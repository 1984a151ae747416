package booking

import (
	"time"

	"safaristay/internal/domain"
)

type RoomInput struct {
	RoomID                 string  `json:"roomId" validate:"required"`
	RoomName               string  `json:"roomName"`
	Quantity               int     `json:"quantity" validate:"gte=0"`
	Guests                 int     `json:"guests" validate:"gte=0"`
	PricePerNightPerPerson float64 `json:"pricePerNightPerPerson" validate:"gte=0"`
}

type AmenityInput struct {
	AmenityID    string  `json:"amenityId" validate:"required"`
	AmenityName  string  `json:"amenityName"`
	Quantity     float64 `json:"quantity" validate:"gte=0"`
	PricePerUnit float64 `json:"pricePerUnit" validate:"gte=0"`
}

type CreateBookingRequest struct {
	BookingType string `json:"bookingType" validate:"required,oneof=property package"`
	PropertyID  string `json:"propertyId"`
	PackageID   string `json:"packageId"`

	CustomerName        string `json:"customerName" validate:"required,notblank"`
	CustomerEmail       string `json:"customerEmail" validate:"required,email"`
	CustomerPhone       string `json:"customerPhone" validate:"required,notblank"`
	CustomerCountryCode string `json:"customerCountryCode"`

	CheckInDate     string `json:"checkInDate" validate:"required"`
	CheckOutDate    string `json:"checkOutDate" validate:"required"`
	Nights          int    `json:"nights" validate:"gte=0"`
	TotalGuests     int    `json:"totalGuests" validate:"required,gte=1"`
	Adults          int    `json:"adults" validate:"gte=0"`
	Children        int    `json:"children" validate:"gte=0"`
	SpecialRequests string `json:"specialRequests"`

	Rooms           []RoomInput            `json:"rooms" validate:"dive"`
	Amenities       []AmenityInput         `json:"amenities" validate:"dive"`
	AirportTransfer domain.AirportTransfer `json:"airportTransfer"`

	// BasePrice is only used when the catalog cannot price the booking.
	BasePrice   *float64 `json:"basePrice" validate:"omitempty,gte=0"`
	PaymentTerm string   `json:"paymentTerm" validate:"omitempty,oneof=deposit full"`
	Notes       string   `json:"notes"`
}

type TransitionRequest struct {
	Amount *float64 `json:"amount" validate:"omitempty,gte=0"`
	Reason string   `json:"reason"`
}

type NotifyRequest struct {
	Type string `json:"type"`
}

type EmailReceiptRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type ListRequest struct {
	Page   int    `form:"page"`
	Limit  int    `form:"limit"`
	Status string `form:"status"`
	Search string `form:"search"`
}

// Receipt is the flattened, printable view of a booking.
type Receipt struct {
	BookingID          string                 `json:"bookingId"`
	ConfirmationNumber string                 `json:"confirmationNumber"`
	CustomerName       string                 `json:"customerName"`
	CustomerEmail      string                 `json:"customerEmail"`
	CustomerPhone      string                 `json:"customerPhone"`
	BookingType        domain.BookingType     `json:"bookingType"`
	PropertyName       string                 `json:"propertyName"`
	PackageName        string                 `json:"packageName"`
	CheckInDate        time.Time              `json:"checkInDate"`
	CheckOutDate       time.Time              `json:"checkOutDate"`
	Nights             int                    `json:"nights"`
	TotalGuests        int                    `json:"totalGuests"`
	Adults             int                    `json:"adults"`
	Children           int                    `json:"children"`
	SpecialRequests    string                 `json:"specialRequests"`
	AirportTransfer    string                 `json:"airportTransfer"`
	Amenities          []domain.AmenityLine   `json:"amenities"`
	Costs              domain.Costs           `json:"costs"`
	PaymentTerm        domain.PaymentTerm     `json:"paymentTerm"`
	PaymentSchedule    domain.PaymentSchedule `json:"paymentSchedule"`
	AmountPaid         float64                `json:"amountPaid"`
	Status             domain.BookingStatus   `json:"status"`
	CreatedAt          time.Time              `json:"createdAt"`
	GeneratedAt        time.Time              `json:"generatedAt"`
}

// CancelResult carries the status the booking had before it was cancelled.
type CancelResult struct {
	PreviousStatus domain.BookingStatus `json:"previousStatus"`
	Booking        *domain.Booking      `json:"booking"`
}
