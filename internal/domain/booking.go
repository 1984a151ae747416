package domain

import (
	"encoding/json"
	"strings"
	"time"
)

type BookingType string

const (
	BookingTypeProperty BookingType = "property"
	BookingTypePackage  BookingType = "package"
)

func (t BookingType) Valid() bool {
	return t == BookingTypeProperty || t == BookingTypePackage
}

type BookingStatus string

const (
	BookingPending     BookingStatus = "pending"
	BookingDepositPaid BookingStatus = "deposit_paid"
	BookingConfirmed   BookingStatus = "confirmed"
	BookingFullyPaid   BookingStatus = "fully_paid"
	BookingCompleted   BookingStatus = "completed"
	BookingCancelled   BookingStatus = "cancelled"
)

func (s BookingStatus) Valid() bool {
	switch s {
	case BookingPending, BookingDepositPaid, BookingConfirmed, BookingFullyPaid, BookingCompleted, BookingCancelled:
		return true
	}
	return false
}

func (s BookingStatus) IsCancelled() bool { return s == BookingCancelled }

type PaymentTerm string

const (
	PaymentTermDeposit PaymentTerm = "deposit"
	PaymentTermFull    PaymentTerm = "full"
)

// Payment statuses stored in PaymentDetails.Status.
const (
	PaymentInitiated = "initiated"
	PaymentPending   = "PENDING"
	PaymentCompleted = "COMPLETED"
	PaymentFailed    = "FAILED"
)

type RoomLine struct {
	RoomID                 string  `json:"roomId"`
	RoomName               string  `json:"roomName,omitempty"`
	Quantity               int     `json:"quantity"`
	Guests                 int     `json:"guests"`
	PricePerNightPerPerson float64 `json:"pricePerNightPerPerson"`
	Subtotal               float64 `json:"subtotal"`
}

// AmenityLine references an amenity by an opaque id. The id may come from the
// catalog or from client-side data that never existed server side.
type AmenityLine struct {
	AmenityID    string  `json:"amenityId"`
	AmenityName  string  `json:"amenityName,omitempty"`
	Quantity     float64 `json:"quantity"`
	PricePerUnit float64 `json:"pricePerUnit"`
	TotalPrice   float64 `json:"totalPrice"`
}

type AirportTransfer struct {
	Needed                bool       `json:"needed"`
	ArrivalDate           *time.Time `json:"arrivalDate,omitempty"`
	ArrivalTime           string     `json:"arrivalTime,omitempty"`
	ArrivalFlightNumber   string     `json:"arrivalFlightNumber,omitempty"`
	DepartureDate         *time.Time `json:"departureDate,omitempty"`
	DepartureTime         string     `json:"departureTime,omitempty"`
	DepartureFlightNumber string     `json:"departureFlightNumber,omitempty"`
}

type Costs struct {
	BasePrice      float64 `json:"basePrice"`
	AmenitiesTotal float64 `json:"amenitiesTotal"`
	Subtotal       float64 `json:"subtotal"`
	ServiceFee     float64 `json:"serviceFee"`
	Taxes          float64 `json:"taxes"`
	Total          float64 `json:"total"`
}

type PaymentSchedule struct {
	DepositAmount  float64    `json:"depositAmount"`
	BalanceAmount  float64    `json:"balanceAmount"`
	DepositDueDate *time.Time `json:"depositDueDate,omitempty"`
	BalanceDueDate *time.Time `json:"balanceDueDate,omitempty"`
}

// IPNEntry is one raw gateway notification as received.
type IPNEntry struct {
	ReceivedAt time.Time       `json:"receivedAt"`
	Payload    json.RawMessage `json:"payload"`
}

// PaymentDetails holds gateway correlation data. IPN is append-only.
type PaymentDetails struct {
	Provider          string          `json:"provider,omitempty"`
	OrderID           string          `json:"orderId,omitempty"`
	OrderTrackingID   string          `json:"orderTrackingId,omitempty"`
	MerchantReference string          `json:"merchantReference,omitempty"`
	Status            string          `json:"status,omitempty"`
	RedirectURL       string          `json:"redirectUrl,omitempty"`
	Amount            float64         `json:"amount,omitempty"`
	Currency          string          `json:"currency,omitempty"`
	InitiatedAt       *time.Time      `json:"initiatedAt,omitempty"`
	CompletedAt       *time.Time      `json:"completedAt,omitempty"`
	Raw               json.RawMessage `json:"raw,omitempty"`
	PesapalResponse   json.RawMessage `json:"pesapalResponse,omitempty"`
	IPN               []IPNEntry      `json:"ipn,omitempty"`
}

type Booking struct {
	ID                 int64       `json:"id"`
	BookingRef         string      `json:"bookingId"`
	ConfirmationNumber string      `json:"confirmationNumber"`
	BookingType        BookingType `json:"bookingType"`
	PropertyRef        string      `json:"propertyId,omitempty"`
	PackageRef         string      `json:"packageId,omitempty"`
	CustomerID         *int64      `json:"customerId,omitempty"`

	CustomerName        string `json:"customerName"`
	CustomerEmail       string `json:"customerEmail"`
	CustomerPhone       string `json:"customerPhone,omitempty"`
	CustomerCountryCode string `json:"customerCountryCode,omitempty"`

	CheckInDate     time.Time `json:"checkInDate"`
	CheckOutDate    time.Time `json:"checkOutDate"`
	Nights          int       `json:"nights"`
	TotalGuests     int       `json:"totalGuests"`
	Adults          int       `json:"adults"`
	Children        int       `json:"children"`
	SpecialRequests string    `json:"specialRequests,omitempty"`

	Rooms           []RoomLine      `json:"rooms"`
	Amenities       []AmenityLine   `json:"amenities"`
	AirportTransfer AirportTransfer `json:"airportTransfer"`

	Costs           Costs           `json:"costs"`
	PaymentTerm     PaymentTerm     `json:"paymentTerm"`
	PaymentSchedule PaymentSchedule `json:"paymentSchedule"`
	AmountPaid      float64         `json:"amountPaid"`
	Status          BookingStatus   `json:"status"`
	PaymentDetails  PaymentDetails  `json:"paymentDetails"`

	CancelledAt        *time.Time `json:"cancelledAt,omitempty"`
	CancelledBy        string     `json:"cancelledBy,omitempty"`
	CancellationReason string     `json:"cancellationReason,omitempty"`
	CheckedInAt        *time.Time `json:"checkedInAt,omitempty"`

	Notes         string `json:"notes,omitempty"`
	InternalNotes string `json:"-"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// OwnedBy reports whether email belongs to the booking's customer.
func (b *Booking) OwnedBy(email string) bool {
	email = NormalizeEmail(email)
	return email != "" && email == NormalizeEmail(b.CustomerEmail)
}

// AmountDue is what the next payment should cover: the deposit while nothing has
// been paid on a deposit term, otherwise the outstanding balance.
func (b *Booking) AmountDue() float64 {
	if b.PaymentTerm != PaymentTermFull && b.AmountPaid <= 0 && b.PaymentSchedule.DepositAmount > 0 {
		return b.PaymentSchedule.DepositAmount
	}
	due := Round2(b.Costs.Total - b.AmountPaid)
	if due < 0 {
		return 0
	}
	return due
}

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
