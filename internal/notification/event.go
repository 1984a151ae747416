package notification

import (
	"time"

	"safaristay/internal/domain"

	"github.com/google/uuid"
)

// Notification types beyond the transition names.
const (
	TypeCreated = "created"
	TypeReceipt = "receipt"
)

// Event is one customer-facing notification. It is self-contained so a
// worker in another process can deliver it without reading the database.
type Event struct {
	ID            string    `json:"id"`
	Type          string    `json:"type"`
	BookingID     int64     `json:"bookingDbId"`
	BookingRef    string    `json:"bookingId"`
	Confirmation  string    `json:"confirmationNumber,omitempty"`
	CustomerName  string    `json:"customerName"`
	CustomerEmail string    `json:"customerEmail"`
	Status        string    `json:"status"`
	Total         float64   `json:"total"`
	AmountPaid    float64   `json:"amountPaid"`
	Currency      string    `json:"currency,omitempty"`
	CheckInDate   time.Time `json:"checkInDate"`
	CheckOutDate  time.Time `json:"checkOutDate"`
	Reason        string    `json:"reason,omitempty"`
	OccurredAt    time.Time `json:"occurredAt"`
}

// NewEvent snapshots b for a notification of the given type.
func NewEvent(kind string, b *domain.Booking) Event {
	return Event{
		ID:            uuid.NewString(),
		Type:          kind,
		BookingID:     b.ID,
		BookingRef:    b.BookingRef,
		Confirmation:  b.ConfirmationNumber,
		CustomerName:  b.CustomerName,
		CustomerEmail: b.CustomerEmail,
		Status:        string(b.Status),
		Total:         b.Costs.Total,
		AmountPaid:    b.AmountPaid,
		Currency:      b.PaymentDetails.Currency,
		CheckInDate:   b.CheckInDate,
		CheckOutDate:  b.CheckOutDate,
		Reason:        b.CancellationReason,
		OccurredAt:    time.Now().UTC(),
	}
}

// ValidType reports whether kind can be sent on request.
func ValidType(kind string) bool {
	if kind == TypeReceipt || kind == TypeCreated {
		return true
	}
	return domain.Transition(kind).Valid()
}
