package payment

import (
	"encoding/json"

	"safaristay/internal/domain"
)

type InitiateRequest struct {
	Amount           *float64 `json:"amount" validate:"omitempty,gt=0"`
	Currency         string   `json:"currency" validate:"omitempty,len=3"`
	Description      string   `json:"description"`
	Email            string   `json:"email" validate:"omitempty,email"`
	FirstName        string   `json:"firstName"`
	LastName         string   `json:"lastName"`
	Phone            string   `json:"phone"`
	BookingReference string   `json:"bookingReference"`
}

type InitiateResponse struct {
	RedirectURL      string          `json:"redirectUrl,omitempty"`
	EmbedURL         string          `json:"embedIframeSrc,omitempty"`
	OrderTrackingID  string          `json:"orderTrackingId,omitempty"`
	OrderID          string          `json:"orderId"`
	BookingReference string          `json:"bookingReference,omitempty"`
	Amount           float64         `json:"amount"`
	Currency         string          `json:"currency"`
	Raw              json.RawMessage `json:"raw,omitempty"`
}

// Notification is one IPN delivery as received on the callback.
type Notification struct {
	TrackingID        string
	MerchantReference string
	Type              string
	Payload           json.RawMessage
}

type StatusResponse struct {
	OrderTrackingID string               `json:"orderTrackingId"`
	Status          string               `json:"status"`
	Description     string               `json:"description,omitempty"`
	Amount          *float64             `json:"amount,omitempty"`
	BookingID       string               `json:"bookingId,omitempty"`
	BookingStatus   domain.BookingStatus `json:"bookingStatus,omitempty"`
	Raw             json.RawMessage      `json:"raw,omitempty"`
}

type RegisterIPNRequest struct {
	URL    string `json:"url" validate:"required,url"`
	Method string `json:"method" validate:"omitempty,oneof=GET POST"`
}
