package pesapal

import (
	"encoding/json"
	"time"
)

// OrderSpec is what the caller knows about the payment being started.
type OrderSpec struct {
	Amount      float64
	Currency    string
	Description string
	Reference   string
	Email       string
	FirstName   string
	LastName    string
	Phone       string
}

// OrderResult is the normalised SubmitOrder response. Raw is always set when
// the gateway answered with 2xx, including the ErrNoRedirectTarget case.
type OrderResult struct {
	OrderID         string          `json:"orderId"`
	OrderTrackingID string          `json:"orderTrackingId,omitempty"`
	RedirectURL     string          `json:"redirectUrl,omitempty"`
	EmbedURL        string          `json:"embedIframeSrc,omitempty"`
	Amount          string          `json:"amount"`
	Currency        string          `json:"currency"`
	Raw             json.RawMessage `json:"raw,omitempty"`
}

// Normalised payment statuses.
const (
	StatusCompleted = "COMPLETED"
	StatusFailed    = "FAILED"
	StatusPending   = "PENDING"
)

type TransactionStatus struct {
	Status      string          `json:"status"`
	Description string          `json:"description,omitempty"`
	Amount      *float64        `json:"amount,omitempty"`
	Raw         json.RawMessage `json:"raw,omitempty"`
}

// AuthAttempt is one token request as seen by DebugAuth. It never carries the
// token itself.
type AuthAttempt struct {
	URL    string `json:"url"`
	Shape  string `json:"shape"`
	Status int    `json:"status"`
	Found  bool   `json:"tokenFound"`
	Error  string `json:"error,omitempty"`
}

type AuthReport struct {
	Environment string        `json:"environment"`
	Succeeded   bool          `json:"succeeded"`
	Winner      *AuthAttempt  `json:"winner,omitempty"`
	Attempts    []AuthAttempt `json:"attempts"`
	ExpiresAt   *time.Time    `json:"expiresAt,omitempty"`
}
