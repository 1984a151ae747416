package notification

import (
	"fmt"
	"strings"
)

// Message is a rendered email.
type Message struct {
	To      string
	ToName  string
	Subject string
	Text    string
}

var subjects = map[string]string{
	TypeCreated:    "We received your booking %s",
	TypeReceipt:    "Your receipt for booking %s",
	"deposit_paid": "Deposit received for booking %s",
	"confirmed":    "Booking %s is confirmed",
	"fully_paid":   "Booking %s is fully paid",
	"completed":    "Thank you for staying with us (%s)",
	"reopened":     "Booking %s has been reopened",
	"cancelled":    "Booking %s has been cancelled",
}

func Render(ev Event) Message {
	subject, ok := subjects[ev.Type]
	if !ok {
		subject = "Update on booking %s"
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Hello %s,\n\n", firstNonEmpty(ev.CustomerName, "guest"))
	fmt.Fprintf(&sb, "Booking reference: %s\n", ev.BookingRef)
	if ev.Confirmation != "" {
		fmt.Fprintf(&sb, "Confirmation number: %s\n", ev.Confirmation)
	}
	fmt.Fprintf(&sb, "Status: %s\n", ev.Status)
	if !ev.CheckInDate.IsZero() {
		fmt.Fprintf(&sb, "Stay: %s to %s\n", ev.CheckInDate.Format("2 Jan 2006"), ev.CheckOutDate.Format("2 Jan 2006"))
	}
	fmt.Fprintf(&sb, "Total: %.2f\nPaid: %.2f\n", ev.Total, ev.AmountPaid)
	if ev.Reason != "" && ev.Type == "cancelled" {
		fmt.Fprintf(&sb, "Reason: %s\n", ev.Reason)
	}
	sb.WriteString("\nSafari Stay")

	return Message{
		To:      ev.CustomerEmail,
		ToName:  ev.CustomerName,
		Subject: fmt.Sprintf(subject, ev.BookingRef),
		Text:    sb.String(),
	}
}

func firstNonEmpty(v, def string) string {
	if strings.TrimSpace(v) == "" {
		return def
	}
	return v
}
