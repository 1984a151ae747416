package notification

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	json "github.com/goccy/go-json"
	"github.com/sirupsen/logrus"
)

// Sender delivers a rendered notification to the customer.
type Sender interface {
	Send(ctx context.Context, ev Event) error
}

// LogSender only logs; used when no mail provider is configured.
type LogSender struct {
	log logrus.FieldLogger
}

func NewLogSender(log logrus.FieldLogger) *LogSender {
	return &LogSender{log: log}
}

func (s *LogSender) Send(_ context.Context, ev Event) error {
	msg := Render(ev)
	s.log.WithFields(logrus.Fields{
		"to":         msg.To,
		"subject":    msg.Subject,
		"type":       ev.Type,
		"booking_id": ev.BookingRef,
	}).Info("notification_logged")
	return nil
}

const mandrillEndpoint = "https://mandrillapp.com/api/1.0/messages/send.json"

var ErrDeliveryRejected = errors.New("notification rejected by mail provider")

// MandrillSender sends transactional email through the Mandrill HTTP API.
type MandrillSender struct {
	apiKey     string
	from       string
	endpoint   string
	httpClient *http.Client
}

func NewMandrillSender(apiKey, from string) *MandrillSender {
	return &MandrillSender{
		apiKey:     apiKey,
		from:       from,
		endpoint:   mandrillEndpoint,
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
}

type mandrillRecipient struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
	Type  string `json:"type"`
}

type mandrillMessage struct {
	FromEmail string              `json:"from_email"`
	Subject   string              `json:"subject"`
	Text      string              `json:"text"`
	To        []mandrillRecipient `json:"to"`
	Tags      []string            `json:"tags,omitempty"`
}

type mandrillRequest struct {
	Key     string          `json:"key"`
	Message mandrillMessage `json:"message"`
}

type mandrillResult struct {
	Email        string `json:"email"`
	Status       string `json:"status"`
	RejectReason string `json:"reject_reason"`
}

func (s *MandrillSender) Send(ctx context.Context, ev Event) error {
	msg := Render(ev)
	body, err := json.Marshal(mandrillRequest{
		Key: s.apiKey,
		Message: mandrillMessage{
			FromEmail: s.from,
			Subject:   msg.Subject,
			Text:      msg.Text,
			To:        []mandrillRecipient{{Email: msg.To, Name: msg.ToName, Type: "to"}},
			Tags:      []string{"booking-" + ev.Type},
		},
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("mandrill request: %w", err)
	}
	defer resp.Body.Close()
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("mandrill status %d: %s", resp.StatusCode, string(raw))
	}

	var results []mandrillResult
	if err := json.Unmarshal(raw, &results); err != nil {
		return fmt.Errorf("mandrill response: %w", err)
	}
	for _, r := range results {
		if r.Status == "rejected" || r.Status == "invalid" {
			return fmt.Errorf("%w: %s %s", ErrDeliveryRejected, r.Status, r.RejectReason)
		}
	}
	return nil
}
