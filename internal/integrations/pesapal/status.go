package pesapal

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	json "github.com/goccy/go-json"
)

var (
	statusKeys = []string{"payment_status_description", "payment_status", "status"}
	amountKeys = []string{"amount", "payment_amount", "paid_amount", "transaction_amount"}
)

// GetTransactionStatus asks the gateway for the authoritative state of a
// payment and normalises it to COMPLETED, FAILED or PENDING.
func (c *Client) GetTransactionStatus(ctx context.Context, trackingID string) (*TransactionStatus, error) {
	token, err := c.GetAuthToken(ctx)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	st, err := c.transactionStatus(ctx, token, trackingID)
	c.observe("transaction_status", start, err)
	return st, err
}

func (c *Client) transactionStatus(ctx context.Context, token, trackingID string) (*TransactionStatus, error) {
	endpoint := c.txBase + "/api/Transactions/GetTransactionStatus?orderTrackingId=" + url.QueryEscape(trackingID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, &GatewayError{Op: "transaction_status", Err: err}
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &GatewayError{Op: "transaction_status", Err: err}
	}
	defer resp.Body.Close()
	raw := readBody(resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &GatewayError{Op: "transaction_status", Status: resp.StatusCode, Body: preview(raw)}
	}

	var doc map[string]any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, &GatewayError{Op: "transaction_status", Status: resp.StatusCode, Body: preview(raw), Err: err}
	}

	description := firstString(doc, statusKeys)
	return &TransactionStatus{
		Status:      MapStatus(description),
		Description: description,
		Amount:      firstNumber(doc, amountKeys),
		Raw:         json.RawMessage(raw),
	}, nil
}

// MapStatus normalises a provider status description.
func MapStatus(description string) string {
	switch strings.ToLower(strings.TrimSpace(description)) {
	case "completed", "success", "paid":
		return StatusCompleted
	case "failed", "invalid", "reversed", "cancelled":
		return StatusFailed
	default:
		return StatusPending
	}
}

func firstString(doc map[string]any, keys []string) string {
	for _, k := range keys {
		if s, ok := doc[k].(string); ok && strings.TrimSpace(s) != "" {
			return s
		}
	}
	return ""
}

// firstNumber accepts JSON numbers and numeric strings.
func firstNumber(doc map[string]any, keys []string) *float64 {
	for _, k := range keys {
		switch v := doc[k].(type) {
		case float64:
			return &v
		case string:
			if f, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err == nil {
				return &f
			}
		}
	}
	return nil
}
