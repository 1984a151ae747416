package pesapal

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	json "github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const storeEmbedURL = "https://store.pesapal.com/embed-code?pageUrl="

var (
	submitOrderPaths = []string{
		"/api/Transactions/SubmitOrder",
		"/v3/api/Transactions/SubmitOrder",
		"/pesapalv3/api/Transactions/SubmitOrder",
		"/Api/Transactions/SubmitOrder",
		"/transactions/SubmitOrder",
	}

	redirectAliases = []string{"redirect_url", "redirectUrl", "checkout_url", "checkoutUrl", "redirect", "url", "payment_url", "paymentUrl"}
	trackingAliases = []string{"order_tracking_id", "orderTrackingId", "order_tracking", "tracking_id", "orderId", "transaction_id"}
	embedAliases    = []string{"embedIframeSrc", "embed_iframe", "iframe_url", "iframeUrl"}
)

type billingAddress struct {
	EmailAddress string `json:"email_address"`
	PhoneNumber  string `json:"phone_number"`
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name"`
	CountryCode  string `json:"country_code"`
}

type submitOrderRequest struct {
	ID             string         `json:"id"`
	Currency       string         `json:"currency"`
	Amount         string         `json:"amount"`
	Description    string         `json:"description"`
	CallbackURL    string         `json:"callback_url"`
	RedirectURL    string         `json:"redirect_url,omitempty"`
	NotificationID string         `json:"notification_id,omitempty"`
	BillingAddress billingAddress `json:"billing_address"`
}

// SubmitOrder registers a payment with the gateway. Candidates are tried in
// order on non-2xx answers only: a transport failure may mean the order was
// accepted, so it ends the attempt instead of moving on.
func (c *Client) SubmitOrder(ctx context.Context, spec OrderSpec) (*OrderResult, error) {
	token, err := c.GetAuthToken(ctx)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	res, err := c.submitOrder(ctx, token, spec)
	c.observe("submit_order", start, err)
	return res, err
}

func (c *Client) submitOrder(ctx context.Context, token string, spec OrderSpec) (*OrderResult, error) {
	payload := c.buildOrder(spec)
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, &GatewayError{Op: "submit_order", Err: err}
	}

	log := c.log.WithFields(logrus.Fields{"order_id": payload.ID, "reference": spec.Reference})

	var last *GatewayError
	for _, p := range submitOrderPaths {
		endpoint := c.txBase + p

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
		if err != nil {
			return nil, &GatewayError{Op: "submit_order", Err: err}
		}
		req.Header.Set("Authorization", "Bearer "+token)
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Accept", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			log.WithError(err).WithField("url", endpoint).Warn("submit_order_transport_failed")
			return nil, &GatewayError{Op: "submit_order", Err: err}
		}
		raw := readBody(resp.Body)
		resp.Body.Close()

		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			log.WithFields(logrus.Fields{"url": endpoint, "status": resp.StatusCode}).Debug("submit_order_candidate_failed")
			last = &GatewayError{Op: "submit_order", Status: resp.StatusCode, Body: preview(raw)}
			continue
		}

		result := c.normalizeOrder(payload, raw)
		if result.RedirectURL == "" && result.EmbedURL == "" {
			log.WithField("body", preview(raw)).Warn("submit_order_no_redirect")
			return result, ErrNoRedirectTarget
		}
		log.WithField("tracking_id", result.OrderTrackingID).Info("order_submitted")
		return result, nil
	}

	log.WithField("status", last.Status).Warn("submit_order_failed")
	return nil, last
}

func (c *Client) buildOrder(spec OrderSpec) submitOrderRequest {
	currency := strings.ToUpper(strings.TrimSpace(spec.Currency))
	if currency == "" {
		currency = "KES"
	}
	description := strings.TrimSpace(spec.Description)
	if description == "" {
		description = "Booking " + spec.Reference
	}

	req := submitOrderRequest{
		ID:             uuid.NewString(),
		Currency:       currency,
		Amount:         fmt.Sprintf("%.2f", spec.Amount),
		Description:    description,
		CallbackURL:    c.cfg.CallbackURL,
		NotificationID: strings.TrimSpace(c.cfg.IPNID),
		BillingAddress: billingAddress{
			EmailAddress: strings.TrimSpace(spec.Email),
			PhoneNumber:  SanitizePhone(spec.Phone),
			FirstName:    orDefault(spec.FirstName, "Guest"),
			LastName:     orDefault(spec.LastName, "Booking"),
			CountryCode:  "KE",
		},
	}
	if base := strings.TrimRight(strings.TrimSpace(c.cfg.FrontendURL), "/"); base != "" {
		req.RedirectURL = base + "/booking/confirmation"
	}
	return req
}

func (c *Client) normalizeOrder(payload submitOrderRequest, raw []byte) *OrderResult {
	result := &OrderResult{
		OrderID:  payload.ID,
		Amount:   payload.Amount,
		Currency: payload.Currency,
		Raw:      json.RawMessage(raw),
	}
	if !json.Valid(raw) {
		quoted, _ := json.Marshal(string(raw))
		result.Raw = quoted
	}

	var doc map[string]any
	_ = json.Unmarshal(raw, &doc)

	result.RedirectURL = lookupAlias(doc, redirectAliases)
	result.OrderTrackingID = lookupAlias(doc, trackingAliases)

	if page := c.embedPage(); page != "" {
		result.EmbedURL = storeEmbedURL + url.QueryEscape(page)
	} else {
		result.EmbedURL = lookupAlias(doc, embedAliases)
	}
	return result
}

func (c *Client) embedPage() string {
	if s := strings.TrimSpace(c.cfg.StorePageURL); s != "" {
		return s
	}
	return strings.TrimSpace(c.cfg.EmbedPageURL)
}

// lookupAlias returns the first non-empty string among keys, checking the top
// level before a "data" envelope.
func lookupAlias(doc map[string]any, keys []string) string {
	if doc == nil {
		return ""
	}
	levels := []map[string]any{doc}
	if inner, ok := doc["data"].(map[string]any); ok {
		levels = append(levels, inner)
	}
	for _, level := range levels {
		for _, k := range keys {
			if s, ok := level[k].(string); ok && strings.TrimSpace(s) != "" {
				return strings.TrimSpace(s)
			}
		}
	}
	return ""
}

// SanitizePhone keeps digits and a single leading plus sign.
func SanitizePhone(phone string) string {
	phone = strings.TrimSpace(phone)
	var sb strings.Builder
	for i, r := range phone {
		switch {
		case r >= '0' && r <= '9':
			sb.WriteRune(r)
		case r == '+' && i == 0:
			sb.WriteRune(r)
		}
	}
	return sb.String()
}

func orDefault(v, def string) string {
	if s := strings.TrimSpace(v); s != "" {
		return s
	}
	return def
}
