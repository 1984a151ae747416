package pesapal

import (
	"bytes"
	"context"
	"net/http"
	"strings"
	"time"

	json "github.com/goccy/go-json"
)

// RegisterIPN registers url as a notification endpoint and returns the
// ipn_id to configure as PESAPAL_IPN_ID.
func (c *Client) RegisterIPN(ctx context.Context, ipnURL, method string) (string, error) {
	token, err := c.GetAuthToken(ctx)
	if err != nil {
		return "", err
	}

	method = strings.ToUpper(strings.TrimSpace(method))
	if method != http.MethodPost {
		method = http.MethodGet
	}

	start := time.Now()
	id, err := c.registerIPN(ctx, token, ipnURL, method)
	c.observe("register_ipn", start, err)
	return id, err
}

func (c *Client) registerIPN(ctx context.Context, token, ipnURL, method string) (string, error) {
	body, err := json.Marshal(map[string]string{
		"url":                   ipnURL,
		"ipn_notification_type": method,
	})
	if err != nil {
		return "", &GatewayError{Op: "register_ipn", Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.txBase+"/api/URLSetup/RegisterIPN", bytes.NewReader(body))
	if err != nil {
		return "", &GatewayError{Op: "register_ipn", Err: err}
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", &GatewayError{Op: "register_ipn", Err: err}
	}
	defer resp.Body.Close()
	raw := readBody(resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", &GatewayError{Op: "register_ipn", Status: resp.StatusCode, Body: preview(raw)}
	}

	var doc map[string]any
	_ = json.Unmarshal(raw, &doc)
	id := lookupAlias(doc, []string{"ipn_id", "ipnId", "id"})
	if id == "" {
		return "", &GatewayError{Op: "register_ipn", Status: resp.StatusCode, Body: preview(raw)}
	}
	return id, nil
}
