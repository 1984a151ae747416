package pesapal

import (
	"bytes"
	"context"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	json "github.com/goccy/go-json"
	"github.com/sirupsen/logrus"
)

const (
	shapeJSON = "json"
	shapeForm = "form"

	tokenCacheSkew   = 30 * time.Second
	defaultTokenTTL  = 4 * time.Minute
	minTokenLength   = 11
	authCandidateOp  = "auth"
	tokenKeyPrimary  = "token"
	tokenKeyFallback = "access_token"
)

var (
	authPaths = []string{
		"/api/Auth/RequestToken",
		"/pesapalv3/api/Auth/RequestToken",
		"/v3/api/Auth/RequestToken",
		"/api/v3/Auth/RequestToken",
	}

	tokenFieldPattern = regexp.MustCompile(`"(?:token|access_token)"\s*:\s*"([^"]{11,})"`)
	bareJWTPattern    = regexp.MustCompile(`eyJ[A-Za-z0-9_\-]+\.[A-Za-z0-9_\-]+\.[A-Za-z0-9_\-]+`)
)

type candidate struct {
	url   string
	shape string
}

// authCandidates lists every URL with a JSON body, then every URL again with
// a form body.
func (c *Client) authCandidates() []candidate {
	out := make([]candidate, 0, 2*len(authPaths))
	for _, shape := range []string{shapeJSON, shapeForm} {
		for _, p := range authPaths {
			out = append(out, candidate{url: c.authBase + p, shape: shape})
		}
	}
	return out
}

type tokenResult struct {
	token   string
	expires *time.Time
}

// GetAuthToken returns a bearer token, from cache when possible. It never
// returns a placeholder: failure is an *AuthError.
func (c *Client) GetAuthToken(ctx context.Context) (string, error) {
	if c.cache != nil {
		token, err := c.cache.GetToken(ctx)
		if err != nil {
			c.log.WithError(err).Warn("token_cache_read_failed")
		} else if token != "" {
			return token, nil
		}
	}

	start := time.Now()
	res, _, err := c.requestToken(ctx, nil)
	c.observe(authCandidateOp, start, err)
	if err != nil {
		return "", err
	}

	if c.cache != nil {
		ttl := defaultTokenTTL
		if res.expires != nil {
			ttl = res.expires.Sub(c.now()) - tokenCacheSkew
		}
		if ttl > 0 {
			if err := c.cache.SetToken(ctx, res.token, ttl); err != nil {
				c.log.WithError(err).Warn("token_cache_write_failed")
			}
		}
	}
	return res.token, nil
}

// DebugAuth walks the candidates like GetAuthToken, bypassing the cache, and
// reports what each attempt saw.
func (c *Client) DebugAuth(ctx context.Context) AuthReport {
	var attempts []AuthAttempt
	res, winner, err := c.requestToken(ctx, &attempts)

	report := AuthReport{
		Environment: c.Environment(),
		Succeeded:   err == nil,
		Attempts:    attempts,
	}
	if err == nil {
		report.Winner = winner
		report.ExpiresAt = res.expires
	}
	return report
}

func (c *Client) requestToken(ctx context.Context, trace *[]AuthAttempt) (tokenResult, *AuthAttempt, error) {
	if c.cfg.ConsumerKey == "" || c.cfg.ConsumerSecret == "" {
		return tokenResult{}, nil, &AuthError{Body: "consumer credentials are not configured"}
	}

	last := &AuthError{}
	for _, cand := range c.authCandidates() {
		if err := ctx.Err(); err != nil {
			last.Body = err.Error()
			return tokenResult{}, nil, last
		}
		last.Attempts++

		attempt := AuthAttempt{URL: cand.url, Shape: cand.shape}
		status, body, err := c.postCredentials(ctx, cand)
		attempt.Status = status

		var res tokenResult
		switch {
		case err != nil:
			attempt.Error = err.Error()
			last.Status, last.Body = 0, err.Error()
		case status < 200 || status > 299:
			attempt.Error = http.StatusText(status)
			last.Status, last.Body = status, preview(body)
		default:
			res = extractToken(body)
			attempt.Found = res.token != ""
			if !attempt.Found {
				last.Status, last.Body = status, preview(body)
			}
		}

		if trace != nil {
			*trace = append(*trace, attempt)
		}
		if attempt.Found {
			c.log.WithFields(logrus.Fields{"url": cand.url, "shape": cand.shape}).Debug("auth_token_obtained")
			return res, &attempt, nil
		}
		c.log.WithFields(logrus.Fields{"url": cand.url, "shape": cand.shape, "status": status}).Debug("auth_candidate_failed")
	}

	c.log.WithFields(logrus.Fields{"status": last.Status, "attempts": last.Attempts}).Warn("auth_failed")
	return tokenResult{}, nil, last
}

func (c *Client) postCredentials(ctx context.Context, cand candidate) (int, []byte, error) {
	var (
		body        []byte
		contentType string
	)
	if cand.shape == shapeForm {
		form := url.Values{}
		form.Set("consumer_key", c.cfg.ConsumerKey)
		form.Set("consumer_secret", c.cfg.ConsumerSecret)
		body = []byte(form.Encode())
		contentType = "application/x-www-form-urlencoded"
	} else {
		var err error
		body, err = json.Marshal(map[string]string{
			"consumer_key":    c.cfg.ConsumerKey,
			"consumer_secret": c.cfg.ConsumerSecret,
		})
		if err != nil {
			return 0, nil, err
		}
		contentType = "application/json"
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, cand.url, bytes.NewReader(body))
	if err != nil {
		return 0, nil, err
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()
	return resp.StatusCode, readBody(resp.Body), nil
}

// extractToken looks for a token at the top level, inside a "data" envelope or
// in the first array element, then falls back to pattern matching the raw text.
func extractToken(body []byte) tokenResult {
	var doc any
	if err := json.Unmarshal(body, &doc); err == nil {
		for _, obj := range tokenContainers(doc) {
			for _, key := range []string{tokenKeyPrimary, tokenKeyFallback} {
				if s, ok := obj[key].(string); ok && len(s) >= minTokenLength {
					return tokenResult{token: s, expires: parseExpiry(obj["expiryDate"])}
				}
			}
		}
	}

	if m := tokenFieldPattern.FindSubmatch(body); m != nil {
		return tokenResult{token: string(m[1])}
	}
	if m := bareJWTPattern.Find(body); m != nil {
		return tokenResult{token: string(m)}
	}
	return tokenResult{}
}

func tokenContainers(doc any) []map[string]any {
	var out []map[string]any
	switch v := doc.(type) {
	case map[string]any:
		out = append(out, v)
		if inner, ok := v["data"].(map[string]any); ok {
			out = append(out, inner)
		}
	case []any:
		if len(v) > 0 {
			if first, ok := v[0].(map[string]any); ok {
				out = append(out, first)
			}
		}
	}
	return out
}

func parseExpiry(v any) *time.Time {
	s, ok := v.(string)
	if !ok || strings.TrimSpace(s) == "" {
		return nil
	}
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05.9999999", "2006-01-02T15:04:05"} {
		if t, err := time.Parse(layout, s); err == nil {
			return &t
		}
	}
	return nil
}
