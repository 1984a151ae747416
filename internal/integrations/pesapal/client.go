package pesapal

import (
	"context"
	"io"
	"net/http"
	"strings"
	"time"

	"safaristay/internal/metrics"
	"safaristay/internal/pkg/logger"

	"github.com/sirupsen/logrus"
)

const (
	liveAuthBase    = "https://pay.pesapal.com"
	sandboxAuthBase = "https://cybqa.pesapal.com/pesapalv3"
	liveTxBase      = "https://pay.pesapal.com/v3"
	sandboxTxBase   = "https://cybqa.pesapal.com/pesapalv3"

	defaultTimeout = 20 * time.Second
	minTimeout     = 15 * time.Second
	maxTimeout     = 30 * time.Second

	maxBodyBytes = 1 << 20
)

type Config struct {
	ConsumerKey    string
	ConsumerSecret string
	Live           bool
	CallbackURL    string
	FrontendURL    string
	IPNID          string
	StorePageURL   string
	EmbedPageURL   string
	Timeout        time.Duration

	// Optional base overrides, mainly for tests.
	AuthBaseURL string
	TxBaseURL   string
}

// TokenCache stores bearer tokens between requests. GetToken returns "" with
// a nil error on a miss.
type TokenCache interface {
	GetToken(ctx context.Context) (string, error)
	SetToken(ctx context.Context, token string, ttl time.Duration) error
}

type Client struct {
	cfg        Config
	authBase   string
	txBase     string
	httpClient *http.Client
	cache      TokenCache
	log        logrus.FieldLogger
	metrics    *metrics.Metrics
	now        func() time.Time
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

func WithTokenCache(cache TokenCache) Option {
	return func(c *Client) { c.cache = cache }
}

func WithLogger(log logrus.FieldLogger) Option {
	return func(c *Client) { c.log = log }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Client) { c.metrics = m }
}

func New(cfg Config, opts ...Option) *Client {
	c := &Client{
		cfg:      cfg,
		authBase: trimBase(cfg.AuthBaseURL),
		txBase:   trimBase(cfg.TxBaseURL),
		now:      time.Now,
	}
	if c.authBase == "" {
		c.authBase = sandboxAuthBase
		if cfg.Live {
			c.authBase = liveAuthBase
		}
	}
	if c.txBase == "" {
		c.txBase = sandboxTxBase
		if cfg.Live {
			c.txBase = liveTxBase
		}
	}

	for _, opt := range opts {
		opt(c)
	}
	if c.httpClient == nil {
		c.httpClient = &http.Client{Timeout: ClampTimeout(cfg.Timeout)}
	}
	c.log = logger.OrDiscard(c.log).WithField("component", "pesapal")
	return c
}

// Environment is "live" or "sandbox".
func (c *Client) Environment() string {
	if c.cfg.Live {
		return "live"
	}
	return "sandbox"
}

// ClampTimeout keeps gateway timeouts within 15-30s, defaulting to 20s.
func ClampTimeout(d time.Duration) time.Duration {
	switch {
	case d <= 0:
		return defaultTimeout
	case d < minTimeout:
		return minTimeout
	case d > maxTimeout:
		return maxTimeout
	}
	return d
}

func trimBase(s string) string {
	return strings.TrimRight(strings.TrimSpace(s), "/")
}

func readBody(r io.Reader) []byte {
	b, _ := io.ReadAll(io.LimitReader(r, maxBodyBytes))
	return b
}

func preview(b []byte) string {
	const n = 500
	if len(b) > n {
		return string(b[:n]) + "..."
	}
	return string(b)
}

func (c *Client) observe(op string, start time.Time, err error) {
	c.metrics.ObserveGateway(op, err, time.Since(start))
}
