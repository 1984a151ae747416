package payment

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"testing"
	"time"

	"safaristay/internal/domain"
	"safaristay/internal/integrations/pesapal"

	"github.com/gin-gonic/gin"
	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRouter(f *fixture) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	h := NewHandler(f.svc, nil)
	h.RegisterPublicRoutes(r.Group(""))
	h.RegisterAdminRoutes(r.Group("/admin"))
	return r
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   struct {
		Code    string          `json:"code"`
		Details json.RawMessage `json:"details"`
	} `json:"error"`
}

func serve(r http.Handler, req *http.Request) (*httptest.ResponseRecorder, envelope) {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	var env envelope
	_ = json.Unmarshal(w.Body.Bytes(), &env)
	return w, env
}

func waitIdle(t *testing.T, s *Service) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, s.Wait(ctx))
}

func TestHandler_CallbackAcknowledgesThenReconciles(t *testing.T) {
	f := newFixture(t)
	r := newRouter(f)
	b := f.seedBooking(t, "BK00000020AAAAAA", "TRK-20")
	f.gateway.status = &pesapal.TransactionStatus{Status: pesapal.StatusCompleted, Amount: amount(275)}

	req := httptest.NewRequest(http.MethodGet,
		"/payments/callback?OrderTrackingId=TRK-20&OrderMerchantReference=BK00000020AAAAAA&OrderNotificationType=IPNCHANGE", nil)
	w, _ := serve(r, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "OK", w.Body.String())

	waitIdle(t, f.svc)
	got, err := f.bookings.GetByID(context.Background(), b.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.BookingConfirmed, got.Status)
	require.Len(t, got.PaymentDetails.IPN, 1)
	assert.JSONEq(t,
		`{"OrderTrackingId":"TRK-20","OrderMerchantReference":"BK00000020AAAAAA","OrderNotificationType":"IPNCHANGE"}`,
		string(got.PaymentDetails.IPN[0].Payload))
}

func TestHandler_CallbackAcceptsFormAndJSONBodies(t *testing.T) {
	f := newFixture(t)
	r := newRouter(f)
	f.seedBooking(t, "BK00000021AAAAAA", "TRK-21")
	f.seedBooking(t, "BK00000022AAAAAA", "TRK-22")
	f.gateway.status = &pesapal.TransactionStatus{Status: pesapal.StatusPending}

	form := url.Values{"orderTrackingId": {"TRK-21"}}
	req := httptest.NewRequest(http.MethodPost, "/payments/callback", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w, _ := serve(r, req)
	assert.Equal(t, "OK", w.Body.String())

	req = httptest.NewRequest(http.MethodPost, "/payments/callback",
		bytes.NewBufferString(`{"order_tracking_id":"TRK-22","order_notification_type":"IPNCHANGE"}`))
	req.Header.Set("Content-Type", "application/json")
	w, _ = serve(r, req)
	assert.Equal(t, "OK", w.Body.String())

	waitIdle(t, f.svc)
	for _, ref := range []string{"BK00000021AAAAAA", "BK00000022AAAAAA"} {
		got, err := f.bookings.GetByReference(context.Background(), ref)
		require.NoError(t, err)
		assert.Equal(t, domain.PaymentPending, got.PaymentDetails.Status, ref)
		assert.Len(t, got.PaymentDetails.IPN, 1, ref)
	}
}

func TestHandler_CallbackWithoutTrackingIDStillAcknowledges(t *testing.T) {
	f := newFixture(t)
	r := newRouter(f)

	w, _ := serve(r, httptest.NewRequest(http.MethodGet, "/payments/callback", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "OK", w.Body.String())
	waitIdle(t, f.svc)
}

func TestHandler_InitiateNoRedirectTarget(t *testing.T) {
	f := newFixture(t)
	r := newRouter(f)
	f.seedBooking(t, "BK00000023AAAAAA", "")
	f.gateway.order = &pesapal.OrderResult{OrderTrackingID: "TRK-23", Raw: []byte(`{"message":"queued"}`)}
	f.gateway.orderErr = pesapal.ErrNoRedirectTarget

	req := httptest.NewRequest(http.MethodPost, "/payments/initiate",
		bytes.NewBufferString(`{"bookingReference":"BK00000023AAAAAA"}`))
	req.Header.Set("Content-Type", "application/json")
	w, env := serve(r, req)

	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Equal(t, "NO_REDIRECT_TARGET", env.Error.Code)
	assert.Contains(t, string(env.Error.Details), `"message":"queued"`)
}

func TestHandler_InitiateGatewayErrors(t *testing.T) {
	cases := []struct {
		name string
		err  error
		code string
	}{
		{"auth", &pesapal.AuthError{Attempts: 3}, "GATEWAY_AUTH_FAILED"},
		{"gateway", &pesapal.GatewayError{Op: "submit_order", Status: 500}, "GATEWAY_ERROR"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t)
			r := newRouter(f)
			f.gateway.orderErr = tc.err

			req := httptest.NewRequest(http.MethodPost, "/payments/initiate",
				bytes.NewBufferString(`{"amount":50,"email":"guest@example.com"}`))
			req.Header.Set("Content-Type", "application/json")
			w, env := serve(r, req)

			assert.Equal(t, http.StatusBadGateway, w.Code)
			assert.Equal(t, tc.code, env.Error.Code)
		})
	}
}

func TestHandler_DeadLetterRetry(t *testing.T) {
	f := newFixture(t)
	r := newRouter(f)
	f.gateway.status = &pesapal.TransactionStatus{Status: pesapal.StatusCompleted, Amount: amount(275)}

	require.ErrorIs(t, f.svc.ProcessNotification(context.Background(), notificationFor("TRK-24")), ErrBookingNotFound)

	w, env := serve(r, httptest.NewRequest(http.MethodGet, "/admin/payments/dead-letters", nil))
	require.Equal(t, http.StatusOK, w.Code)
	var list struct {
		Items []domain.UnresolvedNotification `json:"items"`
		Count int                             `json:"count"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &list))
	require.Equal(t, 1, list.Count)

	path := "/admin/payments/dead-letters/" + strconv.FormatInt(list.Items[0].ID, 10) + "/retry"
	w, env = serve(r, httptest.NewRequest(http.MethodPost, path, nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "BOOKING_NOT_FOUND", env.Error.Code)

	f.seedBooking(t, "BK00000024AAAAAA", "TRK-24")
	w, _ = serve(r, httptest.NewRequest(http.MethodPost, path, nil))
	assert.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w, env = serve(r, httptest.NewRequest(http.MethodPost, "/admin/payments/dead-letters/abc/retry", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "INVALID_ID", env.Error.Code)
}

func TestHandler_StatusRequiresTrackingID(t *testing.T) {
	f := newFixture(t)
	r := newRouter(f)

	w, env := serve(r, httptest.NewRequest(http.MethodGet, "/payments/status", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "VALIDATION_ERROR", env.Error.Code)
}
