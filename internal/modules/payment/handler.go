package payment

import (
	"errors"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"safaristay/internal/integrations/pesapal"
	"safaristay/internal/pkg/logger"
	"safaristay/internal/pkg/response"

	"github.com/gin-gonic/gin"
	json "github.com/goccy/go-json"
	"github.com/sirupsen/logrus"
)

var (
	trackingParams  = []string{"OrderTrackingId", "orderTrackingId", "order_tracking_id"}
	referenceParams = []string{"OrderMerchantReference", "orderMerchantReference", "order_merchant_reference"}
	typeParams      = []string{"OrderNotificationType", "orderNotificationType", "order_notification_type"}
)

type Handler struct {
	service *Service
	log     logrus.FieldLogger
}

func NewHandler(service *Service, log logrus.FieldLogger) *Handler {
	return &Handler{service: service, log: logger.OrDiscard(log).WithField("component", "payment_handler")}
}

func (h *Handler) RegisterPublicRoutes(rg *gin.RouterGroup) {
	rg.POST("/payments/initiate", h.Initiate)
	rg.GET("/payments/callback", h.Callback)
	rg.POST("/payments/callback", h.Callback)
	rg.GET("/payments/status", h.Status)
}

func (h *Handler) RegisterAdminRoutes(admin *gin.RouterGroup) {
	admin.GET("/payments/dead-letters", h.ListDeadLetters)
	admin.POST("/payments/dead-letters/:id/retry", h.RetryDeadLetter)
	admin.GET("/payments/debug-auth", h.DebugAuth)
	admin.POST("/payments/register-ipn", h.RegisterIPN)
}

// Initiate godoc
// @Summary      Start a gateway payment
// @Tags         Payments
// @Accept       json
// @Produce      json
// @Param        body body InitiateRequest true "Payment payload"
// @Success      200 {object} InitiateResponse
// @Router       /payments/initiate [post]
func (h *Handler) Initiate(c *gin.Context) {
	var req InitiateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}

	resp, err := h.service.Initiate(c.Request.Context(), req)
	if err != nil {
		if errors.Is(err, pesapal.ErrNoRedirectTarget) && resp != nil {
			response.ErrorWithDetails(c, http.StatusBadGateway, "NO_REDIRECT_TARGET",
				"Payment gateway did not return a redirect target", gin.H{"raw": resp.Raw, "orderTrackingId": resp.OrderTrackingID})
			return
		}
		h.writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, resp)
}

// Callback receives gateway notifications. The delivery is acknowledged
// before any processing so the gateway never waits on reconciliation.
func (h *Handler) Callback(c *gin.Context) {
	n := readNotification(c)
	h.log.WithFields(logrus.Fields{
		"method":      c.Request.Method,
		"tracking_id": n.TrackingID,
		"reference":   n.MerchantReference,
		"type":        n.Type,
	}).Info("ipn_received")

	c.String(http.StatusOK, "OK")
	h.service.HandleNotification(n)
}

func (h *Handler) Status(c *gin.Context) {
	trackingID := firstParam(c, nil, trackingParams)
	st, err := h.service.Status(c.Request.Context(), trackingID)
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, st)
}

func (h *Handler) ListDeadLetters(c *gin.Context) {
	limit, _ := strconv.Atoi(c.Query("limit"))
	items, err := h.service.ListDeadLetters(c.Request.Context(), limit)
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"items": items, "count": len(items)})
}

func (h *Handler) RetryDeadLetter(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.Error(c, http.StatusBadRequest, "INVALID_ID", "Invalid dead letter id")
		return
	}
	b, err := h.service.RetryDeadLetter(c.Request.Context(), id)
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"booking": b})
}

func (h *Handler) DebugAuth(c *gin.Context) {
	response.Success(c, http.StatusOK, h.service.DebugAuth(c.Request.Context()))
}

func (h *Handler) RegisterIPN(c *gin.Context) {
	var req RegisterIPNRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}
	id, err := h.service.RegisterIPN(c.Request.Context(), req)
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"ipnId": id})
}

func (h *Handler) writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrValidation):
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
	case errors.Is(err, ErrBookingNotFound):
		response.Error(c, http.StatusNotFound, "BOOKING_NOT_FOUND", "Booking not found")
	case errors.Is(err, ErrNotFound):
		response.Error(c, http.StatusNotFound, "NOT_FOUND", "Not found")
	case errors.Is(err, pesapal.ErrAuth):
		response.Error(c, http.StatusBadGateway, "GATEWAY_AUTH_FAILED", "Payment gateway authentication failed")
	case errors.Is(err, pesapal.ErrGateway):
		response.Error(c, http.StatusBadGateway, "GATEWAY_ERROR", "Payment gateway request failed")
	default:
		h.log.WithField("error", err.Error()).Error("payment_request_failed")
		response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error")
	}
}

// readNotification collects the notification fields from the query string,
// a form body or a JSON body, in either casing the gateway uses.
func readNotification(c *gin.Context) Notification {
	var body map[string]any
	raw, _ := io.ReadAll(io.LimitReader(c.Request.Body, 1<<20))
	if len(raw) > 0 {
		if strings.HasPrefix(c.ContentType(), "application/json") {
			_ = json.Unmarshal(raw, &body)
		} else if values, err := parseForm(raw); err == nil {
			body = values
		}
	}

	n := Notification{
		TrackingID:        firstParam(c, body, trackingParams),
		MerchantReference: firstParam(c, body, referenceParams),
		Type:              firstParam(c, body, typeParams),
	}

	payload := map[string]any{}
	for k, v := range c.Request.URL.Query() {
		if len(v) > 0 {
			payload[k] = v[0]
		}
	}
	for k, v := range body {
		payload[k] = v
	}
	n.Payload, _ = json.Marshal(payload)
	return n
}

func firstParam(c *gin.Context, body map[string]any, keys []string) string {
	for _, k := range keys {
		if v := strings.TrimSpace(c.Query(k)); v != "" {
			return v
		}
	}
	for _, k := range keys {
		switch v := body[k].(type) {
		case string:
			if s := strings.TrimSpace(v); s != "" {
				return s
			}
		case float64:
			return strconv.FormatFloat(v, 'f', -1, 64)
		}
	}
	return ""
}

func parseForm(raw []byte) (map[string]any, error) {
	values, err := url.ParseQuery(string(raw))
	if err != nil {
		return nil, err
	}
	out := make(map[string]any, len(values))
	for k, v := range values {
		if len(v) > 0 {
			out[k] = v[0]
		}
	}
	return out, nil
}
