package booking

import (
	"errors"
	"net/http"

	"safaristay/internal/domain"
	"safaristay/internal/middleware"
	"safaristay/internal/pkg/response"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes mounts the customer routes. public should carry optional
// auth, protected required auth.
func (h *Handler) RegisterRoutes(public, protected *gin.RouterGroup) {
	public.POST("/bookings", h.Create)
	public.POST("/bookings/create", h.Create)
	public.POST("/bookings/book", h.Create)
	public.POST("/bookings/:id/email", h.EmailReceipt)

	protected.GET("/bookings/ref/:bookingId", h.GetByReference)
	protected.GET("/bookings/receipt/:bookingId", h.Receipt)
	protected.GET("/bookings/my", h.ListMine)
	protected.POST("/bookings/:id/cancel", h.Cancel)
	protected.POST("/bookings/:id/notify", h.Notify)
}

// RegisterAdminRoutes mounts the admin booking routes on an admin-only group.
func (h *Handler) RegisterAdminRoutes(admin *gin.RouterGroup) {
	admin.GET("/bookings", h.List)
	admin.GET("/bookings/:id", h.Get)
	admin.POST("/bookings/:id/deposit", h.transition(domain.TransitionDepositPaid))
	admin.POST("/bookings/:id/confirm", h.transition(domain.TransitionConfirm))
	admin.POST("/bookings/:id/paid", h.transition(domain.TransitionFullyPaid))
	admin.POST("/bookings/:id/complete", h.transition(domain.TransitionComplete))
	admin.POST("/bookings/:id/reopen", h.transition(domain.TransitionReopen))
	admin.POST("/bookings/:id/cancel", h.Cancel)
	admin.POST("/bookings/:id/notify", h.Notify)
}

func (h *Handler) Create(c *gin.Context) {
	var req CreateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}

	b, err := h.service.Create(c.Request.Context(), req, callerFrom(c))
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, http.StatusCreated, gin.H{"booking": b})
}

func (h *Handler) GetByReference(c *gin.Context) {
	b, err := h.service.GetByReference(c.Request.Context(), c.Param("bookingId"), callerFrom(c))
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"booking": b})
}

func (h *Handler) Receipt(c *gin.Context) {
	r, err := h.service.Receipt(c.Request.Context(), c.Param("bookingId"), callerFrom(c))
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"receipt": r})
}

func (h *Handler) ListMine(c *gin.Context) {
	items, err := h.service.ListMine(c.Request.Context(), callerFrom(c))
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"bookings": items})
}

func (h *Handler) List(c *gin.Context) {
	var req ListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid query parameters")
		return
	}

	items, total, f, err := h.service.List(c.Request.Context(), req)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Paginated(c, http.StatusOK, items, f.Page, f.Limit, total)
}

func (h *Handler) Get(c *gin.Context) {
	b, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"booking": b})
}

func (h *Handler) transition(t domain.Transition) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req TransitionRequest
		if !bindOptionalJSON(c, &req) {
			return
		}

		b, err := h.service.Transition(c.Request.Context(), c.Param("id"), t, req, callerFrom(c))
		if err != nil {
			writeError(c, err)
			return
		}
		response.Success(c, http.StatusOK, gin.H{"booking": b})
	}
}

func (h *Handler) Cancel(c *gin.Context) {
	var req TransitionRequest
	if !bindOptionalJSON(c, &req) {
		return
	}

	res, err := h.service.Cancel(c.Request.Context(), c.Param("id"), req.Reason, callerFrom(c))
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, res)
}

func (h *Handler) Notify(c *gin.Context) {
	var req NotifyRequest
	if !bindOptionalJSON(c, &req) {
		return
	}
	if req.Type == "" {
		req.Type = c.Query("type")
	}

	if err := h.service.Notify(c.Request.Context(), c.Param("id"), req.Type, callerFrom(c)); err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, http.StatusAccepted, gin.H{"queued": true})
}

func (h *Handler) EmailReceipt(c *gin.Context) {
	var req EmailReceiptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}

	if err := h.service.EmailReceipt(c.Request.Context(), c.Param("id"), req.Email); err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, http.StatusAccepted, gin.H{"queued": true})
}

// bindOptionalJSON accepts an empty body.
func bindOptionalJSON(c *gin.Context, dst any) bool {
	if c.Request.ContentLength == 0 {
		return true
	}
	if err := c.ShouldBindJSON(dst); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return false
	}
	return true
}

func callerFrom(c *gin.Context) *Caller {
	email := c.GetString(middleware.CtxEmail)
	userID := c.GetInt64(middleware.CtxUserID)
	if email == "" && userID == 0 {
		return nil
	}
	return &Caller{UserID: userID, Email: email, Role: c.GetString(middleware.CtxRole)}
}

func writeError(c *gin.Context, err error) {
	var verr *ValidationError
	switch {
	case errors.As(err, &verr):
		response.ErrorWithDetails(c, http.StatusBadRequest, "VALIDATION_ERROR", verr.Message, verr.Fields)
	case errors.Is(err, ErrValidation), errors.Is(err, domain.ErrInvalidInput):
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
	case errors.Is(err, ErrNotFound):
		response.Error(c, http.StatusNotFound, "NOT_FOUND", err.Error())
	case errors.Is(err, ErrForbidden):
		response.Error(c, http.StatusForbidden, "FORBIDDEN", "Not authorized to access this booking")
	case errors.Is(err, ErrConflict):
		response.Error(c, http.StatusBadRequest, "INVALID_STATUS_TRANSITION", err.Error())
	case errors.Is(err, ErrNotifyUnavailable):
		response.Error(c, http.StatusServiceUnavailable, "NOTIFICATION_UNAVAILABLE", err.Error())
	default:
		_ = c.Error(err)
		response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error")
	}
}
