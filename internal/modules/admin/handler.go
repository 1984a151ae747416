package admin

import (
	"net/http"
	"strconv"

	"safaristay/internal/pkg/logger"
	"safaristay/internal/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

type Handler struct {
	service *Service
	log     logrus.FieldLogger
}

func NewHandler(service *Service, log logrus.FieldLogger) *Handler {
	return &Handler{service: service, log: logger.OrDiscard(log).WithField("component", "admin")}
}

// RegisterRoutes mounts the reporting routes on an admin-only group.
func (h *Handler) RegisterRoutes(admin *gin.RouterGroup) {
	admin.GET("", h.Root)
	admin.GET("/dashboard", h.Dashboard)
	admin.GET("/analytics", h.Analytics)
}

func (h *Handler) Root(c *gin.Context) {
	response.Success(c, http.StatusOK, gin.H{"message": "Admin root"})
}

// Dashboard godoc
// @Summary  Booking, customer and revenue summary
// @Tags     Admin
// @Security BearerAuth
// @Success  200 {object} DashboardResponse
// @Router   /admin/dashboard [GET]
func (h *Handler) Dashboard(c *gin.Context) {
	out, err := h.service.Dashboard(c.Request.Context())
	if err != nil {
		h.log.WithField("error", err.Error()).Error("dashboard_failed")
		response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to load dashboard")
		return
	}
	response.Success(c, http.StatusOK, out)
}

// Analytics godoc
// @Summary  Bookings and revenue per month
// @Tags     Admin
// @Security BearerAuth
// @Param    months query int false "Number of months (default 12, max 36)"
// @Success  200 {object} AnalyticsResponse
// @Router   /admin/analytics [GET]
func (h *Handler) Analytics(c *gin.Context) {
	months := 0
	if v := c.Query("months"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "months must be a positive integer")
			return
		}
		months = n
	}

	out, err := h.service.Analytics(c.Request.Context(), months)
	if err != nil {
		h.log.WithField("error", err.Error()).Error("analytics_failed")
		response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to load analytics")
		return
	}
	response.Success(c, http.StatusOK, out)
}
