package catalog

import (
	"errors"
	"net/http"

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
	return &Handler{service: service, log: logger.OrDiscard(log).WithField("component", "catalog")}
}

func (h *Handler) RegisterRoutes(public *gin.RouterGroup) {
	public.GET("/properties", h.ListProperties)
	public.GET("/properties/:id", h.GetProperty)
	public.GET("/packages", h.ListPackages)
	public.GET("/packages/:id", h.GetPackage)
	public.GET("/amenities", h.ListAmenities)
}

// ListProperties godoc
// @Summary List properties
// @Tags    Catalog
// @Param   location query string false "Location substring"
// @Param   type     query string false "Property type"
// @Param   guests   query int    false "Minimum capacity"
// @Success 200 {array} domain.Property
// @Router  /properties [GET]
func (h *Handler) ListProperties(c *gin.Context) {
	var q ListQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid query parameters")
		return
	}
	items, err := h.service.Properties(c.Request.Context(), q)
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, items)
}

func (h *Handler) GetProperty(c *gin.Context) {
	p, err := h.service.Property(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, p)
}

func (h *Handler) ListPackages(c *gin.Context) {
	var q ListQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid query parameters")
		return
	}
	items, err := h.service.Packages(c.Request.Context(), q)
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, items)
}

func (h *Handler) GetPackage(c *gin.Context) {
	p, err := h.service.Package(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, p)
}

func (h *Handler) ListAmenities(c *gin.Context) {
	items, err := h.service.Amenities(c.Request.Context(), c.Query("category"))
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, items)
}

func (h *Handler) fail(c *gin.Context, err error) {
	if errors.Is(err, ErrNotFound) {
		response.Error(c, http.StatusNotFound, "NOT_FOUND", err.Error())
		return
	}
	h.log.WithField("error", err.Error()).Error("catalog_query_failed")
	response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to load catalog")
}
