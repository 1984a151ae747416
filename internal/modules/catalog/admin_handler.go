package catalog

import (
	"errors"
	"net/http"

	"safaristay/internal/pkg/response"

	"github.com/gin-gonic/gin"
)

// RegisterAdminRoutes mounts inventory management on an already guarded group.
func (h *Handler) RegisterAdminRoutes(admin *gin.RouterGroup) {
	admin.POST("/properties", h.CreateProperty)
	admin.PUT("/properties/:id", h.UpdateProperty)
	admin.DELETE("/properties/:id", h.DeleteProperty)
	admin.POST("/properties/:id/rooms", h.CreateRoom)
	admin.PUT("/rooms/:id", h.UpdateRoom)
	admin.DELETE("/rooms/:id", h.DeleteRoom)
	admin.POST("/packages", h.CreatePackage)
	admin.PUT("/packages/:id", h.UpdatePackage)
	admin.DELETE("/packages/:id", h.DeletePackage)
	admin.POST("/amenities", h.CreateAmenity)
	admin.PUT("/amenities/:id", h.UpdateAmenity)
	admin.DELETE("/amenities/:id", h.DeleteAmenity)
}

// CreateProperty godoc
// @Summary  Create property
// @Tags     Admin
// @Security BearerAuth
// @Param    request body PropertyInput true "Property"
// @Success  201 {object} domain.Property
// @Router   /admin/properties [POST]
func (h *Handler) CreateProperty(c *gin.Context) {
	var in PropertyInput
	if !bind(c, &in) {
		return
	}
	p, err := h.service.CreateProperty(c.Request.Context(), in)
	h.written(c, http.StatusCreated, p, err)
}

func (h *Handler) UpdateProperty(c *gin.Context) {
	var in PropertyInput
	if !bind(c, &in) {
		return
	}
	p, err := h.service.UpdateProperty(c.Request.Context(), c.Param("id"), in)
	h.written(c, http.StatusOK, p, err)
}

// DeleteProperty also removes the property's rooms and detaches its packages.
func (h *Handler) DeleteProperty(c *gin.Context) {
	h.deleted(c, h.service.DeleteProperty(c.Request.Context(), c.Param("id")))
}

func (h *Handler) CreateRoom(c *gin.Context) {
	var in RoomInput
	if !bind(c, &in) {
		return
	}
	room, err := h.service.CreateRoom(c.Request.Context(), c.Param("id"), in)
	h.written(c, http.StatusCreated, room, err)
}

func (h *Handler) UpdateRoom(c *gin.Context) {
	var in RoomInput
	if !bind(c, &in) {
		return
	}
	room, err := h.service.UpdateRoom(c.Request.Context(), c.Param("id"), in)
	h.written(c, http.StatusOK, room, err)
}

func (h *Handler) DeleteRoom(c *gin.Context) {
	h.deleted(c, h.service.DeleteRoom(c.Request.Context(), c.Param("id")))
}

func (h *Handler) CreatePackage(c *gin.Context) {
	var in PackageInput
	if !bind(c, &in) {
		return
	}
	p, err := h.service.CreatePackage(c.Request.Context(), in)
	h.written(c, http.StatusCreated, p, err)
}

func (h *Handler) UpdatePackage(c *gin.Context) {
	var in PackageInput
	if !bind(c, &in) {
		return
	}
	p, err := h.service.UpdatePackage(c.Request.Context(), c.Param("id"), in)
	h.written(c, http.StatusOK, p, err)
}

func (h *Handler) DeletePackage(c *gin.Context) {
	h.deleted(c, h.service.DeletePackage(c.Request.Context(), c.Param("id")))
}

func (h *Handler) CreateAmenity(c *gin.Context) {
	var in AmenityInput
	if !bind(c, &in) {
		return
	}
	a, err := h.service.CreateAmenity(c.Request.Context(), in)
	h.written(c, http.StatusCreated, a, err)
}

func (h *Handler) UpdateAmenity(c *gin.Context) {
	var in AmenityInput
	if !bind(c, &in) {
		return
	}
	a, err := h.service.UpdateAmenity(c.Request.Context(), c.Param("id"), in)
	h.written(c, http.StatusOK, a, err)
}

func (h *Handler) DeleteAmenity(c *gin.Context) {
	h.deleted(c, h.service.DeleteAmenity(c.Request.Context(), c.Param("id")))
}

func bind(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return false
	}
	return true
}

func (h *Handler) written(c *gin.Context, status int, item any, err error) {
	if err != nil {
		h.writeFail(c, err)
		return
	}
	response.Success(c, status, item)
}

func (h *Handler) deleted(c *gin.Context, err error) {
	if err != nil {
		h.writeFail(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"message": "Deleted"})
}

func (h *Handler) writeFail(c *gin.Context, err error) {
	var verr *ValidationError
	switch {
	case errors.As(err, &verr):
		response.ErrorWithDetails(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid catalog item", verr.Fields)
	case errors.Is(err, ErrNotFound):
		response.Error(c, http.StatusNotFound, "NOT_FOUND", err.Error())
	case errors.Is(err, ErrConflict):
		response.Error(c, http.StatusConflict, "CONFLICT", err.Error())
	default:
		h.log.WithField("error", err.Error()).Error("catalog_write_failed")
		response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to save catalog")
	}
}
