package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/class-control-api/internal/models"
	"github.com/noah-isme/class-control-api/pkg/response"
)

type geographyService interface {
	Countries(ctx context.Context) ([]models.GeoEntry, error)
	States(ctx context.Context, country string) ([]models.GeoEntry, error)
	Sites(ctx context.Context, country, state string) ([]models.GeoEntry, error)
	Invalidate(ctx context.Context) error
}

// GeographyHandler serves the login picker listings.
type GeographyHandler struct {
	service geographyService
}

// NewGeographyHandler constructs the handler.
func NewGeographyHandler(svc geographyService) *GeographyHandler {
	return &GeographyHandler{service: svc}
}

// Countries godoc
// @Summary List countries
// @Tags Geography
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /geography/countries [get]
func (h *GeographyHandler) Countries(c *gin.Context) {
	items, err := h.service.Countries(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, map[string]interface{}{"total": len(items)})
}

// States godoc
// @Summary List states of a country
// @Tags Geography
// @Produce json
// @Param country path string true "Country ID"
// @Success 200 {object} response.Envelope
// @Router /geography/countries/{country}/states [get]
func (h *GeographyHandler) States(c *gin.Context) {
	items, err := h.service.States(c.Request.Context(), c.Param("country"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, map[string]interface{}{"total": len(items)})
}

// Sites godoc
// @Summary List sites of a state
// @Tags Geography
// @Produce json
// @Param country path string true "Country ID"
// @Param state path string true "State ID"
// @Success 200 {object} response.Envelope
// @Router /geography/countries/{country}/states/{state}/sites [get]
func (h *GeographyHandler) Sites(c *gin.Context) {
	items, err := h.service.Sites(c.Request.Context(), c.Param("country"), c.Param("state"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, map[string]interface{}{"total": len(items)})
}

// Invalidate godoc
// @Summary Drop cached geography listings
// @Tags Cache
// @Security BearerAuth
// @Success 204 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /cache/geography [delete]
func (h *GeographyHandler) Invalidate(c *gin.Context) {
	if err := h.service.Invalidate(c.Request.Context()); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
