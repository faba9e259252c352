package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/class-control-api/internal/dto"
	"github.com/noah-isme/class-control-api/internal/models"
	appErrors "github.com/noah-isme/class-control-api/pkg/errors"
	"github.com/noah-isme/class-control-api/pkg/response"
)

type makeUpService interface {
	Absences(ctx context.Context, site models.SiteRef, classID string) ([]models.StudentAbsences, error)
	Schedule(ctx context.Context, site models.SiteRef, classID string, req dto.ScheduleMakeUpRequest) (*dto.ScheduleMakeUpResponse, error)
	MarkNotified(ctx context.Context, site models.SiteRef, classID, id string) (*dto.MakeUpView, error)
	List(ctx context.Context, site models.SiteRef, classID string) ([]dto.MakeUpView, error)
	Update(ctx context.Context, site models.SiteRef, classID, id string, req dto.UpdateMakeUpRequest) (*dto.MakeUpView, error)
	Remove(ctx context.Context, site models.SiteRef, classID, id string) error
	NotificationLink(ctx context.Context, site models.SiteRef, classID, id string) (*dto.NotificationLinkResponse, error)
}

// MakeUpHandler exposes absences and make-up scheduling.
type MakeUpHandler struct {
	service makeUpService
}

// NewMakeUpHandler constructs the handler.
func NewMakeUpHandler(svc makeUpService) *MakeUpHandler {
	return &MakeUpHandler{service: svc}
}

// Absences godoc
// @Summary Absences per student over held lectures
// @Tags Make-ups
// @Produce json
// @Security BearerAuth
// @Param classId path string true "Class ID"
// @Success 200 {object} response.Envelope
// @Router /classes/{classId}/absences [get]
func (h *MakeUpHandler) Absences(c *gin.Context) {
	site, _, err := siteScope(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	rows, err := h.service.Absences(c.Request.Context(), site, c.Param("classId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, rows, map[string]interface{}{"total": len(rows)})
}

// List godoc
// @Summary List make-up entries, newest first
// @Tags Make-ups
// @Produce json
// @Security BearerAuth
// @Param classId path string true "Class ID"
// @Success 200 {object} response.Envelope
// @Router /classes/{classId}/makeups [get]
func (h *MakeUpHandler) List(c *gin.Context) {
	site, _, err := siteScope(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	entries, err := h.service.List(c.Request.Context(), site, c.Param("classId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, entries, map[string]interface{}{"total": len(entries)})
}

// Schedule godoc
// @Summary Schedule a make-up
// @Tags Make-ups
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param classId path string true "Class ID"
// @Param payload body dto.ScheduleMakeUpRequest true "Make-up payload"
// @Success 201 {object} response.Envelope
// @Router /classes/{classId}/makeups [post]
func (h *MakeUpHandler) Schedule(c *gin.Context) {
	site, _, err := siteScope(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	var req dto.ScheduleMakeUpRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid make-up payload"))
		return
	}
	res, err := h.service.Schedule(c.Request.Context(), site, c.Param("classId"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, res)
}

// Update godoc
// @Summary Update a make-up entry
// @Tags Make-ups
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param classId path string true "Class ID"
// @Param id path string true "Make-up ID"
// @Param payload body dto.UpdateMakeUpRequest true "Fields to change"
// @Success 200 {object} response.Envelope
// @Router /classes/{classId}/makeups/{id} [patch]
func (h *MakeUpHandler) Update(c *gin.Context) {
	site, _, err := siteScope(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	var req dto.UpdateMakeUpRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid make-up payload"))
		return
	}
	entry, err := h.service.Update(c.Request.Context(), site, c.Param("classId"), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, entry, nil)
}

// Remove godoc
// @Summary Remove a make-up entry
// @Tags Make-ups
// @Security BearerAuth
// @Param classId path string true "Class ID"
// @Param id path string true "Make-up ID"
// @Param confirm query bool true "Must be true"
// @Success 204 {object} response.Envelope
// @Router /classes/{classId}/makeups/{id} [delete]
func (h *MakeUpHandler) Remove(c *gin.Context) {
	if err := requireConfirm(c); err != nil {
		response.Error(c, err)
		return
	}
	site, _, err := siteScope(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	if err := h.service.Remove(c.Request.Context(), site, c.Param("classId"), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// MarkNotified godoc
// @Summary Record that the WhatsApp notification was sent
// @Description Idempotent. A repeated call keeps the first timestamp.
// @Tags Make-ups
// @Produce json
// @Security BearerAuth
// @Param classId path string true "Class ID"
// @Param id path string true "Make-up ID"
// @Success 200 {object} response.Envelope
// @Router /classes/{classId}/makeups/{id}/notified [post]
func (h *MakeUpHandler) MarkNotified(c *gin.Context) {
	site, _, err := siteScope(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	entry, err := h.service.MarkNotified(c.Request.Context(), site, c.Param("classId"), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, entry, nil)
}

// NotificationLink godoc
// @Summary Recompose the WhatsApp link of a make-up
// @Tags Make-ups
// @Produce json
// @Security BearerAuth
// @Param classId path string true "Class ID"
// @Param id path string true "Make-up ID"
// @Success 200 {object} response.Envelope
// @Router /classes/{classId}/makeups/{id}/whatsapp-link [get]
func (h *MakeUpHandler) NotificationLink(c *gin.Context) {
	site, _, err := siteScope(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	res, err := h.service.NotificationLink(c.Request.Context(), site, c.Param("classId"), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, res, nil)
}
