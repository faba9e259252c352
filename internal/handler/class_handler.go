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

type classService interface {
	List(ctx context.Context, site models.SiteRef) ([]models.Class, error)
	Get(ctx context.Context, site models.SiteRef, id string) (*models.Class, error)
	Create(ctx context.Context, site models.SiteRef, req dto.CreateClassRequest) (*dto.CreateClassResponse, error)
	Update(ctx context.Context, site models.SiteRef, id string, req dto.UpdateClassRequest) (*models.Class, error)
	Lectures(ctx context.Context, site models.SiteRef, classID string) ([]models.Lecture, error)
}

type classCascade interface {
	DeleteClass(ctx context.Context, site models.SiteRef, classID string) (*dto.CascadeResult, error)
}

type transferTargets interface {
	AvailableClasses(ctx context.Context, site models.SiteRef, currentClassID string) ([]models.ClassSummary, error)
}

// ClassHandler exposes class endpoints.
type ClassHandler struct {
	service  classService
	cascade  classCascade
	transfer transferTargets
}

// NewClassHandler constructs a class handler.
func NewClassHandler(svc classService, cascade classCascade, transfer transferTargets) *ClassHandler {
	return &ClassHandler{service: svc, cascade: cascade, transfer: transfer}
}

// List godoc
// @Summary List classes of the site
// @Tags Classes
// @Produce json
// @Security BearerAuth
// @Param site query string false "Another site of the state (state instructors only)"
// @Success 200 {object} response.Envelope
// @Router /classes [get]
func (h *ClassHandler) List(c *gin.Context) {
	site, _, err := siteScope(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	classes, err := h.service.List(c.Request.Context(), site)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, classes, map[string]interface{}{"total": len(classes)})
}

// Get godoc
// @Summary Get class detail
// @Tags Classes
// @Produce json
// @Security BearerAuth
// @Param classId path string true "Class ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /classes/{classId} [get]
func (h *ClassHandler) Get(c *gin.Context) {
	site, _, err := siteScope(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	class, err := h.service.Get(c.Request.Context(), site, c.Param("classId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, class, nil)
}

// Create godoc
// @Summary Create class
// @Description Allocates the next class id and clones the lecture templates into it
// @Tags Classes
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body dto.CreateClassRequest true "Class payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /classes [post]
func (h *ClassHandler) Create(c *gin.Context) {
	site, _, err := siteScope(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	var req dto.CreateClassRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid class payload"))
		return
	}
	res, err := h.service.Create(c.Request.Context(), site, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, res)
}

// Update godoc
// @Summary Update class
// @Tags Classes
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param classId path string true "Class ID"
// @Param payload body dto.UpdateClassRequest true "Fields to change"
// @Success 200 {object} response.Envelope
// @Router /classes/{classId} [patch]
func (h *ClassHandler) Update(c *gin.Context) {
	site, _, err := siteScope(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	var req dto.UpdateClassRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid class payload"))
		return
	}
	class, err := h.service.Update(c.Request.Context(), site, c.Param("classId"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, class, nil)
}

// Delete godoc
// @Summary Delete class with every lecture, student, attendance record and make-up
// @Tags Classes
// @Produce json
// @Security BearerAuth
// @Param classId path string true "Class ID"
// @Param confirm query bool true "Must be true"
// @Success 200 {object} response.Envelope
// @Failure 412 {object} response.Envelope
// @Router /classes/{classId} [delete]
func (h *ClassHandler) Delete(c *gin.Context) {
	if err := requireConfirm(c); err != nil {
		response.Error(c, err)
		return
	}
	site, _, err := siteScope(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	res, err := h.cascade.DeleteClass(c.Request.Context(), site, c.Param("classId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, res, nil)
}

// Lectures godoc
// @Summary List lectures of a class
// @Tags Lectures
// @Produce json
// @Security BearerAuth
// @Param classId path string true "Class ID"
// @Success 200 {object} response.Envelope
// @Router /classes/{classId}/lectures [get]
func (h *ClassHandler) Lectures(c *gin.Context) {
	site, _, err := siteScope(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	lectures, err := h.service.Lectures(c.Request.Context(), site, c.Param("classId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, lectures, map[string]interface{}{"total": len(lectures)})
}

// TransferTargets godoc
// @Summary Classes a student of this class can move to
// @Tags Classes
// @Produce json
// @Security BearerAuth
// @Param classId path string true "Class ID"
// @Success 200 {object} response.Envelope
// @Router /classes/{classId}/transfer-targets [get]
func (h *ClassHandler) TransferTargets(c *gin.Context) {
	site, _, err := siteScope(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	targets, err := h.transfer.AvailableClasses(c.Request.Context(), site, c.Param("classId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, targets, nil)
}
