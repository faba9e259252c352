package handler

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/class-control-api/internal/dto"
	"github.com/noah-isme/class-control-api/internal/middleware"
	"github.com/noah-isme/class-control-api/internal/models"
	"github.com/noah-isme/class-control-api/internal/service"
	appErrors "github.com/noah-isme/class-control-api/pkg/errors"
	"github.com/noah-isme/class-control-api/pkg/response"
)

type overviewService interface {
	Build(ctx context.Context, site models.SiteRef, classID string) (*models.OverviewMatrix, bool, error)
}

type exportJobService interface {
	CreateJob(ctx context.Context, site models.SiteRef, classID string, req dto.ExportRequest, actor string) (*dto.ExportJobResponse, error)
	GetStatus(ctx context.Context, site models.SiteRef, id string) (*dto.ExportStatusResponse, error)
	ResolveDownload(ctx context.Context, token string) (*service.ExportDownload, error)
}

// OverviewHandler serves the attendance matrix and its exports.
type OverviewHandler struct {
	service overviewService
	exports exportJobService
}

// NewOverviewHandler constructs the handler.
func NewOverviewHandler(svc overviewService, exports exportJobService) *OverviewHandler {
	return &OverviewHandler{service: svc, exports: exports}
}

// Overview godoc
// @Summary Attendance matrix of a class
// @Tags Overview
// @Produce json
// @Security BearerAuth
// @Param classId path string true "Class ID"
// @Success 200 {object} response.Envelope
// @Router /classes/{classId}/overview [get]
func (h *OverviewHandler) Overview(c *gin.Context) {
	site, _, err := siteScope(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	matrix, cacheHit, err := h.service.Build(c.Request.Context(), site, c.Param("classId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, cacheHit)
	response.JSON(c, http.StatusOK, matrix, middleware.ResponseMeta(c))
}

// CreateExport godoc
// @Summary Export the attendance matrix
// @Tags Overview
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param classId path string true "Class ID"
// @Param payload body dto.ExportRequest true "Export format"
// @Success 202 {object} response.Envelope
// @Router /classes/{classId}/overview/exports [post]
func (h *OverviewHandler) CreateExport(c *gin.Context) {
	site, claims, err := siteScope(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	var req dto.ExportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid export payload"))
		return
	}
	job, err := h.exports.CreateJob(c.Request.Context(), site, c.Param("classId"), req, claims.CPF)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Accepted(c, job)
}

// ExportStatus godoc
// @Summary Export job status
// @Tags Overview
// @Produce json
// @Security BearerAuth
// @Param id path string true "Export job ID"
// @Success 200 {object} response.Envelope
// @Router /exports/{id} [get]
func (h *OverviewHandler) ExportStatus(c *gin.Context) {
	site, _, err := siteScope(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	status, err := h.exports.GetStatus(c.Request.Context(), site, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, status, nil)
}

// Download godoc
// @Summary Download an export via its signed token
// @Tags Overview
// @Produce octet-stream
// @Param token path string true "Signed token"
// @Success 200 {file} binary
// @Failure 403 {object} response.Envelope
// @Router /exports/download/{token} [get]
func (h *OverviewHandler) Download(c *gin.Context) {
	result, err := h.exports.ResolveDownload(c.Request.Context(), c.Param("token"))
	if err != nil {
		response.Error(c, err)
		return
	}
	defer result.File.Close() //nolint:errcheck
	info, err := result.File.Stat()
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to read export"))
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s\"", result.Filename))
	c.Header("Cache-Control", "no-store")
	c.DataFromReader(http.StatusOK, info.Size(), exportMimeType(result.Format), result.File, nil)
}

func exportMimeType(format models.ExportFormat) string {
	switch format {
	case models.ExportFormatPDF:
		return "application/pdf"
	case models.ExportFormatCSV:
		return "text/csv; charset=utf-8"
	default:
		return "application/octet-stream"
	}
}
