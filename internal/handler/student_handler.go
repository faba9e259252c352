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

type studentService interface {
	List(ctx context.Context, site models.SiteRef, classID string) ([]models.Student, error)
	Create(ctx context.Context, site models.SiteRef, classID string, req dto.CreateStudentRequest) (*models.Student, error)
	Update(ctx context.Context, site models.SiteRef, classID, id string, req dto.UpdateStudentRequest) (*models.Student, error)
}

type studentCascade interface {
	DeleteStudent(ctx context.Context, site models.SiteRef, classID, studentID string) (*dto.CascadeResult, error)
	DisableStudent(ctx context.Context, site models.SiteRef, classID, studentID string) (*dto.CascadeResult, error)
	EnableStudent(ctx context.Context, site models.SiteRef, classID, studentID string) (*dto.CascadeResult, error)
}

type studentTransfer interface {
	Transfer(ctx context.Context, site models.SiteRef, fromClassID, studentID, toClassID string) (*dto.TransferResult, error)
}

type historyService interface {
	History(ctx context.Context, site models.SiteRef, classID, studentID string) (*models.StudentHistory, error)
	Share(ctx context.Context, site models.SiteRef, classID, studentID string) (*dto.HistoryShareResponse, error)
}

// StudentHandler exposes student endpoints.
type StudentHandler struct {
	students studentService
	cascade  studentCascade
	transfer studentTransfer
	history  historyService
}

// NewStudentHandler constructs StudentHandler.
func NewStudentHandler(students studentService, cascade studentCascade, transfer studentTransfer, history historyService) *StudentHandler {
	return &StudentHandler{students: students, cascade: cascade, transfer: transfer, history: history}
}

// List godoc
// @Summary List students of a class
// @Tags Students
// @Produce json
// @Security BearerAuth
// @Param classId path string true "Class ID"
// @Success 200 {object} response.Envelope
// @Router /classes/{classId}/students [get]
func (h *StudentHandler) List(c *gin.Context) {
	site, _, err := siteScope(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	students, err := h.students.List(c.Request.Context(), site, c.Param("classId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, students, map[string]interface{}{"total": len(students)})
}

// Create godoc
// @Summary Enrol a student
// @Description Allocates the next student id and writes absent placeholders under every lecture
// @Tags Students
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param classId path string true "Class ID"
// @Param payload body dto.CreateStudentRequest true "Student payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /classes/{classId}/students [post]
func (h *StudentHandler) Create(c *gin.Context) {
	site, _, err := siteScope(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	var req dto.CreateStudentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid student payload"))
		return
	}
	student, err := h.students.Create(c.Request.Context(), site, c.Param("classId"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, student)
}

// Update godoc
// @Summary Update student
// @Tags Students
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param classId path string true "Class ID"
// @Param studentId path string true "Student ID"
// @Param payload body dto.UpdateStudentRequest true "Fields to change"
// @Success 200 {object} response.Envelope
// @Router /classes/{classId}/students/{studentId} [patch]
func (h *StudentHandler) Update(c *gin.Context) {
	site, _, err := siteScope(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	var req dto.UpdateStudentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid student payload"))
		return
	}
	student, err := h.students.Update(c.Request.Context(), site, c.Param("classId"), c.Param("studentId"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, student, nil)
}

// Delete godoc
// @Summary Delete student and every attendance record
// @Tags Students
// @Produce json
// @Security BearerAuth
// @Param classId path string true "Class ID"
// @Param studentId path string true "Student ID"
// @Param confirm query bool true "Must be true"
// @Success 200 {object} response.Envelope
// @Failure 412 {object} response.Envelope
// @Router /classes/{classId}/students/{studentId} [delete]
func (h *StudentHandler) Delete(c *gin.Context) {
	h.cascadeAction(c, true, h.cascade.DeleteStudent)
}

// Disable godoc
// @Summary Disable student in every lecture
// @Tags Students
// @Produce json
// @Security BearerAuth
// @Param classId path string true "Class ID"
// @Param studentId path string true "Student ID"
// @Param confirm query bool true "Must be true"
// @Success 200 {object} response.Envelope
// @Router /classes/{classId}/students/{studentId}/disable [post]
func (h *StudentHandler) Disable(c *gin.Context) {
	h.cascadeAction(c, true, h.cascade.DisableStudent)
}

// Enable godoc
// @Summary Re-enable a disabled student
// @Tags Students
// @Produce json
// @Security BearerAuth
// @Param classId path string true "Class ID"
// @Param studentId path string true "Student ID"
// @Success 200 {object} response.Envelope
// @Router /classes/{classId}/students/{studentId}/enable [post]
func (h *StudentHandler) Enable(c *gin.Context) {
	h.cascadeAction(c, false, h.cascade.EnableStudent)
}

func (h *StudentHandler) cascadeAction(c *gin.Context, confirm bool, action func(context.Context, models.SiteRef, string, string) (*dto.CascadeResult, error)) {
	if confirm {
		if err := requireConfirm(c); err != nil {
			response.Error(c, err)
			return
		}
	}
	site, _, err := siteScope(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	res, err := action(c.Request.Context(), site, c.Param("classId"), c.Param("studentId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, res, nil)
}

// Transfer godoc
// @Summary Move a student to another class
// @Description Attendance is copied for the lectures the target class has. Records of other lectures are dropped and reported.
// @Tags Students
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param classId path string true "Class ID"
// @Param studentId path string true "Student ID"
// @Param confirm query bool true "Must be true"
// @Param payload body dto.TransferStudentRequest true "Target class"
// @Success 200 {object} response.Envelope
// @Failure 503 {object} response.Envelope
// @Router /classes/{classId}/students/{studentId}/transfer [post]
func (h *StudentHandler) Transfer(c *gin.Context) {
	if err := requireConfirm(c); err != nil {
		response.Error(c, err)
		return
	}
	site, _, err := siteScope(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	var req dto.TransferStudentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid transfer payload"))
		return
	}
	res, err := h.transfer.Transfer(c.Request.Context(), site, c.Param("classId"), c.Param("studentId"), req.TargetClassID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, res, nil)
}

// History godoc
// @Summary Attendance history of a student
// @Tags Students
// @Produce json
// @Security BearerAuth
// @Param classId path string true "Class ID"
// @Param studentId path string true "Student ID"
// @Success 200 {object} response.Envelope
// @Router /classes/{classId}/students/{studentId}/history [get]
func (h *StudentHandler) History(c *gin.Context) {
	site, _, err := siteScope(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	history, err := h.history.History(c.Request.Context(), site, c.Param("classId"), c.Param("studentId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, history, nil)
}

// ShareHistory godoc
// @Summary WhatsApp message with the attendance history
// @Tags Students
// @Produce json
// @Security BearerAuth
// @Param classId path string true "Class ID"
// @Param studentId path string true "Student ID"
// @Success 200 {object} response.Envelope
// @Router /classes/{classId}/students/{studentId}/history/whatsapp [get]
func (h *StudentHandler) ShareHistory(c *gin.Context) {
	site, _, err := siteScope(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	res, err := h.history.Share(c.Request.Context(), site, c.Param("classId"), c.Param("studentId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, res, nil)
}
