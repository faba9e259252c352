package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/class-control-api/internal/dto"
	"github.com/noah-isme/class-control-api/internal/models"
	"github.com/noah-isme/class-control-api/internal/service"
	appErrors "github.com/noah-isme/class-control-api/pkg/errors"
	"github.com/noah-isme/class-control-api/pkg/response"
	"github.com/noah-isme/class-control-api/pkg/whatsapp"
)

type attendanceService interface {
	Reconcile(ctx context.Context, site models.SiteRef, classID, lectureID string, fragment int) ([]models.StudentAttendance, error)
	Toggle(ctx context.Context, in service.ToggleInput) (*models.StudentAttendance, error)
	UpdateExtras(ctx context.Context, in service.ExtrasInput) (*models.StudentAttendance, error)
	MessageLink(ctx context.Context, site models.SiteRef, classID, lectureID, studentID string, kind whatsapp.MessageKind) (*dto.NotificationLinkResponse, error)
}

type checkInService interface {
	CheckInLink(ctx context.Context, site models.SiteRef, classID, lectureID string, fragment int, instructor string) (*dto.CheckInLinkResponse, error)
	CheckInQR(ctx context.Context, site models.SiteRef, classID, lectureID string, fragment int, instructor string) ([]byte, error)
	CheckIn(ctx context.Context, req dto.CheckInRequest) (*dto.CheckInResponse, error)
}

// AttendanceHandler exposes per-lecture attendance and self check-in.
type AttendanceHandler struct {
	attendance attendanceService
	checkIn    checkInService
}

// NewAttendanceHandler constructs the handler.
func NewAttendanceHandler(attendance attendanceService, checkIn checkInService) *AttendanceHandler {
	return &AttendanceHandler{attendance: attendance, checkIn: checkIn}
}

// Reconcile godoc
// @Summary Students of the class with their status for a lecture
// @Tags Attendance
// @Produce json
// @Security BearerAuth
// @Param classId path string true "Class ID"
// @Param lectureId path string true "Lecture ID"
// @Param fragment query int false "Fragment number of a fragmented lecture"
// @Success 200 {object} response.Envelope
// @Router /classes/{classId}/lectures/{lectureId}/attendance [get]
func (h *AttendanceHandler) Reconcile(c *gin.Context) {
	site, _, err := siteScope(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	fragment, err := fragmentQuery(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	rows, err := h.attendance.Reconcile(c.Request.Context(), site, c.Param("classId"), c.Param("lectureId"), fragment)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, rows, map[string]interface{}{"total": len(rows)})
}

// Toggle godoc
// @Summary Flip a student between present and absent
// @Tags Attendance
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param classId path string true "Class ID"
// @Param lectureId path string true "Lecture ID"
// @Param studentId path string true "Student ID"
// @Param payload body dto.ToggleAttendanceRequest false "Fragment and local date"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /classes/{classId}/lectures/{lectureId}/attendance/{studentId}/toggle [post]
func (h *AttendanceHandler) Toggle(c *gin.Context) {
	site, claims, err := siteScope(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	var req dto.ToggleAttendanceRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid attendance payload"))
			return
		}
	}
	if req.Fragment == 0 {
		if req.Fragment, err = fragmentQuery(c); err != nil {
			response.Error(c, err)
			return
		}
	}
	row, err := h.attendance.Toggle(c.Request.Context(), service.ToggleInput{
		Site:                    site,
		ClassID:                 c.Param("classId"),
		LectureID:               c.Param("lectureId"),
		StudentID:               c.Param("studentId"),
		Actor:                   actorName(claims),
		ToggleAttendanceRequest: req,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, row, nil)
}

// Extras godoc
// @Summary Record a make-up or late arrival
// @Tags Attendance
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param classId path string true "Class ID"
// @Param lectureId path string true "Lecture ID"
// @Param studentId path string true "Student ID"
// @Param payload body dto.AttendanceExtrasRequest true "Attendance details"
// @Success 200 {object} response.Envelope
// @Router /classes/{classId}/lectures/{lectureId}/attendance/{studentId}/extras [put]
func (h *AttendanceHandler) Extras(c *gin.Context) {
	site, _, err := siteScope(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	var req dto.AttendanceExtrasRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid attendance payload"))
		return
	}
	row, err := h.attendance.UpdateExtras(c.Request.Context(), service.ExtrasInput{
		Site:                    site,
		ClassID:                 c.Param("classId"),
		LectureID:               c.Param("lectureId"),
		StudentID:               c.Param("studentId"),
		AttendanceExtrasRequest: req,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, row, nil)
}

// MessageLink godoc
// @Summary WhatsApp link with a message about the lecture
// @Tags Attendance
// @Produce json
// @Security BearerAuth
// @Param classId path string true "Class ID"
// @Param lectureId path string true "Lecture ID"
// @Param studentId path string true "Student ID"
// @Param kind query string false "conversa, resumo or motivacao"
// @Success 200 {object} response.Envelope
// @Router /classes/{classId}/lectures/{lectureId}/attendance/{studentId}/whatsapp-link [get]
func (h *AttendanceHandler) MessageLink(c *gin.Context) {
	site, _, err := siteScope(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	kind := whatsapp.MessageKind(c.DefaultQuery("kind", string(whatsapp.KindConversation)))
	res, err := h.attendance.MessageLink(c.Request.Context(), site, c.Param("classId"), c.Param("lectureId"), c.Param("studentId"), kind)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, res, nil)
}

// CheckInLink godoc
// @Summary Self check-in link of a lecture
// @Tags Check-in
// @Produce json
// @Security BearerAuth
// @Param classId path string true "Class ID"
// @Param lectureId path string true "Lecture ID"
// @Param fragment query int false "Fragment number"
// @Success 200 {object} response.Envelope
// @Router /classes/{classId}/lectures/{lectureId}/checkin-link [get]
func (h *AttendanceHandler) CheckInLink(c *gin.Context) {
	site, claims, err := siteScope(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	fragment, err := fragmentQuery(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	res, err := h.checkIn.CheckInLink(c.Request.Context(), site, c.Param("classId"), c.Param("lectureId"), fragment, actorName(claims))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, res, nil)
}

// CheckInQR godoc
// @Summary QR code of the self check-in link
// @Tags Check-in
// @Produce png
// @Security BearerAuth
// @Param classId path string true "Class ID"
// @Param lectureId path string true "Lecture ID"
// @Param fragment query int false "Fragment number"
// @Success 200 {file} binary
// @Router /classes/{classId}/lectures/{lectureId}/checkin-qr.png [get]
func (h *AttendanceHandler) CheckInQR(c *gin.Context) {
	site, claims, err := siteScope(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	fragment, err := fragmentQuery(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	png, err := h.checkIn.CheckInQR(c.Request.Context(), site, c.Param("classId"), c.Param("lectureId"), fragment, actorName(claims))
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Cache-Control", "no-store")
	c.Data(http.StatusOK, "image/png", png)
}

// CheckIn godoc
// @Summary Student self check-in
// @Description The code is the first name followed by the last 4 digits of the WhatsApp number
// @Tags Check-in
// @Accept json
// @Produce json
// @Param payload body dto.CheckInRequest true "Link payload and code"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /checkin [post]
func (h *AttendanceHandler) CheckIn(c *gin.Context) {
	var req dto.CheckInRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid check-in payload"))
		return
	}
	res, err := h.checkIn.CheckIn(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, res, nil)
}
