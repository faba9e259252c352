package main

import (
	"context"
	"errors"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"github.com/noah-isme/class-control-api/internal/handler"
	"github.com/noah-isme/class-control-api/internal/middleware"
	"github.com/noah-isme/class-control-api/internal/models"
	"github.com/noah-isme/class-control-api/internal/repository"
	"github.com/noah-isme/class-control-api/internal/service"
	"github.com/noah-isme/class-control-api/pkg/config"
	"github.com/noah-isme/class-control-api/pkg/docstore"
	"github.com/noah-isme/class-control-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/class-control-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/class-control-api/pkg/middleware/requestid"
)

const readinessProbePath = "_system/readiness"

type routeDeps struct {
	cfg     *config.Config
	logger  *zap.Logger
	metrics *service.MetricsService
	store   docstore.Store
	audit   *repository.AuditRepository

	auth       *service.AuthService
	qr         *service.QRAuthService
	classes    *service.ClassService
	students   *service.StudentService
	attendance *service.AttendanceService
	cascade    *service.CascadeService
	transfer   *service.TransferService
	makeUps    *service.MakeUpService
	overview   *service.OverviewService
	history    *service.HistoryService
	checkIn    *service.CheckInService
	geography  *service.GeographyService
	exports    *service.ExportJobService
}

func newRouter(d routeDeps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(d.logger))
	r.Use(corsmiddleware.New(d.cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(d.metrics))
	r.Use(middleware.WithResponseMeta())

	metricsHandler := handler.NewMetricsHandler(d.metrics, storeProbe(d.store))
	authHandler := handler.NewAuthHandler(d.auth, d.qr, d.cfg.APIPrefix)
	geographyHandler := handler.NewGeographyHandler(d.geography)
	classHandler := handler.NewClassHandler(d.classes, d.cascade, d.transfer)
	studentHandler := handler.NewStudentHandler(d.students, d.cascade, d.transfer, d.history)
	attendanceHandler := handler.NewAttendanceHandler(d.attendance, d.checkIn)
	makeUpHandler := handler.NewMakeUpHandler(d.makeUps)
	overviewHandler := handler.NewOverviewHandler(d.overview, d.exports)
	auditHandler := handler.NewAuditHandler(d.audit)

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Ready)
	r.GET("/metrics", metricsHandler.Prometheus)
	if d.cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(d.cfg.APIPrefix)

	auth := api.Group("/auth")
	auth.POST("/login", authHandler.Login)
	auth.POST("/qr/sessions", authHandler.CreateQRSession)
	auth.GET("/qr/sessions/:id/qr.png", authHandler.SessionQR)
	auth.GET("/qr/sessions/:id/events", authHandler.SessionEvents)

	geo := api.Group("/geography/countries")
	geo.GET("", geographyHandler.Countries)
	geo.GET("/:country/states", geographyHandler.States)
	geo.GET("/:country/states/:state/sites", geographyHandler.Sites)

	api.POST("/checkin", attendanceHandler.CheckIn)
	api.GET("/exports/download/:token", overviewHandler.Download)

	secured := api.Group("")
	secured.Use(middleware.JWT(d.auth), middleware.Instructors())

	secured.POST("/auth/qr/sessions/:id/complete", authHandler.CompleteQRSession)
	secured.GET("/system/metrics", metricsHandler.System)
	secured.GET("/audit-logs", auditHandler.List)
	secured.DELETE("/cache/geography", middleware.RequireRoles(models.RoleStateInstructor), geographyHandler.Invalidate)

	classes := secured.Group("/classes")
	classes.GET("", classHandler.List)
	classes.POST("", classHandler.Create)

	class := classes.Group("/:classId")
	class.GET("", classHandler.Get)
	class.PATCH("", classHandler.Update)
	class.DELETE("", middleware.Audit(d.audit, models.AuditActionClassDelete, "class", "classId"), classHandler.Delete)
	class.GET("/transfer-targets", classHandler.TransferTargets)
	class.GET("/lectures", classHandler.Lectures)

	students := class.Group("/students")
	students.GET("", studentHandler.List)
	students.POST("", studentHandler.Create)
	students.PATCH("/:studentId", studentHandler.Update)
	students.DELETE("/:studentId", middleware.Audit(d.audit, models.AuditActionStudentDelete, "student", "studentId"), studentHandler.Delete)
	students.POST("/:studentId/disable", middleware.Audit(d.audit, models.AuditActionStudentDisable, "student", "studentId"), studentHandler.Disable)
	students.POST("/:studentId/enable", middleware.Audit(d.audit, models.AuditActionStudentEnable, "student", "studentId"), studentHandler.Enable)
	students.POST("/:studentId/transfer", middleware.Audit(d.audit, models.AuditActionStudentTransfer, "student", "studentId"), studentHandler.Transfer)
	students.GET("/:studentId/history", studentHandler.History)
	students.GET("/:studentId/history/whatsapp", studentHandler.ShareHistory)

	lecture := class.Group("/lectures/:lectureId")
	lecture.GET("/attendance", attendanceHandler.Reconcile)
	lecture.POST("/attendance/:studentId/toggle", attendanceHandler.Toggle)
	lecture.PUT("/attendance/:studentId/extras", attendanceHandler.Extras)
	lecture.GET("/attendance/:studentId/whatsapp-link", attendanceHandler.MessageLink)
	lecture.GET("/checkin-link", attendanceHandler.CheckInLink)
	lecture.GET("/checkin-qr.png", attendanceHandler.CheckInQR)

	class.GET("/absences", makeUpHandler.Absences)
	makeUps := class.Group("/makeups")
	makeUps.GET("", makeUpHandler.List)
	makeUps.POST("", makeUpHandler.Schedule)
	makeUps.PATCH("/:id", makeUpHandler.Update)
	makeUps.DELETE("/:id", middleware.Audit(d.audit, models.AuditActionMakeUpRemove, "makeup", "id"), makeUpHandler.Remove)
	makeUps.POST("/:id/notified", makeUpHandler.MarkNotified)
	makeUps.GET("/:id/whatsapp-link", makeUpHandler.NotificationLink)

	class.GET("/overview", overviewHandler.Overview)
	class.POST("/overview/exports", overviewHandler.CreateExport)
	secured.GET("/exports/:id", overviewHandler.ExportStatus)

	return r
}

// storeProbe reads a sentinel document; a missing document still proves the
// backend answered.
func storeProbe(store docstore.Store) handler.ReadinessCheck {
	return func(ctx context.Context) error {
		_, err := store.Get(ctx, readinessProbePath)
		if err != nil && !errors.Is(err, docstore.ErrNotFound) {
			return err
		}
		return nil
	}
}
