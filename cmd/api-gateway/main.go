package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	_ "github.com/noah-isme/class-control-api/api/swagger"
	"github.com/noah-isme/class-control-api/internal/repository"
	"github.com/noah-isme/class-control-api/internal/service"
	"github.com/noah-isme/class-control-api/pkg/cache"
	"github.com/noah-isme/class-control-api/pkg/config"
	"github.com/noah-isme/class-control-api/pkg/crypto"
	"github.com/noah-isme/class-control-api/pkg/database"
	"github.com/noah-isme/class-control-api/pkg/docstore"
	"github.com/noah-isme/class-control-api/pkg/jobs"
	"github.com/noah-isme/class-control-api/pkg/logger"
	"github.com/noah-isme/class-control-api/pkg/storage"
)

// @title Class Control API
// @version 1.0.0
// @description Attendance administration for in-person classes: classes, students, lectures, make-ups and overview exports.
// @BasePath /api/v1
// @schemes http https
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

const shutdownTimeout = 15 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logr); err != nil {
		logr.Fatal("server failed", zap.Error(err))
	}
}

func run(ctx context.Context, cfg *config.Config, logr *zap.Logger) error {
	loc := cfg.Location()
	metrics := service.NewMetricsService()

	var redisClient *redis.Client
	if cfg.Cache.Enabled || cfg.Store.RedisNotifier {
		client, err := cache.NewRedis(ctx, cfg.Redis)
		if err != nil {
			if cfg.Store.RedisNotifier {
				return err
			}
			logr.Warn("redis unavailable, response cache disabled", zap.Error(err))
		} else {
			redisClient = client
			defer client.Close() //nolint:errcheck
		}
	}

	rawStore, closeStore, err := database.OpenStore(ctx, cfg, redisClient, logr)
	if err != nil {
		return err
	}
	defer closeStore()
	store := docstore.NewInstrumented(rawStore, metrics)

	var cipher *crypto.Cipher
	if cfg.Crypto.Key != "" {
		cipher, err = crypto.New(cfg.Crypto.Key)
		if err != nil {
			return fmt.Errorf("crypto key: %w", err)
		}
	} else {
		logr.Warn("CRYPTO_KEY not set, contact numbers are stored in clear text")
	}

	classRepo := repository.NewClassRepository(store)
	studentRepo := repository.NewStudentRepository(store, cipher)
	lectureRepo := repository.NewLectureRepository(store)
	attendanceRepo := repository.NewAttendanceRepository(store)
	makeUpRepo := repository.NewMakeUpRepository(store)
	qrRepo := repository.NewQRSessionRepository(store)
	instructorRepo := repository.NewInstructorRepository(store)
	geographyRepo := repository.NewGeographyRepository(store)
	exportJobRepo := repository.NewExportJobRepository(store)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)
	auditRepo := repository.NewAuditRepository(store)

	cacheSvc := service.NewCacheService(cacheRepo, metrics, cfg.Cache.TTL, logr, cfg.Cache.Enabled && redisClient != nil)
	authSvc := service.NewAuthService(instructorRepo, nil, logr, service.AuthConfig{
		AccessTokenSecret: cfg.JWT.Secret,
		AccessTokenExpiry: cfg.JWT.Expiration,
	})
	qrSvc := service.NewQRAuthService(qrRepo, authSvc, cipher, service.QRAuthConfig{
		SessionTTL:   cfg.QR.SessionTTL,
		CleanupDelay: cfg.QR.CleanupDelay,
		RetryDelay:   cfg.QR.RetryDelay,
	}, logr)
	classSvc := service.NewClassService(classRepo, lectureRepo, logr)
	studentSvc := service.NewStudentService(studentRepo, classRepo, lectureRepo, attendanceRepo, cacheSvc, logr)
	attendanceSvc := service.NewAttendanceService(studentRepo, lectureRepo, attendanceRepo, cacheSvc, logr, service.WithAttendanceLocation(loc))
	cascadeSvc := service.NewCascadeService(store, metrics, cacheSvc, logr)
	transferSvc := service.NewTransferService(store, classRepo, studentRepo, lectureRepo, attendanceRepo, cacheSvc, metrics, logr)
	makeUpSvc := service.NewMakeUpService(makeUpRepo, studentRepo, lectureRepo, attendanceRepo, logr)
	overviewSvc := service.NewOverviewService(classRepo, studentRepo, lectureRepo, attendanceRepo, cacheSvc, logr)
	historySvc := service.NewHistoryService(classRepo, studentRepo, lectureRepo, attendanceRepo, loc, logr)
	checkInSvc := service.NewCheckInService(studentRepo, lectureRepo, attendanceRepo, cacheSvc, metrics, cfg.QR.CheckInBaseURL, loc, logr)
	geographySvc := service.NewGeographyService(geographyRepo, cacheSvc, logr)

	files, err := storage.NewLocalStorage(cfg.Exports.StorageDir)
	if err != nil {
		return fmt.Errorf("export storage: %w", err)
	}
	signer := storage.NewSignedURLSigner(cfg.Exports.SignedURLSecret, cfg.Exports.SignedURLTTL)
	exportSvc := service.NewExportService(overviewSvc, files, signer, service.ExportConfig{
		APIPrefix: cfg.APIPrefix,
		ResultTTL: cfg.Exports.SignedURLTTL,
	}, logr, nil, nil)
	worker := service.NewExportWorker(exportJobRepo, exportSvc, metrics, logr)
	queue := jobs.NewQueue("overview-exports", worker.Handle, jobs.QueueConfig{
		Workers:     cfg.Exports.WorkerConcurrency,
		MaxRetries:  cfg.Exports.WorkerRetries,
		RetryDelay:  2 * time.Second,
		Logger:      logr,
		OnExhausted: worker.Exhausted,
	})
	queue.Start(ctx)
	defer queue.Stop()
	exportJobSvc := service.NewExportJobService(exportJobRepo, classRepo, queue, exportSvc, metrics, logr, service.ExportJobConfig{
		ResultTTL:       cfg.Exports.SignedURLTTL,
		CleanupInterval: cfg.Exports.CleanupInterval,
	})
	exportJobSvc.StartCleanup(ctx)

	deps := routeDeps{
		cfg:        cfg,
		logger:     logr,
		metrics:    metrics,
		store:      store,
		audit:      auditRepo,
		auth:       authSvc,
		qr:         qrSvc,
		classes:    classSvc,
		students:   studentSvc,
		attendance: attendanceSvc,
		cascade:    cascadeSvc,
		transfer:   transferSvc,
		makeUps:    makeUpSvc,
		overview:   overviewSvc,
		history:    historySvc,
		checkIn:    checkInSvc,
		geography:  geographySvc,
		exports:    exportJobSvc,
	}

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           newRouter(deps),
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logr.Info("server starting",
			zap.String("addr", server.Addr),
			zap.String("env", cfg.Env),
			zap.String("store", cfg.Store.Backend),
		)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			return err
		}
	case <-ctx.Done():
	}

	logr.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logr.Error("http shutdown", zap.Error(err))
	}
	qrSvc.Shutdown(shutdownCtx)
	return nil
}
