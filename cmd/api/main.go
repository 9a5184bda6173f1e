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

	"github.com/noah-isme/mitra-laporan-api/internal/handler"
	"github.com/noah-isme/mitra-laporan-api/internal/repository"
	"github.com/noah-isme/mitra-laporan-api/internal/service"
	"github.com/noah-isme/mitra-laporan-api/pkg/cache"
	"github.com/noah-isme/mitra-laporan-api/pkg/config"
	"github.com/noah-isme/mitra-laporan-api/pkg/database"
	"github.com/noah-isme/mitra-laporan-api/pkg/jobs"
	"github.com/noah-isme/mitra-laporan-api/pkg/logger"
	"github.com/noah-isme/mitra-laporan-api/pkg/storage"
)

// @title Mitra Laporan API
// @version 1.0.0
// @description Partner contracts, work items and daily field reports with photo evidence
// @BasePath /api/v1
// @schemes http https
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

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

	if err := run(cfg, logr); err != nil {
		logr.Fatal("server failed", zap.Error(err))
	}
}

func run(cfg *config.Config, logr *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer db.Close() //nolint:errcheck

	metrics := service.NewMetricsService()

	var redisClient redis.UniversalClient
	if cfg.Cache.Enabled {
		client, err := cache.NewRedis(cfg.Redis)
		if err != nil {
			logr.Warn("redis unavailable, serving without cache", zap.Error(err))
		} else {
			redisClient = client
		}
	}
	cacheRepo := repository.NewCacheRepository(redisClient, logr)
	defer cacheRepo.Close() //nolint:errcheck
	cacheSvc := service.NewCacheService(cacheRepo, metrics, cfg.Cache.TTL, logr, redisClient != nil)

	files, err := storage.NewLocalStorage(cfg.Attachments.StorageDir)
	if err != nil {
		return fmt.Errorf("open attachment storage: %w", err)
	}
	signer := storage.NewSignedURLSigner(cfg.Attachments.SignedURLSecret, cfg.Attachments.SignedURLTTL)

	mitraRepo := repository.NewMitraRepository(db)
	kontrakRepo := repository.NewKontrakRepository(db)
	pekerjaanRepo := repository.NewPekerjaanRepository(db)
	laporanRepo := repository.NewLaporanRepository(db)
	inboxRepo := repository.NewInboxRepository(db)

	attachments := service.NewAttachmentService(files, laporanRepo, signer, metrics, logr.Named("attachments"), service.AttachmentConfig{
		MaxFileSize:   cfg.Attachments.MaxFileSizeBytes,
		AllowedMIMEs:  cfg.Attachments.AllowedMIMEs,
		ThumbnailSize: cfg.Attachments.ThumbnailSize,
		OrphanGrace:   cfg.Attachments.OrphanGracePeriod,
		DownloadPath:  cfg.APIPrefix + "/lampiran/download",
	})
	reaper := jobs.NewQueue("attachment-reaper", attachments.HandleReapJob, jobs.QueueConfig{
		Workers:    cfg.Reaper.Workers,
		MaxRetries: cfg.Reaper.MaxRetries,
		RetryDelay: cfg.Reaper.RetryDelay,
		Logger:     logr,
		OnExhausted: func(job jobs.Job, err error) {
			logr.Error("attachment delete abandoned; left for the orphan sweep", zap.String("ref", job.Payload), zap.Error(err))
		},
	})
	reaper.Start(ctx)
	defer reaper.Stop()
	metrics.TrackQueue("attachment-reaper", reaper.Pending)
	attachments.SetReaper(reaper)

	partners := service.NewPartnerService(mitraRepo, cacheSvc, nil, logr.Named("mitra"))
	contracts := service.NewContractService(kontrakRepo, mitraRepo, cacheSvc, nil, logr.Named("kontrak"))
	workItems := service.NewWorkItemService(pekerjaanRepo, mitraRepo, kontrakRepo, cacheSvc, nil, logr.Named("pekerjaan"))
	reports := service.NewReportService(laporanRepo, workItems, attachments, cacheSvc, metrics, nil, logr.Named("laporan"), service.ReportConfig{
		UploadTimeout:    cfg.Attachments.UploadTimeout,
		StoreConcurrency: cfg.Attachments.StoreConcurrency,
	})
	inbox := service.NewInboxService(inboxRepo, cacheSvc, nil, logr.Named("inbox"))
	exports := service.NewExportService(reports, nil, nil, logr.Named("export"))
	access := service.NewAccessService(cfg.JWT.Secret)

	checks := map[string]handler.Pinger{"postgres": handler.PingFunc(db.PingContext)}
	if redisClient != nil {
		checks["redis"] = cacheRepo
	}

	router := newRouter(cfg, logr, routerDeps{
		access:      access,
		metrics:     metrics,
		partners:    handler.NewPartnerHandler(partners),
		contracts:   handler.NewContractHandler(contracts, workItems),
		reports:     handler.NewReportHandler(reports, exports, attachments, submissionLimit(cfg.Attachments.MaxFileSizeBytes)),
		attachments: handler.NewAttachmentHandler(attachments),
		inbox:       handler.NewInboxHandler(inbox),
		health:      handler.NewMetricsHandler(metrics, checks),
	})

	go sweepOrphans(ctx, attachments, cfg.Attachments.SweepInterval, logr)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		logr.Info("server starting", zap.String("addr", srv.Addr), zap.String("env", cfg.Env))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logr.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// submissionLimit bounds a whole multipart report: up to two photos for each of a generous
// number of activities plus the JSON part.
func submissionLimit(maxFile int64) int64 {
	if maxFile <= 0 {
		return 0
	}
	return maxFile*40 + 1<<20
}

func sweepOrphans(ctx context.Context, attachments *service.AttachmentService, interval time.Duration, logr *zap.Logger) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := attachments.SweepOrphans(ctx); err != nil && ctx.Err() == nil {
				logr.Warn("orphan sweep failed", zap.Error(err))
			}
		}
	}
}
