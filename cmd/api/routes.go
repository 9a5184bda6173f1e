package main

import (
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/mitra-laporan-api/api/swagger"
	"github.com/noah-isme/mitra-laporan-api/internal/handler"
	"github.com/noah-isme/mitra-laporan-api/internal/middleware"
	"github.com/noah-isme/mitra-laporan-api/internal/models"
	"github.com/noah-isme/mitra-laporan-api/internal/service"
	"github.com/noah-isme/mitra-laporan-api/pkg/config"
	"github.com/noah-isme/mitra-laporan-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/mitra-laporan-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/mitra-laporan-api/pkg/middleware/requestid"
)

type routerDeps struct {
	access      middleware.TokenValidator
	metrics     *service.MetricsService
	partners    *handler.PartnerHandler
	contracts   *handler.ContractHandler
	reports     *handler.ReportHandler
	attachments *handler.AttachmentHandler
	inbox       *handler.InboxHandler
	health      *handler.MetricsHandler
}

func newRouter(cfg *config.Config, logr *zap.Logger, d routerDeps) *gin.Engine {
	r := gin.New()
	// Contract numbers such as "001/SPK/2024" travel as one escaped path segment.
	r.UseRawPath = true
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(d.metrics))

	r.GET("/health", d.health.Health)
	r.GET("/ready", d.health.Ready)
	r.GET("/metrics", d.health.Prometheus)
	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix, middleware.Timeout(cfg.RequestTimeout), middleware.WithResponseMeta())
	api.GET("/lampiran/download", d.attachments.Download)

	audit := logr
	admin := middleware.RequireRoles(models.RoleAdmin)
	anyRole := middleware.RequireRoles(models.RoleAdmin, models.RoleMitra)

	secured := api.Group("", middleware.JWT(d.access))
	secured.POST("/mitra", admin, middleware.Audit(audit, "create", "mitra"), d.partners.Create)
	secured.GET("/mitra", anyRole, d.partners.List)
	secured.GET("/mitra/:nama", anyRole, d.partners.Get)

	secured.POST("/kontrak", admin, middleware.Audit(audit, "create", "kontrak"), d.contracts.Create)
	secured.GET("/kontrak", anyRole, d.contracts.List)
	secured.GET("/kontrak/pekerjaan", anyRole, d.contracts.WorkItems)
	secured.GET("/kontrak/:nomor", anyRole, d.contracts.Get)
	secured.POST("/kontrak/pekerjaan", admin, middleware.Audit(audit, "create", "pekerjaan"), d.contracts.AddWorkItem)

	secured.POST("/laporan", anyRole, middleware.Audit(audit, "create", "laporan"), d.reports.Submit)
	secured.GET("/laporan", anyRole, d.reports.List)
	secured.GET("/laporan/:id", anyRole, d.reports.Get)
	secured.GET("/laporan/:id/export", anyRole, d.reports.Export)

	secured.POST("/inbox", anyRole, middleware.Audit(audit, "create", "inbox"), d.inbox.Create)
	secured.GET("/inbox", anyRole, d.inbox.List)

	return r
}
