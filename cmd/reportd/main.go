package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"wbledger/internal/client/wb"
	"wbledger/internal/config"
	cronrunner "wbledger/internal/cron"
	"wbledger/internal/db"
	"wbledger/internal/fetch"
	"wbledger/internal/handler"
	"wbledger/internal/logger"
	"wbledger/internal/progress"
	"wbledger/internal/report"
	gormrepository "wbledger/internal/repository/gorm"
)

func main() {
	cfgPath := os.Getenv("WBR_CONFIG")
	if cfgPath == "" {
		cfgPath = "config/config.yaml"
	}

	envOnly := false
	if envOnlyRaw := os.Getenv("WBR_ENV_ONLY"); envOnlyRaw != "" {
		envOnly = strings.EqualFold(envOnlyRaw, "true") || envOnlyRaw == "1"
	}

	cfg, err := config.Load(cfgPath, envOnly)
	if err != nil {
		panic(err)
	}

	logger, err := logger.New(cfg.Log)
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	dbConn, err := db.Open(cfg.DB)
	if err != nil {
		logger.Fatal("db open failed", zap.Error(err))
	}
	defer db.Close(dbConn)

	if err := db.SetTimezone(dbConn, cfg.DB.Timezone); err != nil {
		logger.Warn("failed to set timezone", zap.Error(err))
	}
	if err := db.AutoMigrate(dbConn); err != nil {
		logger.Fatal("auto-migrate failed", zap.Error(err))
	}

	wbHTTP := &http.Client{Timeout: cfg.WB.Timeout}
	wbClient := wb.NewClient(wbHTTP, wb.Hosts{
		Statistics: cfg.WB.StatisticsBaseURL,
		Content:    cfg.WB.ContentBaseURL,
		Analytics:  cfg.WB.AnalyticsBaseURL,
		Advert:     cfg.WB.AdvertBaseURL,
	})
	store := gormrepository.New(dbConn.Gorm)

	cardSvc := &fetch.CardService{
		Client:    wbClient,
		Logger:    logger,
		PageLimit: cfg.Report.CardsPageLimit,
	}
	reportSvc := &report.Service{
		Sales: &fetch.SalesService{
			Client:    wbClient,
			Logger:    logger,
			PageLimit: cfg.Report.SalesPageLimit,
			PageDelay: cfg.Report.SalesPageDelay,
		},
		Cards: cardSvc,
		Storage: &fetch.StorageService{
			Client:       wbClient,
			Cards:        cardSvc,
			Logger:       logger,
			PollInterval: cfg.Report.TaskPollInterval,
			MaxPolls:     cfg.Report.TaskMaxPolls,
		},
		Acceptance: &fetch.AcceptanceService{
			Client:       wbClient,
			Logger:       logger,
			PollInterval: cfg.Report.TaskPollInterval,
			MaxPolls:     cfg.Report.TaskMaxPolls,
		},
		Adverts: &fetch.AdvertService{
			Client:       wbClient,
			Logger:       logger,
			LookbackDays: cfg.Report.AdvertLookbackDays,
		},
		Logger:    logger,
		OutputDir: cfg.Report.OutputDir,
	}
	supervisor := &report.Supervisor{
		Generate:     reportSvc.Generate,
		Logger:       logger,
		TickInterval: cfg.Report.ProgressInterval,
		MaxTicks:     cfg.Report.ProgressMaxTicks,
	}

	if strings.EqualFold(cfg.App.Env, "dev") {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(corsMiddleware())

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	hub := progress.NewHub()
	healthHandler := &handler.HealthHandler{DB: dbConn.Gorm}
	healthHandler.Register(engine)
	reportHandler := &handler.ReportHandler{
		Repo:       store,
		Supervisor: supervisor,
		Hub:        hub,
		Logger:     logger,
		BaseCtx:    ctx,
	}
	reportHandler.Register(engine)

	cronRunner := cronrunner.New(logger, ctx)
	if cfg.Cron.Enabled {
		cleanup := &report.CleanupService{
			Repo:      store,
			Logger:    logger,
			Retention: cfg.Report.Retention,
		}
		_, err := cronRunner.Add(cfg.Cron.ArtifactCleanup, func(ctx context.Context) {
			n, err := cleanup.Purge(ctx)
			if err != nil {
				logger.Warn("artifact cleanup failed", zap.Error(err))
				return
			}
			if n > 0 {
				logger.Info("purged expired report artifacts", zap.Int("count", n))
			}
		})
		if err != nil {
			logger.Warn("cron register artifact cleanup failed", zap.Error(err))
		}
		cronRunner.Start()
		defer cronRunner.Stop()
	}

	srv := &http.Server{
		Addr:    cfg.Server.HTTPAddr,
		Handler: engine,
	}

	errCh := make(chan error, 2)

	go func() {
		logger.Info("http server starting", zap.String("addr", cfg.Server.HTTPAddr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutdown requested")
	case err := <-errCh:
		logger.Error("server error", zap.Error(err))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET,POST,PUT,DELETE,OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type,Authorization")
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	}
}
