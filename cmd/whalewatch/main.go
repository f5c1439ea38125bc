package main

import (
	"context"
	"fmt"
	"net/http"
	"net/http/pprof"
	"os"
	"os/signal"
	"syscall"
	"time"

	"whalewatch/internal/app/service"
	"whalewatch/internal/client"
	"whalewatch/internal/config"
	"whalewatch/internal/infrastructure/restapi"
	"whalewatch/internal/pkg/logger"
	"whalewatch/internal/pkg/metrics"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

func main() {
	cfgPath := getEnv("CONFIG_PATH", "config/config.yaml")
	cfg, err := config.LoadConfig(cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	zl, err := logger.New(cfg.Logging.Level)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer zl.Sync()

	zl.Info("Configuration loaded", zap.String("path", cfgPath))

	metrics.MustRegisterMetrics()

	api := client.NewWhaleAPIClient(client.Options{
		BaseURL:      cfg.Upstream.BaseURL,
		BulkTimeout:  time.Duration(cfg.Upstream.BulkTimeoutMillis) * time.Millisecond,
		ProbeTimeout: time.Duration(cfg.Upstream.ProbeTimeoutMillis) * time.Millisecond,
		MaxAttempts:  cfg.Upstream.MaxRetryAttempts,
		RetryDelay:   time.Duration(cfg.Upstream.RetryDelayMillis) * time.Millisecond,
		RateLimit:    rate.Limit(cfg.Upstream.RateLimit),
		RateBurst:    cfg.Upstream.RateBurst,
	}, zl)
	zl.Info("Upstream client initialized", zap.String("baseURL", cfg.Upstream.BaseURL))

	store := service.NewStore()
	scheduler := service.NewRefreshScheduler(
		api,
		store,
		time.Duration(cfg.Scheduler.RefreshIntervalMillis)*time.Millisecond,
		cfg.Scheduler.TradesLimit,
		logger.NewZapAdapter(zl, "RefreshScheduler"),
	)
	mutator := service.NewMutationCoordinator(api, scheduler, logger.NewZapAdapter(zl, "MutationCoordinator"))
	alerting := service.NewAlertingService(
		api,
		store,
		time.Duration(cfg.Alerting.CacheTTLSeconds)*time.Second,
		logger.NewZapAdapter(zl, "AlertingService"),
	)

	scheduler.Start(context.Background())
	defer scheduler.Stop()

	gin.SetMode(gin.ReleaseMode)
	handler := restapi.NewWhaleHandler(store, scheduler, mutator, alerting)
	router := restapi.SetupRouter(handler, zl)

	pprofRouter := router.Group("/debug/pprof")
	{
		pprofRouter.GET("/", gin.WrapF(pprof.Index))
		pprofRouter.GET("/cmdline", gin.WrapF(pprof.Cmdline))
		pprofRouter.GET("/profile", gin.WrapF(pprof.Profile))
		pprofRouter.GET("/symbol", gin.WrapF(pprof.Symbol))
		pprofRouter.GET("/trace", gin.WrapF(pprof.Trace))
		pprofRouter.GET("/goroutine", gin.WrapH(pprof.Handler("goroutine")))
		pprofRouter.GET("/heap", gin.WrapH(pprof.Handler("heap")))
	}

	srv := &http.Server{
		Addr:         cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
	}

	go func() {
		zl.Info("Server starting", zap.String("addr", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zl.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	zl.Info("Shutting down...")

	scheduler.Stop()

	ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()
	if err := srv.Shutdown(ctxShutdown); err != nil {
		zl.Error("Server forced to shutdown", zap.Error(err))
	}

	zl.Info("Server exiting")
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
