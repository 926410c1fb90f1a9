package main

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"google.golang.org/grpc"

	httpapi "github.com/toolsascode/wildebeest/internal/api/http"
	pbapi "github.com/toolsascode/wildebeest/internal/api/protobuf"
	"github.com/toolsascode/wildebeest/internal/app"
	"github.com/toolsascode/wildebeest/internal/config"
	"github.com/toolsascode/wildebeest/internal/logger"
	"github.com/toolsascode/wildebeest/internal/queuefactory"
	"github.com/toolsascode/wildebeest/internal/registry"
)

func main() {
	// Load configuration
	cfg, err := config.LoadFromEnv()
	if err != nil {
		logger.Fatalf("Failed to load configuration: %v", err)
	}
	if err := cfg.RequireAPIToken(); err != nil {
		logger.Fatalf("%v", err)
	}

	logger.Info("Initializing wildebeest server...")

	engine, err := app.NewEngine(cfg, registry.GlobalRegistry)
	if err != nil {
		logger.Fatalf("Failed to initialize engine: %v", err)
	}
	exec := engine.Executor

	// Initialize queue if enabled
	if cfg.Queue.Enabled {
		q, err := queuefactory.NewQueue(cfg.Queue)
		if err != nil {
			logger.Fatalf("Failed to create queue: %v", err)
		}
		defer func() { _ = q.Close() }()

		exec.SetQueue(q)
		logger.Infof("Queue enabled (%s) - migrate and jumpstate requests will be queued", cfg.Queue.Type)
	}

	// Initialize HTTP server
	router := gin.New()

	// Custom logger middleware that skips health check endpoints
	router.Use(gin.LoggerWithFormatter(func(param gin.LogFormatterParams) string {
		if param.Path == "/health" || param.Path == "/api/v1/health" || param.Path == "/metrics" {
			return ""
		}
		return fmt.Sprintf("[GIN] %s | %3d | %13v | %15s | %-7s %s\n",
			param.TimeStamp.Format("2006/01/02 - 15:04:05"),
			param.StatusCode,
			param.Latency,
			param.ClientIP,
			param.Method,
			param.Path,
		)
	}))
	router.Use(gin.Recovery())

	router.Use(func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		if origin != "" {
			c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
		} else {
			c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		}
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, Authorization, accept, origin, Cache-Control, X-Executed-By")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET")
		c.Writer.Header().Set("Access-Control-Max-Age", "86400")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	})

	httpHandler := httpapi.NewHandler(exec, cfg.Server.APIToken,
		httpapi.WithTimeout(cfg.Server.ExecTimeout),
		httpapi.WithMetrics(promhttp.HandlerFor(engine.Metrics, promhttp.HandlerOpts{EnableOpenMetrics: true})),
	)
	httpHandler.RegisterRoutes(router)
	router.GET("/health", httpHandler.Health)

	httpServer := &http.Server{
		Addr:              ":" + cfg.Server.HTTPPort,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Infof("Starting HTTP server on port %s", cfg.Server.HTTPPort)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("Failed to start HTTP server: %v", err)
		}
	}()

	// Start gRPC server
	grpcServer := grpc.NewServer(grpc.UnaryInterceptor(pbapi.AuthInterceptor(cfg.Server.APIToken)))
	pbapi.Register(grpcServer, pbapi.NewServer(exec))

	grpcListener, err := net.Listen("tcp", ":"+cfg.Server.GRPCPort)
	if err != nil {
		logger.Fatalf("Failed to listen on gRPC port %s: %v", cfg.Server.GRPCPort, err)
	}

	go func() {
		logger.Infof("Starting gRPC server on port %s", cfg.Server.GRPCPort)
		if err := grpcServer.Serve(grpcListener); err != nil {
			logger.Fatalf("Failed to start gRPC server: %v", err)
		}
	}()

	logger.Info("Wildebeest server started successfully")
	logger.Infof("HTTP API available at http://localhost:%s/api/v1", cfg.Server.HTTPPort)
	logger.Infof("gRPC API available at localhost:%s", cfg.Server.GRPCPort)

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down servers...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(ctx); err != nil {
		logger.Warnf("HTTP server forced to shutdown: %v", err)
	}
	grpcServer.GracefulStop()

	logger.Info("Servers exited")
}
