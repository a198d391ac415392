/**
 * Copyright 2025-present Coinbase Global, Inc.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *  http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"stream-earn-go/internal/common"
	"stream-earn-go/internal/config"
	"stream-earn-go/internal/httpapi"
	"stream-earn-go/internal/jobs"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"
)

func main() {
	addrFlag := flag.String("addr", "", "Listen address (overrides HTTP_ADDR)")
	noJobs := flag.Bool("no-jobs", false, "Disable the reconcile and ban sweep jobs")
	flag.Parse()

	_, loggerCleanup := common.InitializeLogger()
	defer loggerCleanup()

	cfg, err := config.Load()
	if err != nil {
		zap.L().Fatal("Failed to load configuration", zap.Error(err))
	}
	if *addrFlag != "" {
		cfg.Server.Addr = *addrFlag
	}
	if *noJobs {
		cfg.Jobs.Enabled = false
	}

	if cfg.Auth.JWTSecret == "" {
		zap.L().Fatal("JWT_SECRET must be set")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	zap.L().Info("Starting stream-earn server")

	services, err := common.InitializeServices(ctx, cfg)
	if err != nil {
		zap.L().Fatal("Failed to initialize services", zap.Error(err))
	}
	defer services.Close()

	if cfg.Jobs.Enabled {
		scheduler, err := jobs.Start(cfg.Jobs, services.LedgerService)
		if err != nil {
			zap.L().Fatal("Failed to start jobs", zap.Error(err))
		}
		defer func() {
			<-scheduler.Stop().Done()
		}()
	}

	gin.SetMode(gin.ReleaseMode)
	var limiter *httpapi.RateLimiter
	if cfg.Server.RateLimit > 0 {
		limiter = httpapi.NewRateLimiter(cfg.Server.RateLimit, cfg.Server.RateWindow)
		go sweepLimiter(ctx, limiter, cfg.Server.RateWindow)
	}

	var handler http.Handler = httpapi.NewRouter(services.LedgerService, cfg.Auth, limiter)
	if cfg.Server.EnableH2C {
		handler = h2c.NewHandler(handler, &http2.Server{})
	}

	srv := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	errChan := make(chan error, 1)
	go func() {
		zap.L().Info("HTTP server listening",
			zap.String("addr", cfg.Server.Addr),
			zap.Bool("h2c", cfg.Server.EnableH2C))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-sigChan:
		zap.L().Info("Shutdown signal received, stopping server...")
	case err := <-errChan:
		zap.L().Error("HTTP server failed", zap.Error(err))
	}

	cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		zap.L().Warn("Forced shutdown after timeout", zap.Error(err))
		return
	}
	zap.L().Info("Server stopped gracefully")
}

func sweepLimiter(ctx context.Context, limiter *httpapi.RateLimiter, interval time.Duration) {
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			limiter.Sweep()
		}
	}
}
