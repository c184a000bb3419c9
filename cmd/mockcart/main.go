// Command mockcart serves an in-memory cart service implementing the remote
// wire contract, for local development against the sync engine.
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

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/storefront/cartsync/internal/infrastructure/logger"
	"github.com/storefront/cartsync/internal/mockcart"
)

func main() {
	addr := flag.String("addr", ":8090", "listen address")
	env := flag.String("env", "development", "logging environment")
	failAll := flag.String("fail", "", "initial failure mode for every operation (unavailable, rejected, malformed)")
	flag.Parse()

	log, err := logger.NewForEnvironment(*env)
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = log.Sync()
	}()

	gin.SetMode(gin.ReleaseMode)

	srv := mockcart.New(mockcart.WithLogger(log))
	if *failAll != "" {
		mode, err := mockcart.ParseFailure(*failAll)
		if err != nil {
			log.Fatal("Invalid failure mode", zap.Error(err))
		}
		srv.SetFailure(mockcart.OpAll, mode)
	}

	httpSrv := &http.Server{
		Addr:              *addr,
		Handler:           srv.Handler(logger.Recovery(log), logger.GinMiddleware(log)),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Info("Mock cart service starting", zap.String("addr", httpSrv.Addr))
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(ctx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}
}
