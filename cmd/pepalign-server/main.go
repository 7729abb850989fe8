// Command pepalign-server provides a REST API for peptide alignment.
//
// Usage:
//
//	pepalign-server [options]
//
// Options:
//
//	-port     Port to listen on (default: 8080)
//	-host     Host to bind to (default: localhost)
//	-scoring  YAML scoring file with the default settings
//	-dev      Human readable development logging
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/aria-lang/pepalign/api/handlers"
	"github.com/aria-lang/pepalign/api/middleware"
	"github.com/aria-lang/pepalign/pkg/pepalign"
)

func main() {
	port := flag.Int("port", 8080, "Port to listen on")
	host := flag.String("host", "localhost", "Host to bind to")
	scoring := flag.String("scoring", "", "YAML scoring file")
	maxDatabase := flag.Int("max-database", 10000, "Largest database accepted by /api/search")
	dev := flag.Bool("dev", false, "Use development logging")
	flag.Parse()

	var logger *zap.Logger
	var err error
	if *dev {
		logger, err = zap.NewDevelopment()
	} else {
		logger, err = zap.NewProduction()
	}
	if err != nil {
		log.Fatalf("can't initialize zap logger: %v", err)
	}
	defer logger.Sync()

	h := handlers.New(logger)
	h.MaxDatabase = *maxDatabase
	if *scoring != "" {
		cfg, err := pepalign.LoadConfig(*scoring)
		if err != nil {
			logger.Fatal("loading scoring", zap.Error(err))
		}
		h.Config = cfg
	}

	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logger(logger))
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(60 * time.Second))

	h.Register(r)

	addr := fmt.Sprintf("%s:%d", *host, *port)
	server := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 75 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	done := make(chan bool, 1)
	quit := make(chan os.Signal, 1)

	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-quit
		logger.Info("server is shutting down")

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		server.SetKeepAlivesEnabled(false)
		if err := server.Shutdown(ctx); err != nil {
			logger.Fatal("could not gracefully shut down", zap.Error(err))
		}
		close(done)
	}()

	logger.Info("pepalign API server starting",
		zap.String("addr", "http://"+addr),
		zap.String("version", pepalign.Version()),
		zap.Stringer("type", h.Config.Type),
		zap.Int("depth", h.Config.Depth))
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatal("could not listen", zap.String("addr", addr), zap.Error(err))
	}

	<-done
	logger.Info("server stopped")
}
