package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"optionsync/internal/config"
	"optionsync/internal/container"
	"optionsync/internal/domain"
	"optionsync/internal/handler"
	"optionsync/internal/service"
	"optionsync/pkg/auth"
	"optionsync/pkg/logger"
)

// Resources holds all resources that need cleanup
type Resources struct {
	container *container.Container
	server    *http.Server
	log       *logger.Logger
	mu        sync.Mutex
	closed    bool
}

// Cleanup gracefully closes all resources
func (r *Resources) Cleanup(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return nil
	}
	r.closed = true

	var errors []error

	r.log.Info("Starting graceful shutdown...")

	// Shutdown HTTP server first to stop accepting payment returns
	if r.server != nil {
		r.log.Info("Shutting down HTTP server...")
		if err := r.server.Shutdown(ctx); err != nil {
			r.log.WithError(err).Error("Failed to shutdown HTTP server")
			errors = append(errors, fmt.Errorf("HTTP server shutdown: %w", err))
		} else {
			r.log.Info("HTTP server shutdown complete")
		}
	}

	// Leave realtime channels and close Redis
	if r.container != nil {
		r.log.Info("Closing sessions and Redis connection...")
		if err := r.container.Close(); err != nil {
			r.log.WithError(err).Error("Failed to close container")
			errors = append(errors, fmt.Errorf("container close: %w", err))
		} else {
			r.log.Info("Sessions closed successfully")
		}
	}

	if len(errors) > 0 {
		r.log.WithField("error_count", len(errors)).Error("Cleanup completed with errors")
		return fmt.Errorf("cleanup completed with %d errors: %v", len(errors), errors)
	}

	r.log.Info("Graceful shutdown completed successfully")
	return nil
}

// logNavigator prints the payment page instead of opening a browser
type logNavigator struct {
	log *logger.Logger
}

func (n logNavigator) Navigate(_ context.Context, url string) error {
	n.log.WithField("url", url).Info("Open this page to sign up and pay")
	return nil
}

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log, err := logger.New(cfg.LogLevel)
	if err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	viewer := auth.ViewerFromToken(cfg.AccessToken, cfg.JWTSecret)

	log.WithFields(map[string]interface{}{
		"api_base_url":  cfg.APIBaseURL,
		"return_addr":   cfg.ReturnAddr,
		"log_level":     cfg.LogLevel,
		"environment":   cfg.Environment,
		"authenticated": viewer.Authenticated,
	}).Info("Starting optionsync")

	// Create dependency injection container
	c, err := container.New(cfg, log)
	if err != nil {
		log.WithError(err).Fatal("Failed to create container")
	}

	server := &http.Server{
		Addr:           cfg.ReturnAddr,
		Handler:        handler.NewRouter(c),
		ReadTimeout:    10 * time.Second,
		WriteTimeout:   60 * time.Second,
		IdleTimeout:    120 * time.Second,
		MaxHeaderBytes: 1 << 20,
	}

	resources := &Resources{
		container: c,
		server:    server,
		log:       log,
	}

	// Setup graceful shutdown handling
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM, os.Interrupt)

	defer func() {
		cleanupCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := resources.Cleanup(cleanupCtx); err != nil {
			log.WithError(err).Error("Cleanup completed with errors")
		}
	}()

	if cfg.PostUUID != "" {
		if err := mountPost(c, cfg, viewer, log); err != nil {
			log.WithError(err).Error("Failed to mount post")
		}
	} else {
		log.Info("POST_UUID not configured, serving payment returns only")
	}

	serverErrChan := make(chan error, 1)
	go func() {
		log.Info("Payment return server listening on " + cfg.ReturnAddr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Error("Server error occurred")
			serverErrChan <- err
		}
	}()

	select {
	case sig := <-quit:
		log.WithField("signal", sig.String()).Info("Received shutdown signal")
	case err := <-serverErrChan:
		log.WithError(err).Error("Server failed, initiating shutdown")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 25*time.Second)
	defer cancel()

	if err := resources.Cleanup(shutdownCtx); err != nil {
		log.WithError(err).Error("Graceful shutdown completed with errors")
		os.Exit(1)
	}

	log.Info("Application shutdown complete")
}

// mountPost opens the configured post, loads every page and logs the ranked
// list whenever it changes
func mountPost(c *container.Container, cfg *config.Config, viewer domain.Viewer, log *logger.Logger) error {
	ctx, cancel := context.WithTimeout(context.Background(), cfg.RequestTimeout*5)
	defer cancel()

	session, err := c.OpenSession(ctx, cfg.PostUUID, viewer, service.FixedBundleBalance(cfg.BundleBalance), logNavigator{log: log})
	if err != nil {
		return err
	}

	postLog := log.WithField("post_uuid", cfg.PostUUID)
	session.Store().OnChange(func(options []domain.Option) {
		top := make([]string, 0, 3)
		for i := 0; i < len(options) && i < 3; i++ {
			top = append(top, fmt.Sprintf("%d:%s(%d)", options[i].ID, options[i].Text, options[i].VoteCount))
		}
		postLog.WithFields(map[string]interface{}{
			"count": len(options),
			"top":   top,
		}).Info("Option list updated")
	})

	pages, err := session.Pager().LoadAll(ctx, 0)
	if err != nil {
		return err
	}

	summary := session.Summary()
	postLog.WithFields(map[string]interface{}{
		"pages":        pages,
		"options":      session.Store().Len(),
		"total_votes":  summary.TotalVotes,
		"free_votes":   summary.FreeVotesRemaining,
		"realtime":     c.Hub.Enabled(),
		"author_is_me": viewer.ID != "" && viewer.ID == summary.AuthorID,
	}).Info("Post mounted")
	return nil
}
