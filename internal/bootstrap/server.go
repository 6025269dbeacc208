package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/Domenick1991/pitchbooking/api"
	"github.com/Domenick1991/pitchbooking/config"
	"github.com/Domenick1991/pitchbooking/internal/metrics"
	"github.com/Domenick1991/pitchbooking/internal/service/booking"
	"github.com/Domenick1991/pitchbooking/internal/service/notify"
	"github.com/Domenick1991/pitchbooking/internal/service/venues"
	"github.com/Domenick1991/pitchbooking/internal/shell"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
)

// Services are the use cases exposed over HTTP.
type Services struct {
	Bookings      booking.BookingUseCase
	Venues        venues.VenueUseCase
	Notifications notify.NotificationUseCase
	Session       shell.SessionUseCase
}

// Run starts the HTTP server and blocks until ctx is cancelled or the server fails.
func Run(ctx context.Context, cfg *config.Config, svc Services, log logrus.FieldLogger) error {
	srv := &http.Server{
		Addr:              cfg.HTTP.Address,
		Handler:           NewRouter(svc, log),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.WithField("addr", cfg.HTTP.Address).Info("http server listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown http server: %w", err)
		}
		return nil
	}
}

func NewRouter(svc Services, log logrus.FieldLogger) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), requestLogger(log))

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{})))

	v1 := router.Group("/api/v1")
	api.NewSessionHandler(svc.Session).Register(v1.Group("/session"))
	api.NewNotificationHandler(svc.Notifications).Register(v1.Group("/notifications"))
	api.NewBookingHandler(svc.Bookings, svc.Session).Register(v1.Group("/bookings"))
	api.NewVenueHandler(svc.Venues).Register(v1.Group("/venues"))
	return router
}

func requestLogger(log logrus.FieldLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.WithFields(logrus.Fields{
			"method": c.Request.Method,
			"path":   c.FullPath(),
			"status": c.Writer.Status(),
			"took":   time.Since(start),
		}).Debug("request")
	}
}
