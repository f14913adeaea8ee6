// Package web serves a small JSON API over the request parser and the run
// history.
package web

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/example/tablebook/internal/clock"
	"github.com/example/tablebook/internal/runs"
)

// RunStore is the read side of the run history.
type RunStore interface {
	List(ctx context.Context, limit int) ([]runs.Run, error)
	Get(ctx context.Context, id uuid.UUID) (runs.Run, error)
}

type Server struct {
	// Runs is optional; without it the run endpoints answer 503.
	Runs     RunStore
	Clock    clock.Clock
	Location *time.Location
	Log      *slog.Logger
}

func (s *Server) Routes() http.Handler {
	if s.Log == nil {
		s.Log = slog.Default()
	}
	if s.Clock == nil {
		s.Clock = clock.NewSystem()
	}

	r := gin.New()
	r.Use(recovery(s.Log), requestLog(s.Log))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.POST("/intents", s.parseIntent)
	r.GET("/runs", s.listRuns)
	r.GET("/runs/:id", s.getRun)

	return r
}

func Start(ctx context.Context, addr string, h http.Handler, log *slog.Logger) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()
	log.Info("listening", "addr", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
