// Package api exposes migration runs over HTTP.
package api

import (
	"context"
	"log/slog"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"

	"example.com/sakila-migration/internal/migration"
	"example.com/sakila-migration/internal/models"
)

// Migrator runs one migration and reports on it.
type Migrator interface {
	Run(ctx context.Context) *migration.Report
}

// ResetFunc clears everything a migration writes.
type ResetFunc func(ctx context.Context) (migration.ResetResult, error)

// API serves the migration endpoints. At most one migration or reset runs at a time.
type API struct {
	migrator Migrator
	reset    ResetFunc
	metrics  http.Handler
	logger   *slog.Logger

	running sync.Mutex

	mu   sync.RWMutex
	last *migration.Report
}

// NewAPI creates an API. metrics may be nil, in which case /metrics is not served.
func NewAPI(migrator Migrator, reset ResetFunc, metrics http.Handler, logger *slog.Logger) *API {
	if logger == nil {
		logger = slog.Default()
	}
	return &API{migrator: migrator, reset: reset, metrics: metrics, logger: logger}
}

// RegisterRoutes sets up the routes for the migration service.
func (a *API) RegisterRoutes(router *gin.Engine) {
	router.GET("/health", a.health)
	if a.metrics != nil {
		router.GET("/metrics", gin.WrapH(a.metrics))
	}

	v1 := router.Group("/api/v1/migrations")
	{
		v1.POST("/trigger", a.trigger)
		v1.POST("/reset", a.resetHandler)
		v1.GET("/last", a.lastReport)
	}
}

func (a *API) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// trigger runs a migration synchronously and returns its report. The status
// is 200 whenever the run finished, whatever its outcome. A run is not
// cancelled when the client goes away.
func (a *API) trigger(c *gin.Context) {
	if !a.running.TryLock() {
		respondWithError(c, http.StatusConflict, models.ErrorCodeRunInProgress, "A migration or reset is already running.", nil)
		return
	}
	defer a.running.Unlock()

	a.logger.Info("migration triggered", "remote", c.ClientIP())
	report := a.migrator.Run(context.WithoutCancel(c.Request.Context()))

	a.mu.Lock()
	a.last = report
	a.mu.Unlock()

	c.JSON(http.StatusOK, report)
}

func (a *API) resetHandler(c *gin.Context) {
	if !a.running.TryLock() {
		respondWithError(c, http.StatusConflict, models.ErrorCodeRunInProgress, "A migration or reset is already running.", nil)
		return
	}
	defer a.running.Unlock()

	a.logger.Info("reset triggered", "remote", c.ClientIP())
	result, err := a.reset(context.WithoutCancel(c.Request.Context()))
	if err != nil {
		respondWithError(c, http.StatusInternalServerError, models.ErrorCodeInternalServerError, "Failed to reset destinations.",
			gin.H{"reason": err.Error(), "result": result})
		return
	}
	c.JSON(http.StatusOK, result)
}

func (a *API) lastReport(c *gin.Context) {
	a.mu.RLock()
	report := a.last
	a.mu.RUnlock()

	if report == nil {
		respondWithError(c, http.StatusNotFound, models.ErrorCodeNotFound, "No migration has run yet.", nil)
		return
	}
	c.JSON(http.StatusOK, report)
}

// respondWithError sends a standardized JSON error response.
func respondWithError(c *gin.Context, status int, code, message string, details any) {
	c.JSON(status, models.APIError{Code: code, Message: message, Details: details})
}
