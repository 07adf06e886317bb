package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/expotoworld/expotoworld/backend/catalog-admin-service/internal/cascade"
	"github.com/expotoworld/expotoworld/backend/catalog-admin-service/internal/db"
	"github.com/expotoworld/expotoworld/backend/catalog-admin-service/internal/logging"
	"github.com/expotoworld/expotoworld/backend/catalog-admin-service/internal/models"
)

// Deleter runs a cascade deletion.
type Deleter interface {
	Delete(ctx context.Context, root models.Ref) (*cascade.Result, error)
}

// Sweeper removes secondary rows left behind by earlier deletions.
type Sweeper interface {
	SweepOrphanedDependents(ctx context.Context) (db.SweepReport, error)
}

// HealthChecker reports whether the database answers.
type HealthChecker interface {
	Health(ctx context.Context) error
}

// Pinger reports whether the cache answers.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Handler serves the catalog administration endpoints
type Handler struct {
	deleter Deleter
	sweeper Sweeper
	health  HealthChecker
	cache   Pinger
	timeout time.Duration
}

// HandlerOption configures a Handler
type HandlerOption func(*Handler)

// WithCache reports the cache connection on /ready.
func WithCache(p Pinger) HandlerOption {
	return func(h *Handler) { h.cache = p }
}

// NewHandler creates a new handler instance. sweeper and health may be nil.
func NewHandler(deleter Deleter, sweeper Sweeper, health HealthChecker, opts ...HandlerOption) *Handler {
	h := &Handler{deleter: deleter, sweeper: sweeper, health: health, timeout: 60 * time.Second}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// DeleteCategory handles DELETE /admin/categories/:id
func (h *Handler) DeleteCategory(c *gin.Context) { h.deleteEntity(c, models.EntityCategory) }

// DeleteBrand handles DELETE /admin/brands/:id
func (h *Handler) DeleteBrand(c *gin.Context) { h.deleteEntity(c, models.EntityBrand) }

// DeleteProduct handles DELETE /admin/products/:id
func (h *Handler) DeleteProduct(c *gin.Context) { h.deleteEntity(c, models.EntityProduct) }

// DeleteVariant handles DELETE /admin/variants/:id
func (h *Handler) DeleteVariant(c *gin.Context) { h.deleteEntity(c, models.EntityVariant) }

func (h *Handler) deleteEntity(c *gin.Context, entity models.EntityType) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), h.timeout)
	defer cancel()

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("Invalid %s ID format", entity)})
		return
	}
	root := models.Ref{Type: entity, ID: id}

	res, err := h.deleter.Delete(ctx, root)
	if err != nil {
		var stepErr *cascade.StepError
		switch {
		case errors.Is(err, cascade.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{
				"error":      fmt.Sprintf("%s %d not found", entity, id),
				"error_code": "NOT_FOUND",
			})
		case errors.As(err, &stepErr):
			logging.LogKV(logging.LevelError, "cascade delete failed", logging.Fields{
				"request_id": c.GetString("request_id"),
				"root":       root.String(),
				"step":       stepErr.Step,
				"error":      stepErr.Err,
			})
			body := gin.H{
				"error":      fmt.Sprintf("Failed to delete %s", entity),
				"error_code": "MANDATORY_STEP_FAILED",
				"step":       stepErr.Step,
				"step_index": stepErr.Index,
			}
			if res != nil {
				body["op_id"] = res.OpID
			}
			c.JSON(http.StatusInternalServerError, body)
		default:
			logging.LogKV(logging.LevelError, "cascade delete failed", logging.Fields{
				"request_id": c.GetString("request_id"),
				"root":       root.String(),
				"error":      err,
			})
			c.JSON(http.StatusInternalServerError, gin.H{"error": fmt.Sprintf("Failed to delete %s", entity)})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": fmt.Sprintf("%s %d deleted", entity, id),
		"result":  res,
	})
}

// SweepOrphans handles POST /admin/maintenance/sweep-orphans
func (h *Handler) SweepOrphans(c *gin.Context) {
	if h.sweeper == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Database not available"})
		return
	}
	ctx, cancel := context.WithTimeout(c.Request.Context(), h.timeout)
	defer cancel()

	report, err := h.sweeper.SweepOrphanedDependents(ctx)
	resp := gin.H{"removed": report, "total": report.Total()}
	if err != nil {
		resp["error"] = err.Error()
		c.JSON(http.StatusMultiStatus, resp)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Health handles GET /health
func (h *Handler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	if h.health == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unhealthy", "error": "Database not initialized"})
		return
	}
	if err := h.health.Health(ctx); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "unhealthy",
			"error":  "Database connection failed",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"timestamp": time.Now().UTC(),
		"service":   "catalog-admin-service",
	})
}

// Ready handles GET /ready. The database must answer; an unreachable cache
// only degrades the service because deletions still commit without it.
func (h *Handler) Ready(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	if h.health == nil || h.health.Health(ctx) != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "database": "down"})
		return
	}

	cacheStatus := "disabled"
	if h.cache != nil {
		cacheStatus = "up"
		if err := h.cache.Ping(ctx); err != nil {
			logging.LogKV(logging.LevelWarn, "cache ping failed", logging.Fields{"error": err})
			cacheStatus = "down"
		}
	}

	status := "ready"
	if cacheStatus == "down" {
		status = "degraded"
	}
	c.JSON(http.StatusOK, gin.H{"status": status, "database": "up", "cache": cacheStatus})
}
