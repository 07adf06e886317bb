package api

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/expotoworld/expotoworld/backend/catalog-admin-service/internal/logging"
)

// RouterOptions configures NewRouter
type RouterOptions struct {
	JWTSecret string
	// CORSOrigins restricts cross-origin callers; empty allows any origin.
	CORSOrigins []string
}

// NewRouter wires the handler into a gin engine.
func NewRouter(h *Handler, opts RouterOptions) *gin.Engine {
	router := gin.New()
	router.Use(logging.JSONLogger())
	router.Use(gin.Recovery())
	router.Use(corsMiddleware(opts.CORSOrigins))

	router.GET("/live", func(c *gin.Context) { c.Status(http.StatusOK) })
	router.GET("/ready", h.Ready)
	router.GET("/health", h.Health)

	v1 := router.Group("/api/v1")
	admin := v1.Group("/admin")
	admin.Use(AuthMiddleware(opts.JWTSecret), AdminMiddleware())
	{
		admin.DELETE("/categories/:id", h.DeleteCategory)
		admin.DELETE("/brands/:id", h.DeleteBrand)
		admin.DELETE("/products/:id", h.DeleteProduct)
		admin.DELETE("/variants/:id", h.DeleteVariant)

		admin.POST("/maintenance/sweep-orphans", h.SweepOrphans)
	}

	router.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"service": "catalog-admin-service",
			"version": "1.0.0",
			"status":  "running",
		})
	})
	return router
}

func corsMiddleware(origins []string) gin.HandlerFunc {
	cfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", logging.RequestIDHeader},
		ExposeHeaders:    []string{logging.RequestIDHeader},
		AllowCredentials: len(origins) > 0,
		MaxAge:           12 * time.Hour,
	}
	if len(origins) == 0 {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
	}
	return cors.New(cfg)
}
