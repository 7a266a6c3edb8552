package api

import (
	"net/http"
	"strconv"
	"time"

	"storefront-service/internal/menusync"
	"storefront-service/internal/reconciler"
	"storefront-service/internal/shops"
	"storefront-service/internal/store"
	"storefront-service/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Handler contains HTTP handlers
type Handler struct {
	syncer     *menusync.Syncer
	reconciler *reconciler.Reconciler
	orders     store.OrderStore
	directory  *shops.Directory
}

// NewHandler creates a new HTTP handler
func NewHandler(syncer *menusync.Syncer, r *reconciler.Reconciler, orders store.OrderStore, directory *shops.Directory) *Handler {
	return &Handler{
		syncer:     syncer,
		reconciler: r,
		orders:     orders,
		directory:  directory,
	}
}

// SetupRoutes sets up HTTP routes
func (h *Handler) SetupRoutes(router *gin.Engine) {
	router.Use(gin.Recovery())
	router.Use(prometheusMiddleware())
	router.Use(gin.Logger())

	router.GET("/health", h.healthCheck)
	router.GET("/ready", h.readinessCheck)

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := router.Group("/api/v1")
	{
		v1.GET("/shops", h.listShops)
		v1.GET("/shops/:id/menu", h.getMenu)
		v1.POST("/shops/:id/refresh", h.refreshMenu)
		v1.GET("/orders/:id", h.getOrder)
		v1.POST("/reconcile", h.runReconcile)
	}
}

// healthCheck handles health check requests
func (h *Handler) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "healthy",
		"time":   time.Now().Unix(),
	})
}

// readinessCheck handles readiness check requests
func (h *Handler) readinessCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ready",
		"time":   time.Now().Unix(),
	})
}

// listShops returns the configured shop identities
func (h *Handler) listShops(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"shops": h.directory.List()})
}

// getMenu primes the shop's menu and returns the current snapshot. A prime
// failure still returns 200 with the error captured in the snapshot, so
// the client can render the stored error state.
func (h *Handler) getMenu(c *gin.Context) {
	shop, ok := h.directory.Get(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Unknown shop"})
		return
	}

	_ = h.syncer.PrimeMenu(c.Request.Context(), shop)

	c.JSON(http.StatusOK, h.syncer.Snapshot(shop.ID))
}

// refreshMenu forces a foreground fetch for the shop
func (h *Handler) refreshMenu(c *gin.Context) {
	shop, ok := h.directory.Get(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Unknown shop"})
		return
	}

	if err := h.syncer.Refresh(c.Request.Context(), shop); err != nil {
		c.JSON(http.StatusBadGateway, gin.H{
			"error":   "Menu refresh failed",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, h.syncer.Snapshot(shop.ID))
}

// getOrder handles get order by ID
func (h *Handler) getOrder(c *gin.Context) {
	orderID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid order ID"})
		return
	}

	order, err := h.orders.GetOrderByID(c.Request.Context(), orderID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"error":   "Order not found",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"order": order})
}

// runReconcile triggers one reconcile pass
func (h *Handler) runReconcile(c *gin.Context) {
	updated, err := h.reconciler.Reconcile(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Reconcile failed",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"updated": updated})
}

// prometheusMiddleware collects HTTP metrics
func prometheusMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(c.Writer.Status())

		util.HTTPRequestDuration.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			status,
		).Observe(duration)

		util.HTTPRequestsTotal.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			status,
		).Inc()
	}
}
