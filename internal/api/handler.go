package api

import (
	"context"
	"crypto/subtle"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"storefront/internal/apperr"
	"storefront/internal/catalog"
	"storefront/internal/imagestore"
	"storefront/internal/service"
	"storefront/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// AdminPasswordHeader carries the shared admin password
const AdminPasswordHeader = "X-Admin-Password"

// ReadinessCheck reports whether a dependency is reachable
type ReadinessCheck func(ctx context.Context) error

// Handler contains HTTP handlers
type Handler struct {
	catalog       *catalog.Service
	ordering      *service.OrderingService
	images        *imagestore.Store
	adminPassword string
	uploadsPath   string
	checks        map[string]ReadinessCheck
	logger        *zap.Logger
}

// NewHandler creates a new HTTP handler. uploadsPath is the URL prefix the
// image directory is served under; it is not served when empty or absolute.
func NewHandler(
	catalogService *catalog.Service,
	ordering *service.OrderingService,
	images *imagestore.Store,
	adminPassword string,
	uploadsPath string,
) *Handler {
	return &Handler{
		catalog:       catalogService,
		ordering:      ordering,
		images:        images,
		adminPassword: adminPassword,
		uploadsPath:   uploadsPath,
		checks:        map[string]ReadinessCheck{},
		logger:        util.GetLogger(),
	}
}

// AddReadinessCheck registers a dependency checked by /ready
func (h *Handler) AddReadinessCheck(name string, check ReadinessCheck) {
	h.checks[name] = check
}

// SetupRoutes sets up HTTP routes
func (h *Handler) SetupRoutes(router *gin.Engine) {
	router.Use(gin.Recovery())
	router.Use(prometheusMiddleware())
	router.Use(gin.Logger())

	router.GET("/health", h.healthCheck)
	router.GET("/ready", h.readinessCheck)

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	if strings.HasPrefix(h.uploadsPath, "/") && h.images != nil {
		router.Static(h.uploadsPath, h.images.Dir())
	}

	v1 := router.Group("/api/v1")
	{
		v1.GET("/products", h.listProducts)
		v1.GET("/categories", h.listCategories)

		v1.POST("/sessions", h.createSession)

		s := v1.Group("/sessions/:sid")
		s.GET("/cart", h.getCart)
		s.POST("/cart/items", h.addItem)
		s.PATCH("/cart/items/:itemId/quantity", h.updateQuantity)
		s.PUT("/cart/items/:itemId", h.updateItem)
		s.DELETE("/cart/items/:itemId", h.removeItem)

		s.GET("/checkout", h.getCheckout)
		s.PUT("/checkout/customer", h.setCustomer)
		s.POST("/checkout/next", h.nextStep)
		s.POST("/checkout/back", h.prevStep)
		s.POST("/checkout/send", h.send)

		admin := v1.Group("/admin", h.requireAdmin)
		admin.GET("/products", h.adminListProducts)
		admin.PUT("/products", h.replaceProducts)
		admin.POST("/products", h.createProduct)
		admin.PATCH("/products/:id", h.updateProduct)
		admin.DELETE("/products/:id", h.deleteProduct)
		admin.GET("/categories", h.listCategories)
		admin.POST("/categories", h.createCategory)
		admin.DELETE("/categories/:name", h.deleteCategory)
	}

	router.POST("/api/upload", h.requireAdmin, h.uploadImage)
}

// healthCheck handles health check requests
func (h *Handler) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "healthy",
		"time":   time.Now().Unix(),
	})
}

// readinessCheck pings the registered dependencies
func (h *Handler) readinessCheck(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	failed := gin.H{}
	for name, check := range h.checks {
		if err := check(ctx); err != nil {
			failed[name] = err.Error()
		}
	}
	if len(failed) > 0 {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "not ready",
			"failed": failed,
			"time":   time.Now().Unix(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":           "ready",
		"catalog_fallback": h.catalog.UsingFallback(),
		"time":             time.Now().Unix(),
	})
}

// requireAdmin rejects requests without the admin password
func (h *Handler) requireAdmin(c *gin.Context) {
	given := c.GetHeader(AdminPasswordHeader)
	if h.adminPassword == "" || subtle.ConstantTimeCompare([]byte(given), []byte(h.adminPassword)) != 1 {
		h.respondError(c, apperr.New(apperr.KindUnauthorized, "incorrect admin password"))
		c.Abort()
		return
	}
	c.Next()
}

// statusFor maps an error kind to an HTTP status
func statusFor(kind apperr.Kind) int {
	switch kind {
	case apperr.KindValidation:
		return http.StatusBadRequest
	case apperr.KindNotFound:
		return http.StatusNotFound
	case apperr.KindUnauthorized:
		return http.StatusUnauthorized
	case apperr.KindCollaborator:
		return http.StatusBadGateway
	case apperr.KindStorageQuota:
		return http.StatusInsufficientStorage
	default:
		return http.StatusInternalServerError
	}
}

// respondError writes err as JSON. Internal errors are logged and hidden.
func (h *Handler) respondError(c *gin.Context, err error) {
	kind := apperr.KindOf(err)
	status := statusFor(kind)
	body := gin.H{"kind": kind.String()}

	var appErr *apperr.Error
	if kind != apperr.KindInternal && errors.As(err, &appErr) {
		body["error"] = appErr.Message
		if appErr.Remediation != "" {
			body["remediation"] = appErr.Remediation
		}
	} else {
		body["error"] = "Internal server error"
	}

	if status >= http.StatusInternalServerError {
		h.logger.Error("Request failed",
			zap.Error(err),
			zap.String("path", c.FullPath()),
			zap.String("kind", kind.String()),
		)
	}
	c.JSON(status, body)
}

// bindJSON decodes the body or responds with 400
func (h *Handler) bindJSON(c *gin.Context, dst interface{}) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"details": err.Error(),
			"kind":    apperr.KindValidation.String(),
		})
		return false
	}
	return true
}

// prometheusMiddleware collects HTTP metrics
func prometheusMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(c.Writer.Status())
		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}

		util.HTTPRequestDuration.WithLabelValues(
			c.Request.Method,
			path,
			status,
		).Observe(duration)

		util.HTTPRequestsTotal.WithLabelValues(
			c.Request.Method,
			path,
			status,
		).Inc()
	}
}
