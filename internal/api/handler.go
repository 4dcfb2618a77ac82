package api

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"qrtag-service/internal/models"
	"qrtag-service/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Probe reports whether a dependency is reachable
type Probe func(ctx context.Context) error

// Reconciler runs one attribution repair pass
type Reconciler interface {
	Run(ctx context.Context) (*service.ReconcileResult, error)
}

// Dependencies bundles what the HTTP layer needs
type Dependencies struct {
	Orders      *service.OrderService
	Tags        *service.TagService
	Commissions *service.CommissionService
	Accounts    *service.AccountService
	Reconciler  Reconciler
	Probes      map[string]Probe
	MediaDir    string

	// PaymentRatePerMinute caps initiate/verify calls per client IP
	PaymentRatePerMinute int
	PaymentBurst         int
}

type Handler struct {
	orders      *service.OrderService
	tags        *service.TagService
	commissions *service.CommissionService
	accounts    *service.AccountService
	reconciler  Reconciler
	probes      map[string]Probe
	mediaDir    string
	limiter     *ipRateLimiter
}

func NewHandler(deps Dependencies) *Handler {
	perMinute, burst := deps.PaymentRatePerMinute, deps.PaymentBurst
	if perMinute <= 0 {
		perMinute = 30
	}
	if burst <= 0 {
		burst = 10
	}

	return &Handler{
		orders:      deps.Orders,
		tags:        deps.Tags,
		commissions: deps.Commissions,
		accounts:    deps.Accounts,
		reconciler:  deps.Reconciler,
		probes:      deps.Probes,
		mediaDir:    deps.MediaDir,
		limiter:     newIPRateLimiter(perMinute, burst),
	}
}

func (h *Handler) SetupRoutes(router *gin.Engine) {
	// Middleware
	router.Use(gin.Recovery())
	router.Use(prometheusMiddleware())
	router.Use(requestLogger())

	// Health checks
	router.GET("/health", h.healthCheck)
	router.GET("/ready", h.readinessCheck)

	// Metrics endpoint
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	if h.mediaDir != "" {
		router.Static("/media", h.mediaDir)
	}

	v1 := router.Group("/api/v1")
	{
		v1.POST("/auth/register", h.register)
		v1.POST("/auth/login", h.login)
		v1.GET("/public/tags/:customId", h.getPublicTag)

		authed := v1.Group("")
		authed.Use(h.requireAuth())
		{
			authed.GET("/me", h.me)

			paid := h.limiter.middleware()
			authed.POST("/orders", paid, h.createStickerOrder)
			authed.POST("/orders/verify", paid, h.verifyStickerPayment)
			authed.GET("/orders", h.listMyOrders)
			authed.GET("/orders/:id", h.getOrder)

			authed.POST("/tags/initiate", paid, h.initiateTagCreation)
			authed.POST("/tags/verify", paid, h.verifyTagPayment)
			authed.GET("/tags", h.listMyTags)
			authed.GET("/tags/:customId", h.getTag)
			authed.PUT("/tags/:customId", h.updateTag)

			partner := authed.Group("/partner", requireRole(models.RolePartner))
			partner.GET("/commissions", h.listPartnerCommissions)
			partner.GET("/commissions/summary", h.partnerSummary)

			admin := authed.Group("/admin", requireRole(models.RoleAdmin))
			admin.GET("/orders", h.adminListOrders)
			admin.PATCH("/orders/:id/status", h.adminSetOrderStatus)
			admin.GET("/commissions", h.adminListCommissions)
			admin.PATCH("/commissions/:id", h.adminSettleCommission)
			admin.GET("/tags", h.adminListTags)
			admin.POST("/tags", h.adminCreateTag)
			admin.DELETE("/tags/:customId", h.adminDeleteTag)
			admin.POST("/reconcile", h.adminReconcile)
		}
	}
}

func (h *Handler) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "healthy",
		"time":   time.Now().Unix(),
	})
}

func (h *Handler) readinessCheck(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	failing := map[string]string{}
	for name, probe := range h.probes {
		if err := probe(ctx); err != nil {
			failing[name] = err.Error()
		}
	}

	if len(failing) > 0 {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status":  "not ready",
			"failing": failing,
			"time":    time.Now().Unix(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "ready",
		"time":   time.Now().Unix(),
	})
}

func parseID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		badRequest(c, "Invalid id", nil)
		return 0, false
	}
	return id, true
}

// parsePage reads limit/offset query params, defaulting to 50 rows
func parsePage(c *gin.Context) (int, int) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "50"))
	if err != nil || limit <= 0 {
		limit = 50
	}
	if limit > 200 {
		limit = 200
	}
	offset, err := strconv.Atoi(c.DefaultQuery("offset", "0"))
	if err != nil || offset < 0 {
		offset = 0
	}
	return limit, offset
}
