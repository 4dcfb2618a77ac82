package api

import (
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"qrtag-service/internal/models"
	"qrtag-service/internal/util"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const accountKey = "account"

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

// requestLogger logs every request with zap
func requestLogger() gin.HandlerFunc {
	logger := util.GetLogger()
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		logger.Info("HTTP request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("client_ip", c.ClientIP()))
	}
}

// requireAuth resolves the bearer token to a fresh account record
func (h *Handler) requireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		token := strings.TrimPrefix(header, "Bearer ")
		if header == "" || token == header {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Missing bearer token"})
			return
		}

		claims, err := h.accounts.ParseToken(token)
		if err != nil {
			writeError(c, err)
			return
		}

		account, err := h.accounts.Get(c.Request.Context(), claims.UserID)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Account no longer exists"})
			return
		}

		c.Set(accountKey, account)
		c.Next()
	}
}

// requireRole admits only accounts holding one of roles
func requireRole(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		account := currentAccount(c)
		for _, role := range roles {
			if account != nil && account.Role == role {
				c.Next()
				return
			}
		}
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Insufficient role"})
	}
}

func currentAccount(c *gin.Context) *models.Account {
	v, ok := c.Get(accountKey)
	if !ok {
		return nil
	}
	account, _ := v.(*models.Account)
	return account
}

// ipRateLimiter hands out one token bucket per client IP. Buckets idle for
// longer than idleTTL are swept at most once per idleTTL, and the map never
// holds more than maxVisitors entries.
type ipRateLimiter struct {
	mu          sync.Mutex
	limit       rate.Limit
	burst       int
	idleTTL     time.Duration
	maxVisitors int
	lastSweep   time.Time
	now         func() time.Time
	visitors    map[string]*visitor
}

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

func newIPRateLimiter(perMinute, burst int) *ipRateLimiter {
	return &ipRateLimiter{
		limit:       rate.Limit(float64(perMinute) / 60),
		burst:       burst,
		idleTTL:     10 * time.Minute,
		maxVisitors: 10000,
		now:         time.Now,
		visitors:    map[string]*visitor{},
	}
}

func (l *ipRateLimiter) allow(ip string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if now.Sub(l.lastSweep) >= l.idleTTL {
		l.sweep(now)
	}

	v, ok := l.visitors[ip]
	if !ok {
		if len(l.visitors) >= l.maxVisitors {
			l.evictOldest()
		}
		v = &visitor{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.visitors[ip] = v
	}
	v.lastSeen = now
	return v.limiter.AllowN(now, 1)
}

// sweep drops buckets idle for longer than idleTTL
func (l *ipRateLimiter) sweep(now time.Time) {
	for ip, v := range l.visitors {
		if now.Sub(v.lastSeen) > l.idleTTL {
			delete(l.visitors, ip)
		}
	}
	l.lastSweep = now
}

func (l *ipRateLimiter) evictOldest() {
	var oldestIP string
	var oldest time.Time
	for ip, v := range l.visitors {
		if oldestIP == "" || v.lastSeen.Before(oldest) {
			oldestIP, oldest = ip, v.lastSeen
		}
	}
	delete(l.visitors, oldestIP)
}

func (l *ipRateLimiter) middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !l.allow(c.ClientIP()) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "Too many requests"})
			return
		}
		c.Next()
	}
}
