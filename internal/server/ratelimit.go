package server

import (
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// clientLimiters hands out one token bucket per client IP.
type clientLimiters struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	rps      rate.Limit
	burst    int
}

func newClientLimiters(rps float64, burst int) *clientLimiters {
	return &clientLimiters{
		limiters: make(map[string]*rate.Limiter),
		rps:      rate.Limit(rps),
		burst:    burst,
	}
}

func (c *clientLimiters) get(clientIP string) *rate.Limiter {
	c.mu.Lock()
	defer c.mu.Unlock()
	l, ok := c.limiters[clientIP]
	if !ok {
		l = rate.NewLimiter(c.rps, c.burst)
		c.limiters[clientIP] = l
	}
	return l
}

// middleware rejects clients that exceed their per-IP budget.
func (c *clientLimiters) middleware() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		if !c.get(ctx.ClientIP()).Allow() {
			ctx.AbortWithStatusJSON(http.StatusTooManyRequests, errorResponse{
				Error: "too many requests",
				Code:  CodeRateLimit,
			})
			return
		}
		ctx.Next()
	}
}
