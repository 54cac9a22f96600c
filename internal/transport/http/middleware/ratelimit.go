package middleware

import (
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/hashicorp/golang-lru/v2/expirable"
	"golang.org/x/time/rate"

	resp "anime-shop/internal/transport/http/response"
)

// RateLimit 全局令牌桶限速
func RateLimit(rps rate.Limit, burst int) gin.HandlerFunc {
	lim := rate.NewLimiter(rps, burst)
	return func(c *gin.Context) {
		if lim.Allow() {
			c.Next()
			return
		}
		resp.Abort(c, resp.CodeTooManyRequests, "too many requests")
	}
}

// RateLimitPerIP 每 IP 一个令牌桶；桶放在有界 LRU 里，闲置 idle 后淘汰
func RateLimitPerIP(rps rate.Limit, burst, maxIPs int, idle time.Duration) gin.HandlerFunc {
	buckets := expirable.NewLRU[string, *rate.Limiter](maxIPs, nil, idle)
	var mu sync.Mutex
	return func(c *gin.Context) {
		ip := c.ClientIP()
		mu.Lock()
		lim, ok := buckets.Get(ip)
		if !ok {
			lim = rate.NewLimiter(rps, burst)
			buckets.Add(ip, lim)
		}
		mu.Unlock()
		if lim.Allow() {
			c.Next()
			return
		}
		resp.Abort(c, resp.CodeTooManyRequests, "too many requests")
	}
}
