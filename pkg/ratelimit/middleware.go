package ratelimit

import (
	"fmt"
	"net/http"
	"strings"

	"tourly/internal/shared/utils/response"

	"github.com/gin-gonic/gin"
)

// Middleware creates a rate limiting middleware for gin
func Middleware(limiter *RateLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		clientIP := getClientIP(c)
		limitType := getRateLimitType(c.Request.URL.Path)

		result, err := limiter.IsAllowed(c.Request.Context(), clientIP, limitType)
		if err != nil {
			// Fail open so a Redis outage does not take the API down
			c.Next()
			return
		}

		c.Header("X-RateLimit-Limit", fmt.Sprintf("%d", result.Limit))
		c.Header("X-RateLimit-Remaining", fmt.Sprintf("%d", result.Remaining))
		c.Header("X-RateLimit-Reset", fmt.Sprintf("%d", result.ResetTime))

		if !result.Allowed {
			response.Error(c, http.StatusTooManyRequests, "Rate limit exceeded", []string{
				fmt.Sprintf("too many requests, retry after %d", result.ResetTime),
			})
			c.Abort()
			return
		}

		c.Next()
	}
}

// getRateLimitType determines the rate limit bucket from the request path
func getRateLimitType(path string) RateLimitType {
	switch {
	case strings.Contains(path, "/auth/"):
		return RateLimitTypeAuth
	case strings.Contains(path, "/bookings"), strings.Contains(path, "/registrations"):
		return RateLimitTypeBooking
	case strings.Contains(path, "/availability"), strings.Contains(path, "/tours"):
		return RateLimitTypePublic
	case strings.Contains(path, "/health"), strings.Contains(path, "/ping"):
		return RateLimitTypeHealth
	default:
		return RateLimitTypeDefault
	}
}

// getClientIP extracts the client IP, honoring proxy headers
func getClientIP(c *gin.Context) string {
	if xff := c.GetHeader("X-Forwarded-For"); xff != "" {
		ips := strings.Split(xff, ",")
		if len(ips) > 0 {
			return strings.TrimSpace(ips[0])
		}
	}

	if xri := c.GetHeader("X-Real-IP"); xri != "" {
		return xri
	}

	ip := c.ClientIP()
	if ip == "" {
		return c.Request.RemoteAddr
	}
	return ip
}
