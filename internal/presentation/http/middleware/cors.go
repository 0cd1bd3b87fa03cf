package middleware

import (
	"slices"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/sangkips/order-reconciler/internal/config"
)

var (
	defaultAllowedOrigins = []string{"http://localhost:3000", "http://127.0.0.1:3000"}
	defaultAllowedMethods = []string{"GET", "POST", "PUT", "PATCH", "OPTIONS"}
	defaultAllowedHeaders = []string{"Accept", "Content-Type", "Origin", RequestIDHeader}

	// Headers the dashboard reads back from import and replay responses.
	exposedHeaders = []string{
		"Content-Length",
		RequestIDHeader,
		ReplayedHeader,
		"X-RateLimit-Limit",
		"X-RateLimit-Remaining",
		"Retry-After",
	}
)

// CORSMiddleware creates a CORS middleware with the provided configuration.
// Idempotency-Key is always allowed so browser uploads can be replayed safely.
func CORSMiddleware(cfg *config.CORSConfig) gin.HandlerFunc {
	headers := orDefault(cfg.AllowedHeaders, defaultAllowedHeaders)
	if !slices.Contains(headers, IdempotencyKeyHeader) {
		headers = append(slices.Clone(headers), IdempotencyKeyHeader)
	}

	return cors.New(cors.Config{
		AllowOrigins:     orDefault(cfg.AllowedOrigins, defaultAllowedOrigins),
		AllowMethods:     orDefault(cfg.AllowedMethods, defaultAllowedMethods),
		AllowHeaders:     headers,
		ExposeHeaders:    exposedHeaders,
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	})
}

func orDefault(values, fallback []string) []string {
	if len(values) == 0 {
		return fallback
	}
	return values
}
