package middleware

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sangkips/order-reconciler/internal/domain/entity"
	"github.com/sangkips/order-reconciler/internal/domain/repository"
	"go.uber.org/zap"
)

const (
	// IdempotencyKeyHeader is the HTTP header for idempotency keys
	IdempotencyKeyHeader = "Idempotency-Key"
	// ReplayedHeader marks a response served from a stored key
	ReplayedHeader = "X-Idempotency-Replayed"
	// IdempotencyKeyTTL is how long keys are valid
	IdempotencyKeyTTL = 24 * time.Hour
)

// IdempotencyConfig holds configuration for the idempotency middleware
type IdempotencyConfig struct {
	Repo   repository.IdempotencyRepository
	Logger *zap.Logger

	// MaxBodySize caps the buffered request body; zero means no cap.
	MaxBodySize int64
}

// responseWriter wraps gin.ResponseWriter to capture the response body
type responseWriter struct {
	gin.ResponseWriter
	body *bytes.Buffer
}

func (w responseWriter) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

// Idempotency replays the stored response when an import is resubmitted with
// the same Idempotency-Key on the same endpoint. Imports merge additively, so
// without a key a retried upload would double every quantity.
//
// The key is reserved before the handler runs, so a retry that arrives while
// the first request is still in flight gets 409 instead of a second merge.
// Only 2xx responses are kept; on any other outcome the reservation is
// released and the request may be retried with the same key.
func Idempotency(config IdempotencyConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method != http.MethodPost && c.Request.Method != http.MethodPut && c.Request.Method != http.MethodPatch {
			c.Next()
			return
		}

		key := c.GetHeader(IdempotencyKeyHeader)
		if key == "" {
			c.Next()
			return
		}
		endpoint := c.Request.Method + " " + c.FullPath()

		if config.MaxBodySize > 0 {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, config.MaxBodySize)
		}
		body, err := io.ReadAll(c.Request.Body)
		if err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				abortIdempotency(c, http.StatusRequestEntityTooLarge, "Request body too large")
				return
			}
			abortIdempotency(c, http.StatusBadRequest, "Unable to read request body")
			return
		}
		c.Request.Body = io.NopCloser(bytes.NewReader(body))
		hash := hashBody(body)

		// Writes after the handler must survive a client that hung up.
		storeCtx := context.WithoutCancel(c.Request.Context())
		log := config.Logger.With(zap.String("endpoint", endpoint))

		claimed, err := config.Repo.Reserve(storeCtx, &entity.IdempotencyKey{
			Key:         key,
			Endpoint:    endpoint,
			RequestHash: hash,
			ExpiresAt:   time.Now().Add(IdempotencyKeyTTL),
		})
		if err != nil {
			log.Warn("idempotency reservation failed", zap.Error(err))
			c.Next()
			return
		}
		if !claimed {
			replayOrReject(c, config.Repo, key, endpoint, hash, log)
			return
		}

		completed := false
		defer func() {
			if completed {
				return
			}
			if err := config.Repo.Release(storeCtx, key, endpoint); err != nil {
				log.Warn("idempotency release failed", zap.Error(err))
			}
		}()

		blw := &responseWriter{body: bytes.NewBufferString(""), ResponseWriter: c.Writer}
		c.Writer = blw

		c.Next()

		if c.Writer.Status() < 200 || c.Writer.Status() >= 300 {
			return
		}
		err = config.Repo.Complete(storeCtx, &entity.IdempotencyKey{
			Key:          key,
			Endpoint:     endpoint,
			RequestHash:  hash,
			ResponseCode: c.Writer.Status(),
			ResponseBody: blw.body.String(),
			ExpiresAt:    time.Now().Add(IdempotencyKeyTTL),
		})
		if err != nil {
			log.Warn("idempotency store failed", zap.Error(err))
			return
		}
		completed = true
	}
}

// replayOrReject answers a request whose key is already held by another one.
func replayOrReject(c *gin.Context, repo repository.IdempotencyRepository, key, endpoint, hash string, log *zap.Logger) {
	existing, err := repo.GetByKey(c.Request.Context(), key, endpoint)
	if err != nil {
		log.Warn("idempotency lookup failed", zap.Error(err))
		abortIdempotency(c, http.StatusServiceUnavailable, "Unable to check Idempotency-Key, retry later")
		return
	}
	switch {
	case existing == nil || existing.IsExpired():
		// Released or swept between the claim and the lookup.
		abortIdempotency(c, http.StatusConflict, "Idempotency-Key is being released, retry the request")
	case existing.RequestHash != "" && existing.RequestHash != hash:
		abortIdempotency(c, http.StatusUnprocessableEntity, "Idempotency-Key was already used with a different request")
	case existing.IsPending():
		abortIdempotency(c, http.StatusConflict, "A request with this Idempotency-Key is still being processed")
	default:
		c.Header(ReplayedHeader, "true")
		c.Data(existing.ResponseCode, "application/json; charset=utf-8", []byte(existing.ResponseBody))
		c.Abort()
	}
}

func abortIdempotency(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, gin.H{
		"success": false,
		"message": message,
	})
}

func hashBody(body []byte) string {
	sum := sha256.Sum256(body)
	return hex.EncodeToString(sum[:])
}
