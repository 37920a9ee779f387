package middleware

import (
	"bytes"
	"context"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/BruksfildServices01/haircut-booking/internal/infra/cache"
)

const HeaderIdempotencyKey = "Idempotency-Key"

// ResponseStore records responses by idempotency key.
type ResponseStore interface {
	Lookup(ctx context.Context, key string) (*cache.Response, error)
	Save(ctx context.Context, key string, resp cache.Response) error
}

type recordingWriter struct {
	gin.ResponseWriter
	body bytes.Buffer
}

func (w *recordingWriter) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

func (w *recordingWriter) WriteString(s string) (int, error) {
	w.body.WriteString(s)
	return w.ResponseWriter.WriteString(s)
}

// Idempotency replays the recorded response when a request repeats an
// Idempotency-Key. Keys are scoped to the caller. Server errors are not
// recorded so the client can retry them. A store outage degrades to
// normal processing.
func Idempotency(store ResponseStore, logger logrus.FieldLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.GetHeader(HeaderIdempotencyKey)
		if key == "" || store == nil {
			c.Next()
			return
		}

		if caller, ok := CallerFrom(c); ok {
			key = caller.UID + ":" + key
		}
		key = c.Request.Method + ":" + c.FullPath() + ":" + key

		ctx := c.Request.Context()
		recorded, err := store.Lookup(ctx, key)
		if err != nil {
			logger.WithError(err).Warn("idempotency lookup failed")
		}
		if recorded != nil {
			c.Header("Idempotent-Replayed", "true")
			c.Data(recorded.Status, recorded.ContentType, recorded.Body)
			c.Abort()
			return
		}

		w := &recordingWriter{ResponseWriter: c.Writer}
		c.Writer = w
		c.Next()

		if w.Status() >= 500 {
			return
		}
		if err := store.Save(ctx, key, cache.Response{
			Status:      w.Status(),
			ContentType: w.Header().Get("Content-Type"),
			Body:        w.body.Bytes(),
		}); err != nil {
			logger.WithError(err).Warn("idempotency save failed")
		}
	}
}
