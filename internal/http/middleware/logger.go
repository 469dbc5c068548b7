package middleware

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// ErrorLocalKey holds the cause of a response that was answered with a generic 500.
const ErrorLocalKey = "internal_error"

// RecordError keeps err for the request log line without exposing it to the client.
func RecordError(c *fiber.Ctx, err error) {
	c.Locals(ErrorLocalKey, err)
}

// Logger writes one structured line per request with request_id, method,
// path, status and latency_ms. trace_id is added when the request is traced.
// Server errors are logged at error level with their cause.
func Logger(log *zap.Logger) fiber.Handler {
	log = log.Named("http")

	return func(c *fiber.Ctx) error {
		start := time.Now()

		err := c.Next()
		status := statusOf(c, err)

		fields := []zap.Field{
			zap.String("request_id", RequestIDFromCtx(c)),
			zap.String("method", c.Method()),
			zap.String("path", c.Path()),
			zap.Int("status", status),
			zap.Float64("latency_ms", float64(time.Since(start).Microseconds())/1000),
		}
		if sc := trace.SpanContextFromContext(c.UserContext()); sc.IsValid() {
			fields = append(fields, zap.String("trace_id", sc.TraceID().String()))
		}

		cause := err
		if recorded, ok := c.Locals(ErrorLocalKey).(error); ok {
			cause = recorded
		}
		if status >= fiber.StatusInternalServerError && cause != nil {
			log.Error("request", append(fields, zap.Error(cause))...)
			return err
		}

		log.Info("request", fields...)
		return err
	}
}

// statusOf returns the status the error handler will write for err, or the
// response status when the handler succeeded.
func statusOf(c *fiber.Ctx, err error) int {
	if err == nil {
		return c.Response().StatusCode()
	}
	if fiberErr, ok := err.(*fiber.Error); ok {
		return fiberErr.Code
	}
	return fiber.StatusInternalServerError
}
