package middleware

import (
	"time"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/fastygo/buyerleads/api/handler"
	"github.com/fastygo/buyerleads/domain"
	"github.com/fastygo/buyerleads/pkg/httpcontext"
)

// AccessLog assigns the request id, recovers panics and logs one line per request.
func AccessLog(logger *zap.Logger) func(fasthttp.RequestHandler) fasthttp.RequestHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(next fasthttp.RequestHandler) fasthttp.RequestHandler {
		return func(ctx *fasthttp.RequestCtx) {
			start := time.Now()
			requestID := httpcontext.RequestID(ctx)

			defer func() {
				if rec := recover(); rec != nil {
					logger.Error("panic serving request",
						zap.String("request_id", requestID),
						zap.Any("panic", rec),
						zap.Stack("stack"))
					handler.RespondError(ctx, domain.NewError(domain.ErrCodeInternal, "internal server error"), nil)
				}

				fields := []zap.Field{
					zap.String("request_id", requestID),
					zap.ByteString("method", ctx.Method()),
					zap.ByteString("path", ctx.Path()),
					zap.Int("status", ctx.Response.StatusCode()),
					zap.Duration("duration", time.Since(start)),
				}
				if userID, ok := ctx.UserValue(httpcontext.UserIDValue).(string); ok && userID != "" {
					fields = append(fields, zap.String("user_id", userID))
				}
				logger.Info("request served", fields...)
			}()

			next(ctx)
		}
	}
}
