package middleware

import (
	"context"
	"strings"
	"time"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/fastygo/buyerleads/api/handler"
	"github.com/fastygo/buyerleads/domain"
	"github.com/fastygo/buyerleads/pkg/httpcontext"
)

// Resolver turns a bearer token into the principal and session it belongs to.
type Resolver interface {
	Resolve(ctx context.Context, token string) (domain.Principal, string, error)
}

// Authenticate resolves the caller before next runs. Missing, invalid and
// revoked tokens all answer 401; an unreachable session store answers 503.
func Authenticate(resolver Resolver, timeout time.Duration, logger *zap.Logger) func(fasthttp.RequestHandler) fasthttp.RequestHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return func(next fasthttp.RequestHandler) fasthttp.RequestHandler {
		return func(ctx *fasthttp.RequestCtx) {
			tokenString := extractToken(ctx)
			if tokenString == "" {
				handler.RespondError(ctx, domain.ErrUnauthorized, logger)
				return
			}

			stdCtx, cancel := context.WithTimeout(context.Background(), timeout)
			principal, sessionID, err := resolver.Resolve(stdCtx, tokenString)
			cancel()
			if err != nil {
				if domain.IsDomainError(err, domain.ErrCodeUnauthorized) {
					logger.Debug("rejected bearer token",
						zap.String("request_id", httpcontext.RequestID(ctx)),
						zap.Error(err))
				}
				handler.RespondError(ctx, err, logger)
				return
			}

			httpcontext.SetPrincipal(ctx, principal, sessionID)
			next(ctx)
		}
	}
}

func extractToken(ctx *fasthttp.RequestCtx) string {
	header := strings.TrimSpace(string(ctx.Request.Header.Peek("Authorization")))
	if header == "" {
		return ""
	}
	if len(header) > 7 && strings.EqualFold(header[:7], "Bearer ") {
		return strings.TrimSpace(header[7:])
	}
	return header
}
