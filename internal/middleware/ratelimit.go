package middleware

import (
	"sync"
	"time"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/fastygo/buyerleads/api/handler"
	"github.com/fastygo/buyerleads/domain"
	"github.com/fastygo/buyerleads/pkg/httpcontext"
)

const limiterIdleTTL = 30 * time.Minute

type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter keeps one token bucket per principal. Anonymous requests share
// the bucket of their remote address.
type RateLimiter struct {
	mu        sync.Mutex
	clients   map[string]*clientLimiter
	limit     rate.Limit
	burst     int
	lastSweep time.Time
	now       func() time.Time
	logger    *zap.Logger
}

func NewRateLimiter(perMinute, burst int, logger *zap.Logger) *RateLimiter {
	if perMinute <= 0 {
		perMinute = 10
	}
	if burst <= 0 {
		burst = 1
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RateLimiter{
		clients: make(map[string]*clientLimiter),
		limit:   rate.Every(time.Minute / time.Duration(perMinute)),
		burst:   burst,
		now:     time.Now,
		logger:  logger,
	}
}

// Limit wraps next with the per-client bucket.
func (rl *RateLimiter) Limit(next fasthttp.RequestHandler) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		key := httpcontext.Principal(ctx).ID
		if key == "" {
			key = "ip:" + ctx.RemoteIP().String()
		}
		if !rl.allow(key) {
			rl.logger.Warn("rate limit exceeded",
				zap.String("client", key),
				zap.String("path", string(ctx.Path())))
			ctx.Response.Header.Set("Retry-After", "60")
			handler.RespondError(ctx, domain.ErrRateLimited, rl.logger)
			return
		}
		next(ctx)
	}
}

func (rl *RateLimiter) allow(key string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	if now.Sub(rl.lastSweep) > limiterIdleTTL {
		for id, client := range rl.clients {
			if now.Sub(client.lastSeen) > limiterIdleTTL {
				delete(rl.clients, id)
			}
		}
		rl.lastSweep = now
	}

	client, ok := rl.clients[key]
	if !ok {
		client = &clientLimiter{limiter: rate.NewLimiter(rl.limit, rl.burst)}
		rl.clients[key] = client
	}
	client.lastSeen = now
	return client.limiter.AllowN(now, 1)
}
