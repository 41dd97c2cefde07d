package httpcontext

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/valyala/fasthttp"

	appLogger "github.com/fastygo/buyerleads/pkg/logger"
)

func TestAttach_PropagatesRequestID(t *testing.T) {
	var ctx fasthttp.RequestCtx
	ctx.Request.Header.Set("X-Request-ID", "req-42")
	ctx.SetUserValue(UserIDValue, "u-1")

	stdCtx, cancel := NewAdapter(time.Second).Attach(&ctx)
	defer cancel()

	assert.Equal(t, "req-42", appLogger.RequestID(stdCtx))
	assert.Equal(t, "req-42", string(ctx.Response.Header.Peek("X-Request-ID")))
	_, hasDeadline := stdCtx.Deadline()
	assert.True(t, hasDeadline)
}

func TestRequestID_GeneratesOnceAndReuses(t *testing.T) {
	var ctx fasthttp.RequestCtx
	first := RequestID(&ctx)
	assert.NotEmpty(t, first)
	assert.Equal(t, first, RequestID(&ctx))
}
