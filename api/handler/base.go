package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/fastygo/buyerleads/api/transport"
	"github.com/fastygo/buyerleads/domain"
	"github.com/fastygo/buyerleads/pkg/httpcontext"
)

type baseHandler struct {
	adapter *httpcontext.Adapter
	logger  *zap.Logger
}

func newBaseHandler(adapter *httpcontext.Adapter, logger *zap.Logger) baseHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return baseHandler{adapter: adapter, logger: logger}
}

func (h baseHandler) requestContext(ctx *fasthttp.RequestCtx) (context.Context, context.CancelFunc) {
	if h.adapter != nil {
		return h.adapter.Attach(ctx)
	}
	return context.WithCancel(context.Background())
}

// principal returns the authenticated caller, answering 401 when there is none.
func (h baseHandler) principal(ctx *fasthttp.RequestCtx) (domain.Principal, bool) {
	p := httpcontext.Principal(ctx)
	if p.IsZero() {
		h.respondError(ctx, domain.ErrUnauthorized)
		return p, false
	}
	return p, true
}

func (h baseHandler) respondJSON(ctx *fasthttp.RequestCtx, status int, payload transport.Envelope) {
	WriteJSON(ctx, status, payload)
}

func (h baseHandler) respondSuccess(ctx *fasthttp.RequestCtx, status int, data interface{}) {
	WriteJSON(ctx, status, transport.NewSuccess(data))
}

func (h baseHandler) respondError(ctx *fasthttp.RequestCtx, err error) {
	RespondError(ctx, err, h.logger)
}

func (h baseHandler) respondFile(ctx *fasthttp.RequestCtx, name, contentType string, body []byte) {
	ctx.Response.Header.SetContentType(contentType)
	ctx.Response.Header.Set("Content-Disposition", `attachment; filename="`+name+`"`)
	ctx.SetStatusCode(http.StatusOK)
	ctx.SetBody(body)
}

func (h baseHandler) invalidPayload(ctx *fasthttp.RequestCtx, message string) {
	h.respondError(ctx, domain.NewError(domain.ErrCodeInvalid, message))
}

// WriteJSON serializes an envelope as the response body.
func WriteJSON(ctx *fasthttp.RequestCtx, status int, payload transport.Envelope) {
	ctx.Response.Header.SetContentType("application/json")
	ctx.SetStatusCode(status)
	body, _ := json.Marshal(payload)
	ctx.SetBody(body)
}

// RespondError writes err as an error envelope. Details attached to a domain
// error travel in meta.details. Server-side failures are logged.
func RespondError(ctx *fasthttp.RequestCtx, err error, log *zap.Logger) {
	status, code := mapError(err)

	message := err.Error()
	if status >= http.StatusInternalServerError {
		if log != nil {
			log.Error("request failed",
				zap.String("request_id", httpcontext.RequestID(ctx)),
				zap.String("path", string(ctx.Path())),
				zap.Int("status", status),
				zap.Error(err))
		}
		if status == http.StatusInternalServerError {
			message = "internal server error"
		}
	}

	env := transport.NewError(code, message, domain.ErrorDetails(err))
	WriteJSON(ctx, status, env.WithRequestID(httpcontext.RequestID(ctx)))
}

func mapError(err error) (int, string) {
	switch {
	case domain.IsDomainError(err, domain.ErrCodeInvalid):
		return http.StatusBadRequest, string(domain.ErrCodeInvalid)
	case domain.IsDomainError(err, domain.ErrCodeUnauthorized):
		return http.StatusUnauthorized, string(domain.ErrCodeUnauthorized)
	case domain.IsDomainError(err, domain.ErrCodeForbidden):
		return http.StatusForbidden, string(domain.ErrCodeForbidden)
	case domain.IsDomainError(err, domain.ErrCodeNotFound):
		return http.StatusNotFound, string(domain.ErrCodeNotFound)
	case domain.IsDomainError(err, domain.ErrCodeConflict):
		return http.StatusConflict, string(domain.ErrCodeConflict)
	case domain.IsDomainError(err, domain.ErrCodeTooManyRequests):
		return http.StatusTooManyRequests, string(domain.ErrCodeTooManyRequests)
	case domain.IsDomainError(err, domain.ErrCodeUnavailable):
		return http.StatusServiceUnavailable, string(domain.ErrCodeUnavailable)
	default:
		return http.StatusInternalServerError, string(domain.ErrCodeInternal)
	}
}
