package httpcontext

import (
	"github.com/valyala/fasthttp"

	"github.com/fastygo/buyerleads/domain"
)

const (
	principalValue = "principal"
	sessionValue   = "session_id"
)

// SetPrincipal records the authenticated caller on the request.
func SetPrincipal(ctx *fasthttp.RequestCtx, principal domain.Principal, sessionID string) {
	ctx.SetUserValue(principalValue, principal)
	ctx.SetUserValue(sessionValue, sessionID)
	ctx.SetUserValue(UserIDValue, principal.ID)
}

// Principal returns the caller stored by the auth middleware, or the zero
// principal when the request is anonymous.
func Principal(ctx *fasthttp.RequestCtx) domain.Principal {
	p, _ := ctx.UserValue(principalValue).(domain.Principal)
	return p
}

// SessionID returns the session the request was authenticated with.
func SessionID(ctx *fasthttp.RequestCtx) string {
	id, _ := ctx.UserValue(sessionValue).(string)
	return id
}
