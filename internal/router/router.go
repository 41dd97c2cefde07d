package router

import (
	"github.com/fasthttp/router"
	"github.com/valyala/fasthttp"

	apiHandler "github.com/fastygo/buyerleads/api/handler"
)

type Middleware func(fasthttp.RequestHandler) fasthttp.RequestHandler

type Handlers struct {
	Auth     *apiHandler.AuthHandler
	Profile  *apiHandler.ProfileHandler
	Buyer    *apiHandler.BuyerHandler
	Transfer *apiHandler.TransferHandler
	Health   *apiHandler.HealthHandler
}

// New registers every route. importLimit wraps the upload route only, after
// authentication so the bucket is keyed by principal.
func New(handlers Handlers, authMiddleware, importLimit Middleware) *router.Router {
	r := router.New()

	r.GET("/health", handlers.Health.Check)

	// Auth routes
	r.POST("/api/v1/auth/login", handlers.Auth.Login)
	r.POST("/api/v1/auth/logout", authMiddleware(handlers.Auth.Logout))
	r.GET("/api/v1/auth/me", authMiddleware(handlers.Auth.Me))

	// Protected routes
	r.GET("/api/v1/profile", authMiddleware(handlers.Profile.GetProfile))
	r.PUT("/api/v1/profile", authMiddleware(handlers.Profile.UpdateProfile))

	r.GET("/api/v1/buyers", authMiddleware(handlers.Buyer.List))
	r.POST("/api/v1/buyers", authMiddleware(handlers.Buyer.Create))
	r.GET("/api/v1/buyers/{id}", authMiddleware(handlers.Buyer.Get))
	r.PUT("/api/v1/buyers/{id}", authMiddleware(handlers.Buyer.Update))
	r.PATCH("/api/v1/buyers/{id}", authMiddleware(handlers.Buyer.Update))
	r.DELETE("/api/v1/buyers/{id}", authMiddleware(handlers.Buyer.Delete))
	r.GET("/api/v1/buyers/{id}/history", authMiddleware(handlers.Buyer.History))

	r.GET("/api/v1/export/buyers", authMiddleware(handlers.Transfer.Export))
	r.POST("/api/v1/import/buyers", authMiddleware(importLimit(handlers.Transfer.Import)))
	r.GET("/api/v1/import/reports/{id}/errors", authMiddleware(handlers.Transfer.ReportErrors))

	return r
}
