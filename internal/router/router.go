// Package router defines how HTTP routes are registered for the API.
package router

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/cinema-ticketing/internal/handler"
	"github.com/iliyamo/cinema-ticketing/internal/middleware"
)

// RegisterRoutes registers routes that do not require authentication on
// the provided Echo instance.  Currently it exposes only a health check.
func RegisterRoutes(e *echo.Echo) {
	// Load balancers and monitoring systems use this to verify that the
	// service is up and running.
	e.GET("/healthz", handler.Health)
}

// RegisterBrowse registers the unauthenticated read endpoints: showing
// details, the live seat map and the raw-hold diagnostics view.  The
// response cache applies to showing details only; the seat map and the
// holds view must always reflect current hold state.
func RegisterBrowse(e *echo.Echo, b *handler.BrowseHandler, cache echo.MiddlewareFunc) {
	e.GET("/v1/showings/:id", b.GetShowing, cache)
	e.GET("/v1/showings/:id/seats", b.GetShowingSeats)
	e.GET("/v1/showings/:id/holds", b.GetShowingHolds)
}

// RegisterReservation registers the seat hold endpoints under JWT
// authentication.
func RegisterReservation(e *echo.Echo, r *handler.ReservationHandler, jwtSecret string) {
	g := e.Group("/v1/showings")
	g.Use(middleware.JWTAuth(jwtSecret))
	g.POST("/:id/hold", r.HoldSeats)
	g.DELETE("/:id/hold", r.ReleaseHolds)
}

// RegisterCheckout registers order creation and retrieval under JWT
// authentication.
func RegisterCheckout(e *echo.Echo, ch *handler.CheckoutHandler, b *handler.BrowseHandler, jwtSecret string) {
	g := e.Group("/v1/orders")
	g.Use(middleware.JWTAuth(jwtSecret))
	g.POST("", ch.CreateOrder)
	g.GET("/:id", b.GetOrder)
}

// RegisterCallbacks registers the payment gateway callback endpoints.
// These are called by the providers, not by browsers holding a session,
// so no JWT middleware applies; authenticity comes from the HMAC
// signatures the adapters verify.
func RegisterCallbacks(e *echo.Echo, cb *handler.CallbackHandler) {
	e.GET("/v1/payments/vnpay/return", cb.VNPayReturn)
	e.GET("/v1/payments/vnpay/ipn", cb.VNPayIPN)
	e.POST("/v1/payments/momo/ipn", cb.MoMoIPN)
}

// RegisterRealtime mounts the SockJS endpoint that streams seat events
// to browsing clients.  The handler speaks its own sub-protocol, so it
// is wrapped rather than routed through Echo handlers.
func RegisterRealtime(e *echo.Echo, h http.Handler) {
	e.Any("/realtime/*", echo.WrapHandler(h))
}
