// API gateway; registers HTTP routes and delegates to module services.
package http

import (
	"log/slog"
	nethttp "net/http"

	"github.com/gin-gonic/gin"

	"drover/internal/http/handlers"
	"drover/internal/http/middleware"
	"drover/internal/modules/bid"
	"drover/internal/modules/pricing"
)

type ServerDeps struct {
	Bids    *bid.Service
	Pricing *pricing.Service
	Hub     *Hub
	Logger  *slog.Logger
}

type Server struct {
	engine *gin.Engine
}

func NewServer(deps ServerDeps) *Server {
	engine := gin.New()
	engine.Use(middleware.Recovery(deps.Logger))
	engine.Use(middleware.Logging(deps.Logger))

	h := handlers.NewBidHandler(deps.Bids, deps.Pricing, deps.Hub)

	api := engine.Group("/api")
	api.POST("/bids", h.Create)
	api.GET("/bids/:id", h.Get)
	api.POST("/bids/:id/adjust", h.Adjust)
	api.POST("/bids/:id/amount", h.SetAmount)
	api.POST("/bids/:id/reset", h.Reset)
	api.POST("/bids/:id/submit", h.Submit)
	api.POST("/bids/:id/confirm", h.Confirm)
	api.POST("/bids/:id/cancel-confirm", h.CancelConfirm)
	api.POST("/bids/:id/cancel", h.Cancel)
	api.GET("/bids/:id/quote", h.Quote)
	api.GET("/bids/:id/events", h.Events)

	api.GET("/ws/drivers/:driver_id", deps.Hub.HandleDriverSocket)

	return &Server{engine: engine}
}

func (s *Server) Handler() nethttp.Handler {
	return s.engine
}
