package server

import (
	"time"

	"github.com/gin-gonic/gin"
	"unimate-server/internal/auth"
	"unimate-server/internal/handler"
	"unimate-server/internal/middleware"
	"unimate-server/internal/relay"
	"unimate-server/internal/store"
)

type Deps struct {
	Store       *store.Store
	TokenConfig auth.TokenConfig
	Relay       *relay.Hub
}

func NewRouter(deps Deps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(gin.Logger())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"ok": true})
	})

	scanLimiter := middleware.NewRateLimiter(30, time.Minute)
	authHandler := &handler.AuthHandler{
		Store:       deps.Store,
		TokenConfig: deps.TokenConfig,
		Relay:       deps.Relay,
		ScanLimiter: scanLimiter,
	}
	routeHandler := &handler.RouteHandler{Store: deps.Store}

	r.POST("/api/scan", authHandler.Scan)
	r.POST("/api/login", authHandler.Login)
	r.GET("/api/users/events", authHandler.UserEvents)
	r.GET("/api/route", routeHandler.Route)

	protected := r.Group("/api")
	protected.Use(middleware.RequireAuth(deps.TokenConfig))

	eventHandler := &handler.EventHandler{Store: deps.Store}
	protected.GET("/events", eventHandler.List)
	protected.POST("/events", eventHandler.Create)
	protected.GET("/events/:id", eventHandler.Get)

	courseHandler := &handler.CourseHandler{Store: deps.Store}
	protected.GET("/courses", courseHandler.List)
	protected.POST("/courses", courseHandler.Create)
	protected.GET("/courses/:id", courseHandler.Get)

	roomHandler := &handler.RoomHandler{Store: deps.Store}
	protected.GET("/rooms", roomHandler.List)
	protected.POST("/rooms", roomHandler.Create)

	wsHandler := &handler.WebSocketHandler{Hub: deps.Relay}
	r.GET("/ws/unimate", wsHandler.ServeGeneric)
	r.GET("/ws/kiosk/:kioskID", wsHandler.ServeKiosk)

	return r
}
