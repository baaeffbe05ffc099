package api

import (
	"net/http"
	"time"

	"github.com/coregx/livechat"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// RouterConfig wires the HTTP surface.
type RouterConfig struct {
	Handler        *Handler
	Auth           Authenticator
	WebSocket      http.Handler // Mounted at livechat.Endpoint when set
	AllowedOrigins []string
	Logger         livechat.Logger
}

// NewRouter builds the gin engine with every route registered.
func NewRouter(cfg RouterConfig) *gin.Engine {
	logger := cfg.Logger
	if logger == nil {
		logger = &livechat.NoopLogger{}
	}

	r := gin.New()
	r.Use(gin.Recovery(), AccessLog(logger))

	corsConfig := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PATCH", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(cfg.AllowedOrigins) == 0 || (len(cfg.AllowedOrigins) == 1 && cfg.AllowedOrigins[0] == "*") {
		corsConfig.AllowOriginFunc = func(string) bool { return true }
	} else {
		corsConfig.AllowOrigins = cfg.AllowedOrigins
	}
	r.Use(cors.New(corsConfig))

	if cfg.WebSocket != nil {
		r.GET(livechat.Endpoint, gin.WrapH(cfg.WebSocket))
	}

	h := cfg.Handler
	r.GET("/api/health", h.HandleHealth)

	protected := r.Group("/api")
	protected.Use(h.AuthMiddleware(cfg.Auth))
	{
		protected.POST("/products/:productId/chat-rooms", h.HandleCreateRoom)
		protected.PATCH("/chat/rooms/:roomId/status", h.HandleUpdateStatus)
		protected.GET("/chat-rooms/:chatRoomId/messages", h.HandleListMessages)
	}

	return r
}
