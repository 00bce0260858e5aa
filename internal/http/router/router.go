package router

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/XadielF/hipotrack/internal/http/handler"
	"github.com/XadielF/hipotrack/internal/http/middleware"
	"github.com/XadielF/hipotrack/internal/messaging"
	"github.com/XadielF/hipotrack/internal/search"
	"github.com/XadielF/hipotrack/internal/service"
	"github.com/XadielF/hipotrack/internal/store"
)

type RouterConfig struct {
	DashboardURL string
	IsProduction bool
}

type Deps struct {
	AuthService service.AuthService
	Backend     messaging.Backend
	Stores      *store.Stores
	Index       search.Index // nil when search is not configured
}

func SetupRoutes(router *gin.Engine, deps Deps, cfg RouterConfig) {
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	authHandler := handler.NewAuthHandler(deps.AuthService, cfg.DashboardURL, cfg.IsProduction)
	AuthRouter(router.Group("/auth"), authHandler, deps.AuthService)

	requireSession := middleware.RequireSession(deps.AuthService)

	fileHandler := handler.NewFileHandler(deps.Stores.Blobs())
	router.GET("/files/*path", requireSession, fileHandler.Get)

	v1 := router.Group("/api/v1", requireSession)
	{
		conversationHandler := handler.NewConversationHandler(deps.Backend, deps.Stores.Conversations())
		messageHandler := handler.NewMessageHandler(deps.Backend, deps.Stores.Conversations(), deps.Stores.Messages())
		ConversationRouter(v1.Group("/conversations"), conversationHandler, messageHandler)
		MessageRouter(v1.Group("/messages"), messageHandler)

		if deps.Index != nil {
			searchHandler := handler.NewSearchHandler(deps.Index, deps.Stores.Conversations())
			v1.GET("/search", searchHandler.Search)
		}
	}
}
