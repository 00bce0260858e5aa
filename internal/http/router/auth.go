package router

import (
	"github.com/gin-gonic/gin"

	"github.com/XadielF/hipotrack/internal/http/handler"
	"github.com/XadielF/hipotrack/internal/http/middleware"
	"github.com/XadielF/hipotrack/internal/service"
)

func AuthRouter(rg *gin.RouterGroup, h *handler.AuthHandler, authService service.AuthService) {
	rg.GET("/login", h.Login)
	rg.GET("/callback", h.Callback)
	rg.POST("/logout", h.Logout)
	rg.GET("/me", middleware.RequireSession(authService), h.Me)
}
