package router

import (
	"github.com/gin-gonic/gin"

	"github.com/XadielF/hipotrack/internal/http/handler"
)

func ConversationRouter(rg *gin.RouterGroup, conv *handler.ConversationHandler, msg *handler.MessageHandler) {
	rg.GET("", conv.List)
	rg.GET("/:id", conv.Get)
	rg.GET("/:id/messages", msg.List)
	rg.POST("/:id/messages", msg.Create)
}

func MessageRouter(rg *gin.RouterGroup, msg *handler.MessageHandler) {
	rg.GET("/:messageId/attachments", msg.ListAttachments)
	rg.POST("/:messageId/attachments", msg.CreateAttachment)
}
