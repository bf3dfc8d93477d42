package router

import (
	"github.com/gin-gonic/gin"

	"z-novel-assistant/internal/interfaces/http/handler"
)

// RegisterV1Routes 注册 v1 版本路由，均需认证
func RegisterV1Routes(v1 *gin.RouterGroup, auth gin.HandlerFunc, assistantHandler *handler.AssistantHandler) {
	v1.Use(auth)

	assistant := v1.Group("/assistant")
	{
		assistant.POST("/stream", assistantHandler.Stream)
	}
}
