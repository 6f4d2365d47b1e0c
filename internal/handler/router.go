package handler

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/inboxmem/inboxmem/internal/middleware"
)

type RouterDeps struct {
	Webhook   *WebhookHandler
	KB        *KBHandler
	JWTSecret []byte
}

func RegisterRoutes(api *gin.RouterGroup, deps RouterDeps) {
	api.POST("/webhook/inbound", deps.Webhook.Inbound)

	authGroup := api.Group("")
	authGroup.Use(middleware.JWTAuth(deps.JWTSecret))
	authGroup.POST("/kb/ask", middleware.RateLimit(time.Second), deps.KB.Ask)
	authGroup.GET("/kb/emails", deps.KB.ListEmails)
	authGroup.GET("/kb/emails/:id/raw", deps.KB.GetRawEmail)
	authGroup.DELETE("/kb/emails/:id", deps.KB.DeleteEmail)
}
