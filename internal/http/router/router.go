package router

import (
	"github.com/gin-gonic/gin"

	"autodraft.app/assistant/internal/http/handler"
)

func SetupRoutes(router *gin.Engine, status *handler.StatusHandler) {
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	v1 := router.Group("/api/v1")
	{
		runs := v1.Group("/runs")
		runs.GET("/last", status.Last)
		runs.GET("/recent", status.Recent)
	}
}
