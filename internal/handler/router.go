package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// NewRouter wires the API routes
func NewRouter(resources *ResourceHandler, ws *WSHandler) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(corsMiddleware())

	api := r.Group("/api")
	{
		api.GET("/resources", resources.ListResources)
		api.POST("/resources", resources.AddResource)
		api.DELETE("/resources/:name", resources.RemoveResource)
		api.GET("/resources/:name/fresh", resources.GetFresh)
		api.GET("/resources/:name/content", resources.GetContent)
		api.GET("/resources/:name/files", resources.GetFiles)
		api.GET("/resources/:name/html", resources.GetHTML)
		api.GET("/ws", ws.HandleWS)
	}

	return r
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
