package app

import (
	"strings"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const headerRequestID = "X-Request-Id"

// attachRequestID tags every request with an ID so a pipeline run can be
// traced across the stage logs.
func attachRequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		reqID := strings.TrimSpace(c.GetHeader(headerRequestID))
		if reqID == "" {
			reqID = uuid.New().String()
		}
		c.Set("request_id", reqID)
		c.Writer.Header().Set(headerRequestID, reqID)
		c.Next()
	}
}

func newRouter(a *App) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(attachRequestID())
	router.Use(cors.Default())

	router.GET("/healthz", a.handleHealth)

	v1 := router.Group("/api/v1")
	{
		v1.POST("/plans", a.handleCreatePlan)
	}
	return router
}
