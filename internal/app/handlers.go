package app

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type createPlanRequest struct {
	UserInput string `json:"user_input" binding:"required"`
	Mode      string `json:"mode"`
}

func (a *App) handleCreatePlan(c *gin.Context) {
	var req createPlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "user_input is required"})
		return
	}
	if req.Mode == "" {
		req.Mode = "foodie"
	}
	a.Log.Info("plan request accepted",
		"request_id", c.GetString("request_id"),
		"mode", req.Mode,
	)

	doc, err := a.Orchestrator.Run(c.Request.Context(), req.UserInput, req.Mode)
	if err != nil {
		// An aborted run and a no-data run look identical to callers; the
		// logs carry the cause.
		c.JSON(http.StatusBadGateway, gin.H{"error": "plan generation failed"})
		return
	}
	c.JSON(http.StatusOK, doc)
}

func (a *App) handleHealth(c *gin.Context) {
	graphStatus := "disconnected"
	if a.Graph.Connected() {
		graphStatus = "connected"
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "graph": graphStatus})
}
