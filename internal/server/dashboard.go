package server

import (
	"net/http"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
)

func (s *Server) GetDashboard(c *gin.Context) {
	var scope *snowflake.ID
	if act := currentActor(c); act.IsClient() {
		clientID := act.ClientID
		scope = &clientID
	}

	summary, err := s.dashboardSvc.Summarize(c.Request.Context(), scope)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": summary})
}
