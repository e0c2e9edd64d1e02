package server

import (
	"net/http"
	"strings"

	messagedomain "github.com/brightfold/portal/internal/message/domain"
	"github.com/gin-gonic/gin"
)

type postMessageBody struct {
	ThreadID string `json:"thread_id"`
	Body     string `json:"body" binding:"required"`
}

// PostMessage appends to a conversation thread. Threads are keyed by client
// id; client actors are pinned to their own thread.
func (s *Server) PostMessage(c *gin.Context) {
	var body postMessageBody
	if err := c.ShouldBindJSON(&body); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	act := currentActor(c)
	threadID := strings.TrimSpace(body.ThreadID)
	if act.IsClient() {
		threadID = act.ClientID.String()
	}

	item, err := s.messageSvc.Post(c.Request.Context(), act.ID, messagedomain.PostMessageRequest{
		ThreadID: threadID,
		Body:     body.Body,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": item})
}

func (s *Server) ListMessages(c *gin.Context) {
	act := currentActor(c)
	threadID := strings.TrimSpace(c.Query("thread_id"))
	if act.IsClient() {
		threadID = act.ClientID.String()
	}
	if threadID == "" {
		AbortWithError(c, newValidationError("thread_id", "invalid_thread", "thread_id is required"))
		return
	}

	items, err := s.messageSvc.ListThread(c.Request.Context(), threadID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": items})
}
