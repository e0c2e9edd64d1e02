package server

import (
	"net/http"
	"strings"
	"time"

	requestdomain "github.com/brightfold/portal/internal/request/domain"
	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
)

type createRequestBody struct {
	ClientID string         `json:"client_id"`
	Title    string         `json:"title" binding:"required"`
	Fields   map[string]any `json:"fields"`
	DueDate  *time.Time     `json:"due_date"`
}

// CreateRequest accepts work from either side. Client actors always file
// under their own client; the body's client_id only matters for staff.
func (s *Server) CreateRequest(c *gin.Context) {
	var body createRequestBody
	if err := c.ShouldBindJSON(&body); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	act := currentActor(c)
	req := requestdomain.CreateRequestRequest{
		Title:   body.Title,
		Fields:  body.Fields,
		DueDate: body.DueDate,
	}
	if act.IsClient() {
		req.ClientID = act.ClientID
	} else {
		clientID, err := snowflake.ParseString(strings.TrimSpace(body.ClientID))
		if err != nil {
			AbortWithError(c, newValidationError("client_id", "invalid_id", "invalid client id"))
			return
		}
		req.ClientID = clientID
	}

	item, err := s.requestSvc.Create(c.Request.Context(), act.ID, req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": item})
}

func (s *Server) ListRequests(c *gin.Context) {
	req := requestdomain.ListRequestRequest{}

	if raw := strings.TrimSpace(c.Query("status")); raw != "" {
		status := requestdomain.RequestStatus(raw)
		if !requestdomain.ValidStatus(status) {
			AbortWithError(c, newValidationError("status", "invalid_status", "invalid status"))
			return
		}
		req.Status = &status
	}

	if act := currentActor(c); act.IsClient() {
		clientID := act.ClientID
		req.ClientScope = &clientID
	}

	items, err := s.requestSvc.List(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": items})
}

func (s *Server) GetRequestByID(c *gin.Context) {
	id, err := snowflake.ParseString(strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, newValidationError("id", "invalid_id", "invalid id"))
		return
	}

	item, err := s.requestSvc.GetByID(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	if act := currentActor(c); act.IsClient() && act.ClientID != item.ClientID {
		AbortWithError(c, ErrForbidden)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": item})
}

type updateRequestBody struct {
	Status  *string    `json:"status"`
	DueDate *time.Time `json:"due_date"`
}

func (s *Server) UpdateRequest(c *gin.Context) {
	id, err := snowflake.ParseString(strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, newValidationError("id", "invalid_id", "invalid id"))
		return
	}

	var body updateRequestBody
	if err := c.ShouldBindJSON(&body); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	req := requestdomain.UpdateRequestRequest{ID: id, DueDate: body.DueDate}
	if body.Status != nil {
		status := requestdomain.RequestStatus(*body.Status)
		req.Status = &status
	}

	item, err := s.requestSvc.Update(c.Request.Context(), currentActor(c).ID, req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": item})
}
