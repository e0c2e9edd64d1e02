package server

import (
	"net/http"
	"strings"

	clientdomain "github.com/brightfold/portal/internal/client/domain"
	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
)

type createClientBody struct {
	Name           string `json:"name" binding:"required"`
	BillingAddress string `json:"billing_address"`
	Timezone       string `json:"timezone"`
	Currency       string `json:"currency"`
}

func (s *Server) CreateClient(c *gin.Context) {
	var body createClientBody
	if err := c.ShouldBindJSON(&body); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	item, err := s.clientSvc.Create(c.Request.Context(), currentActor(c).ID, clientdomain.CreateClientRequest{
		Name:           body.Name,
		BillingAddress: body.BillingAddress,
		Timezone:       body.Timezone,
		Currency:       body.Currency,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": item})
}

func (s *Server) ListClients(c *gin.Context) {
	items, err := s.clientSvc.List(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": items})
}

func (s *Server) GetClientByID(c *gin.Context) {
	id, err := snowflake.ParseString(strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, newValidationError("id", "invalid_id", "invalid id"))
		return
	}

	item, err := s.clientSvc.GetByID(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": item})
}

type updateClientBody struct {
	Name           *string `json:"name"`
	BillingAddress *string `json:"billing_address"`
	Currency       *string `json:"currency"`
	Status         *string `json:"status"`
}

func (s *Server) UpdateClient(c *gin.Context) {
	id, err := snowflake.ParseString(strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, newValidationError("id", "invalid_id", "invalid id"))
		return
	}

	var body updateClientBody
	if err := c.ShouldBindJSON(&body); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	req := clientdomain.UpdateClientRequest{
		ID:             id,
		Name:           body.Name,
		BillingAddress: body.BillingAddress,
		Currency:       body.Currency,
	}
	if body.Status != nil {
		status := clientdomain.ClientStatus(*body.Status)
		req.Status = &status
	}

	item, err := s.clientSvc.Update(c.Request.Context(), currentActor(c).ID, req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": item})
}
