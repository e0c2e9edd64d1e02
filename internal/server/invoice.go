package server

import (
	"net/http"
	"strings"
	"time"

	invoicedomain "github.com/brightfold/portal/internal/invoice/domain"
	"github.com/brightfold/portal/pkg/db/pagination"
	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

type createInvoiceLineBody struct {
	ServiceID   string           `json:"service_id"`
	Description string           `json:"description"`
	Quantity    int64            `json:"quantity"`
	UnitPrice   *decimal.Decimal `json:"unit_price"`
	TaxRate     *decimal.Decimal `json:"tax_rate"`
}

type createInvoiceBody struct {
	ClientID string                  `json:"client_id" binding:"required"`
	Currency string                  `json:"currency"`
	Notes    string                  `json:"notes"`
	DueDate  *time.Time              `json:"due_date"`
	Lines    []createInvoiceLineBody `json:"lines"`
}

func (s *Server) CreateInvoice(c *gin.Context) {
	var body createInvoiceBody
	if err := c.ShouldBindJSON(&body); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	clientID, err := snowflake.ParseString(body.ClientID)
	if err != nil {
		AbortWithError(c, newValidationError("client_id", "invalid_id", "invalid client id"))
		return
	}

	req := invoicedomain.CreateInvoiceRequest{
		ClientID: clientID,
		Currency: body.Currency,
		Notes:    body.Notes,
		DueDate:  body.DueDate,
	}
	for _, l := range body.Lines {
		line := invoicedomain.CreateLineRequest{
			Description: l.Description,
			Quantity:    l.Quantity,
			UnitPrice:   l.UnitPrice,
			TaxRate:     l.TaxRate,
		}
		if strings.TrimSpace(l.ServiceID) != "" {
			serviceID, err := snowflake.ParseString(l.ServiceID)
			if err != nil {
				AbortWithError(c, newValidationError("lines.service_id", "invalid_id", "invalid service id"))
				return
			}
			line.ServiceID = &serviceID
		}
		req.Lines = append(req.Lines, line)
	}

	item, err := s.invoiceSvc.Create(c.Request.Context(), currentActor(c).ID, req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": item})
}

func (s *Server) ListInvoices(c *gin.Context) {
	var page pagination.Pagination
	if err := c.ShouldBindQuery(&page); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	req := invoicedomain.ListInvoiceRequest{Pagination: page}

	if raw := strings.TrimSpace(c.Query("status")); raw != "" {
		status := invoicedomain.InvoiceStatus(raw)
		if !invoicedomain.ValidStatus(status) {
			AbortWithError(c, newValidationError("status", "invalid_status", "invalid status"))
			return
		}
		req.Status = &status
	}

	if act := currentActor(c); act.IsClient() {
		clientID := act.ClientID
		req.ClientScope = &clientID
	}

	resp, err := s.invoiceSvc.List(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data":      resp.Invoices,
		"page_info": resp.PageInfo,
	})
}

func (s *Server) GetInvoiceByID(c *gin.Context) {
	id, err := snowflake.ParseString(strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, newValidationError("id", "invalid_id", "invalid id"))
		return
	}

	item, err := s.invoiceSvc.GetByID(c.Request.Context(), id)
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

type updateInvoiceBody struct {
	Status  *string    `json:"status"`
	DueDate *time.Time `json:"due_date"`
	Notes   *string    `json:"notes"`
}

func (s *Server) UpdateInvoice(c *gin.Context) {
	id, err := snowflake.ParseString(strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, newValidationError("id", "invalid_id", "invalid id"))
		return
	}

	var body updateInvoiceBody
	if err := c.ShouldBindJSON(&body); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	req := invoicedomain.UpdateInvoiceRequest{
		ID:      id,
		DueDate: body.DueDate,
		Notes:   body.Notes,
	}
	if body.Status != nil {
		status := invoicedomain.InvoiceStatus(*body.Status)
		req.Status = &status
	}

	item, err := s.invoiceSvc.Update(c.Request.Context(), currentActor(c).ID, req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": item})
}
