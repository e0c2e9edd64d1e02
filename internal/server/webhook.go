package server

import (
	"errors"
	"io"
	"net/http"

	paymentdomain "github.com/brightfold/portal/internal/payment/domain"
	"github.com/gin-gonic/gin"
)

// HandleRazorpayWebhook verifies and applies a gateway delivery. Verified
// no-ops still get a 200 so the gateway stops redelivering; only an invalid
// signature or payload earns a 4xx, and infra failures a 5xx so the gateway
// retries them.
func (s *Server) HandleRazorpayWebhook(c *gin.Context) {
	payload, err := io.ReadAll(c.Request.Body)
	if err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	signature := c.GetHeader("X-Razorpay-Signature")
	if err := s.webhookSvc.Process(c.Request.Context(), payload, signature); err != nil {
		switch {
		case errors.Is(err, paymentdomain.ErrInvalidSignature):
			AbortWithError(c, newValidationError("signature", "invalid_signature", "invalid signature"))
		case errors.Is(err, paymentdomain.ErrInvalidPayload):
			AbortWithError(c, newValidationError("payload", "invalid_payload", "invalid payload"))
		default:
			AbortWithError(c, ErrInternal)
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
