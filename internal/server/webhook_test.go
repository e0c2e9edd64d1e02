package server

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	paymentdomain "github.com/brightfold/portal/internal/payment/domain"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeWebhookService struct {
	err       error
	gotBody   []byte
	gotHeader string
}

func (f *fakeWebhookService) Process(ctx context.Context, body []byte, signature string) error {
	_ = ctx
	f.gotBody = body
	f.gotHeader = signature
	return f.err
}

func newWebhookTestServer(svc paymentdomain.WebhookService) *Server {
	gin.SetMode(gin.TestMode)
	engine := gin.New()
	engine.Use(ErrorHandlingMiddleware())

	s := &Server{engine: engine, webhookSvc: svc}
	s.registerWebhookRoutes()
	return s
}

func postWebhook(s *Server, body []byte, signature string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/webhooks/razorpay", bytes.NewReader(body))
	if signature != "" {
		req.Header.Set("X-Razorpay-Signature", signature)
	}
	w := httptest.NewRecorder()
	s.engine.ServeHTTP(w, req)
	return w
}

func TestWebhookPassesRawBodyAndSignature(t *testing.T) {
	fake := &fakeWebhookService{}
	s := newWebhookTestServer(fake)

	body := []byte(`{"event":"payment.captured","payload":{}}`)
	w := postWebhook(s, body, "sig-value")

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, body, fake.gotBody)
	assert.Equal(t, "sig-value", fake.gotHeader)
}

func TestWebhookInvalidSignatureIs400(t *testing.T) {
	fake := &fakeWebhookService{err: paymentdomain.ErrInvalidSignature}
	s := newWebhookTestServer(fake)

	w := postWebhook(s, []byte(`{}`), "bad")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestWebhookInvalidPayloadIs400(t *testing.T) {
	fake := &fakeWebhookService{err: paymentdomain.ErrInvalidPayload}
	s := newWebhookTestServer(fake)

	w := postWebhook(s, []byte(`{`), "sig")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

// Infra failures must bounce so the gateway redelivers the event.
func TestWebhookInternalFailureIs500(t *testing.T) {
	fake := &fakeWebhookService{err: context.DeadlineExceeded}
	s := newWebhookTestServer(fake)

	w := postWebhook(s, []byte(`{}`), "sig")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}
