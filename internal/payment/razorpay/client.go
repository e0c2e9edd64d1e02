// Package razorpay is a thin client for the Razorpay Orders API. Only the
// calls the portal needs are implemented.
package razorpay

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/brightfold/portal/internal/config"
	"github.com/brightfold/portal/internal/payment/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type Params struct {
	fx.In

	Cfg config.Config
	Log *zap.Logger
}

type Client struct {
	baseURL   string
	keyID     string
	keySecret string
	http      *http.Client
	log       *zap.Logger
}

func NewClient(p Params) domain.Gateway {
	return &Client{
		baseURL:   p.Cfg.RazorpayBaseURL,
		keyID:     p.Cfg.RazorpayKeyID,
		keySecret: p.Cfg.RazorpayKeySecret,
		http:      &http.Client{Timeout: p.Cfg.GatewayTimeout},
		log:       p.Log.Named("razorpay"),
	}
}

type orderRequest struct {
	Amount   int64             `json:"amount"`
	Currency string            `json:"currency"`
	Receipt  string            `json:"receipt,omitempty"`
	Notes    map[string]string `json:"notes,omitempty"`
}

type orderResponse struct {
	ID       string `json:"id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Status   string `json:"status"`
}

// CreateOrder opens a checkout order with the gateway. Amount is passed in
// minor units, exactly as Razorpay expects it.
func (c *Client) CreateOrder(ctx context.Context, req domain.CreateOrderRequest) (*domain.Order, error) {
	body, err := json.Marshal(orderRequest{
		Amount:   req.AmountMinor,
		Currency: req.Currency,
		Receipt:  req.Receipt,
		Notes:    req.Notes,
	})
	if err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/orders", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	httpReq.SetBasicAuth(c.keyID, c.keySecret)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, &domain.GatewayError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		c.log.Warn("order creation rejected",
			zap.Int("status", resp.StatusCode),
			zap.ByteString("body", snippet),
		)
		return nil, &domain.GatewayError{
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("create order: status %d", resp.StatusCode),
		}
	}

	var order orderResponse
	if err := json.NewDecoder(resp.Body).Decode(&order); err != nil {
		return nil, &domain.GatewayError{Err: err}
	}
	if order.ID == "" {
		return nil, &domain.GatewayError{Err: fmt.Errorf("create order: empty order id")}
	}

	return &domain.Order{ID: order.ID}, nil
}
