package service

import (
	"context"

	"github.com/brightfold/portal/internal/actor"
	auditdomain "github.com/brightfold/portal/internal/audit/domain"
	"github.com/brightfold/portal/internal/config"
	invoicedomain "github.com/brightfold/portal/internal/invoice/domain"
	"github.com/brightfold/portal/internal/money"
	paymentdomain "github.com/brightfold/portal/internal/payment/domain"
	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type CheckoutParams struct {
	fx.In

	DB          *gorm.DB
	Log         *zap.Logger
	Cfg         config.Config
	AuditSvc    auditdomain.Service
	Gateway     paymentdomain.Gateway
	InvoiceRepo invoicedomain.Repository
}

type CheckoutService struct {
	db          *gorm.DB
	log         *zap.Logger
	cfg         config.Config
	auditSvc    auditdomain.Service
	gateway     paymentdomain.Gateway
	invoiceRepo invoicedomain.Repository
}

func NewCheckoutService(p CheckoutParams) paymentdomain.CheckoutService {
	return &CheckoutService{
		db:          p.DB,
		log:         p.Log.Named("payment.checkout"),
		cfg:         p.Cfg,
		auditSvc:    p.AuditSvc,
		gateway:     p.Gateway,
		invoiceRepo: p.InvoiceRepo,
	}
}

// Initiate opens a gateway order for the invoice and returns checkout
// details for the browser. The order id is written back only after the
// gateway call succeeds, so a failed call leaves the invoice untouched.
func (s *CheckoutService) Initiate(ctx context.Context, invoiceID snowflake.ID) (*paymentdomain.CheckoutDetails, error) {
	invoice, err := s.invoiceRepo.FindByID(ctx, s.db, invoiceID)
	if err != nil {
		return nil, err
	}
	if invoice == nil {
		return nil, invoicedomain.ErrNotFound
	}

	act, ok := actor.FromContext(ctx)
	if ok && act.IsClient() && act.ClientID != invoice.ClientID {
		return nil, paymentdomain.ErrForbidden
	}

	if invoice.Status == invoicedomain.InvoiceStatusPaid {
		return nil, paymentdomain.ErrAlreadyPaid
	}

	order, err := s.gateway.CreateOrder(ctx, paymentdomain.CreateOrderRequest{
		AmountMinor: money.MinorUnits(invoice.TotalAmount),
		Currency:    invoice.Currency,
		Receipt:     invoice.InvoiceNumber,
		Notes: map[string]string{
			"invoice_id": invoice.ID.String(),
			"client_id":  invoice.ClientID.String(),
		},
	})
	if err != nil {
		return nil, err
	}

	if err := s.invoiceRepo.UpdateGatewayOrderID(ctx, s.db, invoice.ID, order.ID); err != nil {
		return nil, err
	}

	_ = s.auditSvc.Record(ctx, act.ID, "invoice.payment_initiated", "Invoice", invoice.ID.String(), map[string]any{
		"gateway_order_id": order.ID,
		"amount":           invoice.TotalAmount.String(),
	})

	clientName := ""
	if invoice.Client != nil {
		clientName = invoice.Client.Name
	}

	return &paymentdomain.CheckoutDetails{
		OrderID:       order.ID,
		AmountMinor:   money.MinorUnits(invoice.TotalAmount),
		Currency:      invoice.Currency,
		KeyID:         s.cfg.RazorpayKeyID,
		InvoiceNumber: invoice.InvoiceNumber,
		ClientName:    clientName,
	}, nil
}
