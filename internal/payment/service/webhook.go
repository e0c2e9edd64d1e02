package service

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"

	"github.com/brightfold/portal/internal/actor"
	auditdomain "github.com/brightfold/portal/internal/audit/domain"
	"github.com/brightfold/portal/internal/config"
	invoicedomain "github.com/brightfold/portal/internal/invoice/domain"
	"github.com/brightfold/portal/internal/money"
	paymentdomain "github.com/brightfold/portal/internal/payment/domain"
	pkgdb "github.com/brightfold/portal/pkg/db"
	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type WebhookParams struct {
	fx.In

	DB          *gorm.DB
	Log         *zap.Logger
	Cfg         config.Config
	GenID       *snowflake.Node
	AuditSvc    auditdomain.Service
	InvoiceRepo invoicedomain.Repository
	PaymentRepo paymentdomain.Repository
}

type WebhookService struct {
	db          *gorm.DB
	log         *zap.Logger
	secret      []byte
	genID       *snowflake.Node
	auditSvc    auditdomain.Service
	invoiceRepo invoicedomain.Repository
	paymentRepo paymentdomain.Repository
}

func NewWebhookService(p WebhookParams) paymentdomain.WebhookService {
	return &WebhookService{
		db:          p.DB,
		log:         p.Log.Named("payment.webhook"),
		secret:      []byte(p.Cfg.RazorpayWebhookSecret),
		genID:       p.GenID,
		auditSvc:    p.AuditSvc,
		invoiceRepo: p.InvoiceRepo,
		paymentRepo: p.PaymentRepo,
	}
}

// Process verifies the delivery signature and applies the event. Events the
// portal does not track, and events for orders it does not know, are
// acknowledged without side effects so the gateway stops redelivering them.
func (s *WebhookService) Process(ctx context.Context, body []byte, signature string) error {
	if err := s.verify(body, signature); err != nil {
		return err
	}

	event, err := decodeEvent(body)
	if err != nil {
		return err
	}

	switch ev := event.(type) {
	case capturedEvent:
		return s.handleCaptured(ctx, ev)
	case failedEvent:
		return s.handleFailed(ctx, ev)
	case refundEvent:
		return s.handleRefund(ctx, ev)
	case ignoredEvent:
		s.log.Debug("ignoring webhook event", zap.String("event", ev.name))
		return nil
	default:
		return nil
	}
}

// verify checks the HMAC-SHA256 hex signature over the exact raw body.
func (s *WebhookService) verify(body []byte, signature string) error {
	if len(s.secret) == 0 || signature == "" {
		return paymentdomain.ErrInvalidSignature
	}
	mac := hmac.New(sha256.New, s.secret)
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))
	if !hmac.Equal([]byte(expected), []byte(signature)) {
		return paymentdomain.ErrInvalidSignature
	}
	return nil
}

// capturedEvent, failedEvent, refundEvent and ignoredEvent are the decoded
// variants of a gateway delivery; decodeEvent returns exactly one of them.
type capturedEvent struct {
	orderID     string
	paymentID   string
	amountMinor int64
	currency    string
}

type failedEvent struct {
	orderID string
}

type refundEvent struct {
	paymentID string
}

type ignoredEvent struct {
	name string
}

type webhookEnvelope struct {
	Event   string `json:"event"`
	Payload struct {
		Payment struct {
			Entity struct {
				ID       string `json:"id"`
				OrderID  string `json:"order_id"`
				Amount   int64  `json:"amount"`
				Currency string `json:"currency"`
			} `json:"entity"`
		} `json:"payment"`
		Refund struct {
			Entity struct {
				ID        string `json:"id"`
				PaymentID string `json:"payment_id"`
			} `json:"entity"`
		} `json:"refund"`
	} `json:"payload"`
}

func decodeEvent(body []byte) (any, error) {
	var env webhookEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, paymentdomain.ErrInvalidPayload
	}

	switch env.Event {
	case "payment.captured":
		p := env.Payload.Payment.Entity
		if p.ID == "" || p.OrderID == "" {
			return nil, paymentdomain.ErrInvalidPayload
		}
		return capturedEvent{
			orderID:     p.OrderID,
			paymentID:   p.ID,
			amountMinor: p.Amount,
			currency:    p.Currency,
		}, nil
	case "payment.failed":
		p := env.Payload.Payment.Entity
		if p.OrderID == "" {
			return nil, paymentdomain.ErrInvalidPayload
		}
		return failedEvent{orderID: p.OrderID}, nil
	case "refund.created":
		r := env.Payload.Refund.Entity
		if r.PaymentID == "" {
			return nil, paymentdomain.ErrInvalidPayload
		}
		return refundEvent{paymentID: r.PaymentID}, nil
	case "":
		return nil, paymentdomain.ErrInvalidPayload
	default:
		return ignoredEvent{name: env.Event}, nil
	}
}

// handleCaptured records the payment and flips the invoice to paid in one
// transaction. A redelivered capture finds its payment row already there and
// becomes a no-op; the unique index on gateway_payment_id backstops the
// race between two concurrent deliveries.
func (s *WebhookService) handleCaptured(ctx context.Context, ev capturedEvent) error {
	invoice, err := s.invoiceRepo.FindByGatewayOrderID(ctx, s.db, ev.orderID)
	if err != nil {
		return err
	}
	if invoice == nil {
		s.log.Info("capture for unknown order", zap.String("gateway_order_id", ev.orderID))
		return nil
	}

	replayed := false
	now := time.Now().UTC()
	err = s.db.Transaction(func(tx *gorm.DB) error {
		existing, err := s.paymentRepo.FindByGatewayPaymentID(ctx, tx, ev.paymentID)
		if err != nil {
			return err
		}
		if existing != nil {
			replayed = true
			return nil
		}

		payment := &paymentdomain.Payment{
			ID:               s.genID.Generate(),
			InvoiceID:        invoice.ID,
			GatewayOrderID:   ev.orderID,
			GatewayPaymentID: ev.paymentID,
			Amount:           money.FromMinorUnits(ev.amountMinor),
			Currency:         ev.currency,
			Status:           paymentdomain.PaymentStatusSucceeded,
			PaidAt:           now,
			CreatedAt:        now,
		}
		if err := s.paymentRepo.Insert(ctx, tx, payment); err != nil {
			return err
		}
		return s.invoiceRepo.UpdateStatus(ctx, tx, invoice.ID, invoicedomain.InvoiceStatusPaid)
	})
	if err != nil {
		if pkgdb.IsDuplicateKeyErr(err) {
			s.log.Info("duplicate capture delivery", zap.String("gateway_payment_id", ev.paymentID))
			return nil
		}
		return err
	}
	if replayed {
		return nil
	}

	_ = s.auditSvc.Record(ctx, actor.Gateway.ID, "invoice.paid", "Invoice", invoice.ID.String(), map[string]any{
		"gateway_payment_id": ev.paymentID,
		"amount":             money.FromMinorUnits(ev.amountMinor).String(),
	})

	return nil
}

// handleFailed returns the invoice to pending so the client can retry. A
// failure that arrives after a successful capture for the same order is
// stale and must not regress the paid invoice.
func (s *WebhookService) handleFailed(ctx context.Context, ev failedEvent) error {
	invoice, err := s.invoiceRepo.FindByGatewayOrderID(ctx, s.db, ev.orderID)
	if err != nil {
		return err
	}
	if invoice == nil {
		return nil
	}

	succeeded, err := s.paymentRepo.FindSucceededByOrderID(ctx, s.db, ev.orderID)
	if err != nil {
		return err
	}
	if succeeded != nil {
		s.log.Info("stale failure after capture", zap.String("gateway_order_id", ev.orderID))
		return nil
	}

	if err := s.invoiceRepo.UpdateStatus(ctx, s.db, invoice.ID, invoicedomain.InvoiceStatusPending); err != nil {
		return err
	}

	_ = s.auditSvc.Record(ctx, actor.Gateway.ID, "invoice.payment_failed", "Invoice", invoice.ID.String(), map[string]any{
		"gateway_order_id": ev.orderID,
	})

	return nil
}

func (s *WebhookService) handleRefund(ctx context.Context, ev refundEvent) error {
	payment, err := s.paymentRepo.FindByGatewayPaymentID(ctx, s.db, ev.paymentID)
	if err != nil {
		return err
	}
	if payment == nil {
		s.log.Info("refund for unknown payment", zap.String("gateway_payment_id", ev.paymentID))
		return nil
	}

	if err := s.invoiceRepo.UpdateStatus(ctx, s.db, payment.InvoiceID, invoicedomain.InvoiceStatusRefunded); err != nil {
		return err
	}

	_ = s.auditSvc.Record(ctx, actor.Gateway.ID, "invoice.refunded", "Invoice", payment.InvoiceID.String(), map[string]any{
		"gateway_payment_id": ev.paymentID,
	})

	return nil
}
