package service

import (
	"context"
	"strings"
	"time"

	auditdomain "github.com/brightfold/portal/internal/audit/domain"
	catalogdomain "github.com/brightfold/portal/internal/catalog/domain"
	clientdomain "github.com/brightfold/portal/internal/client/domain"
	invoicedomain "github.com/brightfold/portal/internal/invoice/domain"
	"github.com/brightfold/portal/internal/money"
	paymentdomain "github.com/brightfold/portal/internal/payment/domain"
	"github.com/brightfold/portal/internal/sequence"
	pkgdb "github.com/brightfold/portal/pkg/db"
	"github.com/brightfold/portal/pkg/db/pagination"
	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB          *gorm.DB
	Log         *zap.Logger
	GenID       *snowflake.Node
	Seq         *sequence.Generator
	AuditSvc    auditdomain.Service
	Repo        invoicedomain.Repository
	ClientRepo  clientdomain.Repository
	CatalogRepo catalogdomain.Repository
	PaymentRepo paymentdomain.Repository
}

type Service struct {
	db          *gorm.DB
	log         *zap.Logger
	genID       *snowflake.Node
	seq         *sequence.Generator
	auditSvc    auditdomain.Service
	repo        invoicedomain.Repository
	clientRepo  clientdomain.Repository
	catalogRepo catalogdomain.Repository
	paymentRepo paymentdomain.Repository
}

func NewService(p Params) invoicedomain.Service {
	return &Service{
		db:          p.DB,
		log:         p.Log.Named("invoice.service"),
		genID:       p.GenID,
		seq:         p.Seq,
		auditSvc:    p.AuditSvc,
		repo:        p.Repo,
		clientRepo:  p.ClientRepo,
		catalogRepo: p.CatalogRepo,
		paymentRepo: p.PaymentRepo,
	}
}

// Create validates the lines, resolves catalog references, computes totals
// and persists the invoice with its number inside one transaction. A failed
// insert rolls the allocated number back with it.
func (s *Service) Create(ctx context.Context, actorID string, req invoicedomain.CreateInvoiceRequest) (*invoicedomain.Invoice, error) {
	client, err := s.clientRepo.FindByID(ctx, s.db, req.ClientID)
	if err != nil {
		return nil, err
	}
	if client == nil {
		return nil, clientdomain.ErrNotFound
	}

	if len(req.Lines) == 0 {
		return nil, invoicedomain.ErrEmptyLines
	}

	now := time.Now().UTC()
	lines := make([]invoicedomain.InvoiceLine, 0, len(req.Lines))
	calcLines := make([]money.Line, 0, len(req.Lines))
	for _, lr := range req.Lines {
		line, err := s.resolveLine(ctx, lr, now)
		if err != nil {
			return nil, err
		}
		lines = append(lines, *line)
		calcLines = append(calcLines, money.Line{
			Quantity:  line.Quantity,
			UnitPrice: line.UnitPrice,
			TaxRate:   line.TaxRate,
		})
	}

	totals := money.Calc(calcLines)

	currency := strings.ToUpper(strings.TrimSpace(req.Currency))
	if currency == "" {
		currency = client.Currency
	}

	invoice := &invoicedomain.Invoice{
		ID:          s.genID.Generate(),
		ClientID:    client.ID,
		Status:      invoicedomain.InvoiceStatusPending,
		Currency:    currency,
		Subtotal:    totals.Subtotal,
		TaxAmount:   totals.TaxAmount,
		TotalAmount: totals.TotalAmount,
		Notes:       strings.TrimSpace(req.Notes),
		IssuedAt:    now,
		DueDate:     req.DueDate,
		CreatedAt:   now,
		UpdatedAt:   now,
		Lines:       lines,
	}
	for i := range invoice.Lines {
		invoice.Lines[i].InvoiceID = invoice.ID
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		number, err := s.seq.NextInvoiceNumber(ctx, tx, now)
		if err != nil {
			return err
		}
		invoice.InvoiceNumber = number
		return s.repo.Insert(ctx, tx, invoice)
	})
	if err != nil {
		if pkgdb.IsDuplicateKeyErr(err) {
			return nil, invoicedomain.ErrNumberConflict
		}
		return nil, err
	}

	_ = s.auditSvc.Record(ctx, actorID, "invoice.created", "Invoice", invoice.ID.String(), map[string]any{
		"invoice_number": invoice.InvoiceNumber,
		"client_id":      invoice.ClientID.String(),
		"total_amount":   invoice.TotalAmount.String(),
	})

	invoice.Client = client
	return invoice, nil
}

// resolveLine fills a line from the catalog entry when one is referenced and
// the caller did not override price or tax. Copied values are frozen on the
// line; later catalog edits do not touch issued invoices.
func (s *Service) resolveLine(ctx context.Context, lr invoicedomain.CreateLineRequest, now time.Time) (*invoicedomain.InvoiceLine, error) {
	description := strings.TrimSpace(lr.Description)
	unitPrice := lr.UnitPrice
	taxRate := lr.TaxRate

	if lr.ServiceID != nil {
		svc, err := s.catalogRepo.FindByID(ctx, s.db, *lr.ServiceID)
		if err != nil {
			return nil, err
		}
		if svc == nil {
			return nil, catalogdomain.ErrNotFound
		}
		if description == "" {
			description = svc.Name
		}
		if unitPrice == nil {
			unitPrice = &svc.Price
		}
		if taxRate == nil {
			taxRate = &svc.TaxRate
		}
	}

	if description == "" {
		return nil, invoicedomain.ErrDescriptionRequired
	}
	if lr.Quantity <= 0 {
		return nil, invoicedomain.ErrInvalidQuantity
	}
	if unitPrice == nil || unitPrice.IsNegative() {
		return nil, invoicedomain.ErrInvalidUnitPrice
	}
	rate := decimal.Zero
	if taxRate != nil {
		rate = *taxRate
	}
	if rate.IsNegative() || rate.GreaterThan(decimal.NewFromInt(100)) {
		return nil, invoicedomain.ErrInvalidTaxRate
	}

	return &invoicedomain.InvoiceLine{
		ID:          s.genID.Generate(),
		ServiceID:   lr.ServiceID,
		Description: description,
		Quantity:    lr.Quantity,
		UnitPrice:   *unitPrice,
		TaxRate:     rate,
		LineTotal:   money.LineTotal(lr.Quantity, *unitPrice),
		CreatedAt:   now,
	}, nil
}

func (s *Service) GetByID(ctx context.Context, id snowflake.ID) (*invoicedomain.InvoiceDetail, error) {
	invoice, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	if invoice == nil {
		return nil, invoicedomain.ErrNotFound
	}

	payments, err := s.paymentRepo.ListByInvoiceID(ctx, s.db, invoice.ID)
	if err != nil {
		return nil, err
	}

	return &invoicedomain.InvoiceDetail{Invoice: *invoice, Payments: payments}, nil
}

func (s *Service) List(ctx context.Context, req invoicedomain.ListInvoiceRequest) (invoicedomain.ListInvoiceResponse, error) {
	limit := req.PageSize
	if limit <= 0 {
		limit = 20
	}

	filter := invoicedomain.ListFilter{
		Status:      req.Status,
		ClientScope: req.ClientScope,
		Limit:       limit,
	}

	if req.PageToken != "" {
		cursor, err := pagination.DecodeCursor(req.PageToken)
		if err != nil {
			return invoicedomain.ListInvoiceResponse{}, invoicedomain.ErrInvalidPageToken
		}
		createdAt, err := time.Parse(time.RFC3339Nano, cursor.CreatedAt)
		if err != nil {
			return invoicedomain.ListInvoiceResponse{}, invoicedomain.ErrInvalidPageToken
		}
		id, err := snowflake.ParseString(cursor.ID)
		if err != nil {
			return invoicedomain.ListInvoiceResponse{}, invoicedomain.ErrInvalidPageToken
		}
		filter.Cursor = &invoicedomain.Cursor{CreatedAt: createdAt, ID: id}
	}

	invoices, err := s.repo.List(ctx, s.db, filter)
	if err != nil {
		return invoicedomain.ListInvoiceResponse{}, err
	}

	invoices, pageInfo := pagination.BuildCursorPageInfo(invoices, limit, func(inv *invoicedomain.Invoice) string {
		token, _ := pagination.EncodeCursor(pagination.Cursor{
			ID:        inv.ID.String(),
			CreatedAt: inv.CreatedAt.Format(time.RFC3339Nano),
		})
		return token
	})

	return invoicedomain.ListInvoiceResponse{
		PageInfo: *pageInfo,
		Invoices: invoices,
	}, nil
}

// Update applies staff edits. Settlement states stay out of reach: `paid`
// and `refunded` can only be entered by the webhook reconciler, and an
// invoice already in a terminal state is immutable here.
func (s *Service) Update(ctx context.Context, actorID string, req invoicedomain.UpdateInvoiceRequest) (*invoicedomain.Invoice, error) {
	invoice, err := s.repo.FindByID(ctx, s.db, req.ID)
	if err != nil {
		return nil, err
	}
	if invoice == nil {
		return nil, invoicedomain.ErrNotFound
	}

	changes := map[string]any{}
	if req.Status != nil {
		if !invoicedomain.ValidStatus(*req.Status) {
			return nil, invoicedomain.ErrInvalidStatus
		}
		switch *req.Status {
		case invoicedomain.InvoiceStatusPaid, invoicedomain.InvoiceStatusRefunded:
			return nil, invoicedomain.ErrInvalidStatus
		}
		switch invoice.Status {
		case invoicedomain.InvoiceStatusPaid, invoicedomain.InvoiceStatusRefunded, invoicedomain.InvoiceStatusCancelled:
			return nil, invoicedomain.ErrImmutableStatus
		}
		invoice.Status = *req.Status
		changes["status"] = string(*req.Status)
	}
	if req.DueDate != nil {
		invoice.DueDate = req.DueDate
		changes["due_date"] = req.DueDate.Format(time.RFC3339)
	}
	if req.Notes != nil {
		invoice.Notes = strings.TrimSpace(*req.Notes)
		changes["notes"] = invoice.Notes
	}

	if len(changes) == 0 {
		return invoice, nil
	}

	invoice.UpdatedAt = time.Now().UTC()
	if err := s.repo.UpdateStatusAndDueDate(ctx, s.db, invoice); err != nil {
		return nil, err
	}

	_ = s.auditSvc.Record(ctx, actorID, "invoice.updated", "Invoice", invoice.ID.String(), changes)

	return invoice, nil
}
