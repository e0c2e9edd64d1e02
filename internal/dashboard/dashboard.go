// Package dashboard aggregates billing and workload numbers for the portal
// landing pages. Reads only, no mutations.
package dashboard

import (
	"context"
	"time"

	invoicedomain "github.com/brightfold/portal/internal/invoice/domain"
	requestdomain "github.com/brightfold/portal/internal/request/domain"
	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Summary is one dashboard payload. For client-role actors every number is
// scoped to their own client.
type Summary struct {
	OutstandingAmount decimal.Decimal          `json:"outstanding_amount"`
	PaidThisMonth     decimal.Decimal          `json:"paid_this_month"`
	InvoicesByStatus  map[string]int64         `json:"invoices_by_status"`
	RecentInvoices    []*invoicedomain.Invoice `json:"recent_invoices"`
	OpenRequests      int64                    `json:"open_requests"`
	ClientCount       int64                    `json:"client_count,omitempty"`
}

const recentInvoiceLimit = 5

type Params struct {
	fx.In

	DB  *gorm.DB
	Log *zap.Logger
}

type Service struct {
	db  *gorm.DB
	log *zap.Logger
}

func NewService(p Params) *Service {
	return &Service{db: p.DB, log: p.Log.Named("dashboard.service")}
}

var Module = fx.Module("dashboard.service",
	fx.Provide(NewService),
)

var outstandingStatuses = []invoicedomain.InvoiceStatus{
	invoicedomain.InvoiceStatusPending,
	invoicedomain.InvoiceStatusPartiallyPaid,
	invoicedomain.InvoiceStatusOverdue,
}

type sumRow struct {
	Total decimal.Decimal `gorm:"column:total"`
}

// Summarize builds the dashboard for the whole company, or for one client
// when clientScope is set.
func (s *Service) Summarize(ctx context.Context, clientScope *snowflake.ID) (*Summary, error) {
	summary := &Summary{
		OutstandingAmount: decimal.Zero,
		PaidThisMonth:     decimal.Zero,
		InvoicesByStatus:  map[string]int64{},
	}

	scoped := func(q *gorm.DB) *gorm.DB {
		if clientScope != nil {
			return q.Where("client_id = ?", *clientScope)
		}
		return q
	}

	var outstanding sumRow
	err := scoped(s.db.WithContext(ctx).Model(&invoicedomain.Invoice{})).
		Where("status IN ?", outstandingStatuses).
		Select("COALESCE(SUM(total_amount), 0) AS total").
		Scan(&outstanding).Error
	if err != nil {
		return nil, err
	}
	summary.OutstandingAmount = outstanding.Total

	monthStart := time.Now().UTC()
	monthStart = time.Date(monthStart.Year(), monthStart.Month(), 1, 0, 0, 0, 0, time.UTC)

	var paid sumRow
	paidQuery := s.db.WithContext(ctx).
		Table("payments").
		Joins("JOIN invoices ON invoices.id = payments.invoice_id").
		Where("payments.paid_at >= ?", monthStart)
	if clientScope != nil {
		paidQuery = paidQuery.Where("invoices.client_id = ?", *clientScope)
	}
	if err := paidQuery.Select("COALESCE(SUM(payments.amount), 0) AS total").Scan(&paid).Error; err != nil {
		return nil, err
	}
	summary.PaidThisMonth = paid.Total

	type statusCount struct {
		Status string `gorm:"column:status"`
		Count  int64  `gorm:"column:count"`
	}
	var counts []statusCount
	err = scoped(s.db.WithContext(ctx).Model(&invoicedomain.Invoice{})).
		Select("status, COUNT(*) AS count").
		Group("status").
		Scan(&counts).Error
	if err != nil {
		return nil, err
	}
	for _, c := range counts {
		summary.InvoicesByStatus[c.Status] = c.Count
	}

	err = scoped(s.db.WithContext(ctx).Model(&invoicedomain.Invoice{})).
		Order("created_at desc, id desc").
		Limit(recentInvoiceLimit).
		Find(&summary.RecentInvoices).Error
	if err != nil {
		return nil, err
	}

	err = scoped(s.db.WithContext(ctx).Model(&requestdomain.WorkRequest{})).
		Where("status IN ?", []requestdomain.RequestStatus{
			requestdomain.RequestStatusOpen,
			requestdomain.RequestStatusInProgress,
		}).
		Count(&summary.OpenRequests).Error
	if err != nil {
		return nil, err
	}

	if clientScope == nil {
		if err := s.db.WithContext(ctx).Table("clients").Count(&summary.ClientCount).Error; err != nil {
			return nil, err
		}
	}

	return summary, nil
}
