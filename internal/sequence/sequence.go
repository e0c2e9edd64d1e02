// Package sequence issues the human-readable identifiers used across the
// portal: invoice numbers and client ids. Counters live in the store so
// concurrent issuers cannot hand out the same number.
package sequence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	ScopeInvoice = "invoice"
	ScopeClient  = "client"
)

var ErrUnsupportedDialect = errors.New("unsupported_dialect")

type Params struct {
	fx.In

	Log *zap.Logger
}

// Generator allocates year-scoped counters atomically. Callers pass the
// transaction the new record is created in, so an aborted creation never
// burns a number into a committed state outside it.
type Generator struct {
	log *zap.Logger
}

func NewGenerator(p Params) *Generator {
	return &Generator{log: p.Log.Named("sequence")}
}

// NextInvoiceNumber returns the next INV-<year>-NNNNN identifier.
func (g *Generator) NextInvoiceNumber(ctx context.Context, tx *gorm.DB, now time.Time) (string, error) {
	n, err := g.next(ctx, tx, ScopeInvoice, now.Year())
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("INV-%d-%05d", now.Year(), n), nil
}

// NextClientID returns the next CL-<year>-NNNNN identifier.
func (g *Generator) NextClientID(ctx context.Context, tx *gorm.DB, now time.Time) (string, error) {
	n, err := g.next(ctx, tx, ScopeClient, now.Year())
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("CL-%d-%05d", now.Year(), n), nil
}

// next increments and returns the counter for (scope, year). Counters for
// different years are independent, so numbering restarts at 1 each January.
func (g *Generator) next(ctx context.Context, tx *gorm.DB, scope string, year int) (int64, error) {
	switch tx.Dialector.Name() {
	case "postgres", "sqlite":
		var value int64
		err := tx.WithContext(ctx).Raw(
			`INSERT INTO number_sequences (scope, year, last_value)
			 VALUES (?, ?, 1)
			 ON CONFLICT (scope, year)
			 DO UPDATE SET last_value = number_sequences.last_value + 1
			 RETURNING last_value`,
			scope, year,
		).Scan(&value).Error
		if err != nil {
			return 0, err
		}
		return value, nil
	case "mysql":
		if err := tx.WithContext(ctx).Exec(
			`INSERT INTO number_sequences (scope, year, last_value)
			 VALUES (?, ?, LAST_INSERT_ID(1))
			 ON DUPLICATE KEY UPDATE last_value = LAST_INSERT_ID(last_value + 1)`,
			scope, year,
		).Error; err != nil {
			return 0, err
		}
		var value int64
		if err := tx.WithContext(ctx).Raw(`SELECT LAST_INSERT_ID()`).Scan(&value).Error; err != nil {
			return 0, err
		}
		return value, nil
	default:
		return 0, ErrUnsupportedDialect
	}
}
