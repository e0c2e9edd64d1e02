// Package money computes invoice totals from line items.
package money

import "github.com/shopspring/decimal"

// Line is the pricing slice of a line item.
type Line struct {
	Quantity  int64
	UnitPrice decimal.Decimal
	TaxRate   decimal.Decimal // percentage, 0-100
}

// Totals is the aggregate of an invoice's lines.
type Totals struct {
	Subtotal    decimal.Decimal
	TaxAmount   decimal.Decimal
	TotalAmount decimal.Decimal
}

var hundred = decimal.NewFromInt(100)

// Calc computes subtotal, tax and total for the given lines. Rounding
// (half-up, 2 places) happens on the three final sums only, never per line.
// The total is derived from the unrounded sums so it never drifts from what
// was actually billed.
func Calc(lines []Line) Totals {
	subtotal := decimal.Zero
	tax := decimal.Zero

	for _, l := range lines {
		lineTotal := decimal.NewFromInt(l.Quantity).Mul(l.UnitPrice)
		subtotal = subtotal.Add(lineTotal)
		tax = tax.Add(lineTotal.Mul(l.TaxRate).Div(hundred))
	}

	return Totals{
		Subtotal:    subtotal.Round(2),
		TaxAmount:   tax.Round(2),
		TotalAmount: subtotal.Add(tax).Round(2),
	}
}

// LineTotal returns quantity * unit price rounded to 2 places.
func LineTotal(quantity int64, unitPrice decimal.Decimal) decimal.Decimal {
	return decimal.NewFromInt(quantity).Mul(unitPrice).Round(2)
}

// MinorUnits converts an amount to the gateway's minor-unit representation
// (e.g. paise for INR).
func MinorUnits(amount decimal.Decimal) int64 {
	return amount.Mul(hundred).Round(0).IntPart()
}

// FromMinorUnits converts a gateway minor-unit amount back to a decimal.
func FromMinorUnits(minor int64) decimal.Decimal {
	return decimal.NewFromInt(minor).Div(hundred)
}
