// Package tax computes per-item amounts and the aggregate GST breakdown for
// an invoice. GST in India splits into CGST+SGST for intra-state supplies
// (each half of the total) or IGST for inter-state supplies.
package tax

import (
	"github.com/invosync/invosync/internal/money"
	"go.uber.org/fx"
)

// AllowedRates are the GST slabs a line item may carry, in percent.
var AllowedRates = []int{5, 12, 18, 28}

// RateAllowed reports whether rate is one of the permitted GST slabs.
// A zero rate is reserved for system-injected items (late fees) and is not
// accepted on user input.
func RateAllowed(rate int) bool {
	for _, r := range AllowedRates {
		if r == rate {
			return true
		}
	}
	return false
}

// Line is the minimal shape the calculator needs from an invoice item.
// UnitPrice is in minor units.
type Line struct {
	Quantity  float64
	UnitPrice int64
	Rate      int
}

// Breakdown aggregates GST across an item set, in minor units.
type Breakdown struct {
	CGST  int64
	SGST  int64
	IGST  int64
	Total int64
}

type Calculator struct{}

func NewCalculator() *Calculator {
	return &Calculator{}
}

// ItemAmount derives a line amount from quantity and unit price. Item
// amounts are always recomputed, never trusted from input.
func (c *Calculator) ItemAmount(quantity float64, unitPrice int64) int64 {
	return money.Mul(quantity, unitPrice)
}

// Subtotal sums line amounts.
func (c *Calculator) Subtotal(lines []Line) int64 {
	var subtotal int64
	for _, line := range lines {
		subtotal += c.ItemAmount(line.Quantity, line.UnitPrice)
	}
	return subtotal
}

// ComputeBreakdown accumulates per-item tax and rounds each component once
// at the end of the accumulation. Rounding per item would compound drift
// across edits.
func (c *Calculator) ComputeBreakdown(lines []Line, interState bool) Breakdown {
	var cgst, sgst, igst, total float64
	for _, line := range lines {
		amount := c.ItemAmount(line.Quantity, line.UnitPrice)
		itemTax := float64(amount) * float64(line.Rate) / 100
		total += itemTax
		if interState {
			igst += itemTax
		} else {
			cgst += itemTax / 2
			sgst += itemTax / 2
		}
	}
	return Breakdown{
		CGST:  money.RoundMinor(cgst),
		SGST:  money.RoundMinor(sgst),
		IGST:  money.RoundMinor(igst),
		Total: money.RoundMinor(total),
	}
}

// Total is subtotal plus aggregate GST.
func (c *Calculator) Total(subtotal, gstTotal int64) int64 {
	return subtotal + gstTotal
}

// Module wires the calculator.
var Module = fx.Module("tax",
	fx.Provide(NewCalculator),
)
