// Package balance holds the pure money arithmetic shared by reservations,
// expenses and owner ledgers. Nothing here touches storage.
package balance

import (
	"github.com/shopspring/decimal"
)

const (
	StatusPending = "pending"
	StatusPaid    = "paid"
)

// ReservationBalance is what the guest still owes: total + deposit - paid, floored at zero.
func ReservationBalance(total, paid, deposit decimal.Decimal) decimal.Decimal {
	due := total.Add(deposit).Sub(paid)
	if due.IsNegative() {
		return decimal.Zero
	}
	return due
}

func Sum(amounts ...decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, amount := range amounts {
		total = total.Add(amount)
	}
	return total
}

// ExpenseBalance is amount minus everything paid so far. Overpayment yields a
// negative balance and is reported as such.
func ExpenseBalance(amount decimal.Decimal, paid []decimal.Decimal) decimal.Decimal {
	return amount.Sub(Sum(paid...))
}

func ExpensePaymentStatus(amount, totalPaid decimal.Decimal) string {
	if totalPaid.GreaterThanOrEqual(amount) {
		return StatusPaid
	}
	return StatusPending
}

// OwnerBalance is total owed to a villa owner minus what was already paid out.
func OwnerBalance(totalOwed, amountPaid decimal.Decimal) decimal.Decimal {
	return totalOwed.Sub(amountPaid)
}

type QuoteInput struct {
	BasePrice          decimal.Decimal
	ExtraHoursCost     decimal.Decimal
	ExtraServicesTotal decimal.Decimal
	Discount           decimal.Decimal
	IncludeTax         bool
	TaxRate            decimal.Decimal
}

type QuoteResult struct {
	Subtotal  decimal.Decimal
	TaxAmount decimal.Decimal
	Total     decimal.Decimal
}

// Quote prices a reservation. Tax applies to the discounted subtotal and is
// rounded to cents.
func Quote(in QuoteInput) QuoteResult {
	subtotal := in.BasePrice.Add(in.ExtraHoursCost).Add(in.ExtraServicesTotal)
	taxable := subtotal.Sub(in.Discount)

	tax := decimal.Zero
	if in.IncludeTax {
		tax = taxable.Mul(in.TaxRate).Round(2)
	}

	return QuoteResult{
		Subtotal:  subtotal,
		TaxAmount: tax,
		Total:     taxable.Add(tax),
	}
}
