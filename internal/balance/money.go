package balance

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Currency amounts are tracked per currency and never converted.
type Currency string

const (
	CurrencyDOP Currency = "DOP"
	CurrencyUSD Currency = "USD"
)

func ParseCurrency(raw string) (Currency, bool) {
	switch Currency(strings.ToUpper(strings.TrimSpace(raw))) {
	case CurrencyDOP, "":
		return CurrencyDOP, true
	case CurrencyUSD:
		return CurrencyUSD, true
	default:
		return "", false
	}
}

type PaymentMethod string

const (
	PaymentCash     PaymentMethod = "cash"
	PaymentDeposit  PaymentMethod = "deposit"
	PaymentTransfer PaymentMethod = "transfer"
	PaymentMixed    PaymentMethod = "mixed"
)

func ParsePaymentMethod(raw string) (PaymentMethod, bool) {
	switch PaymentMethod(strings.ToLower(strings.TrimSpace(raw))) {
	case PaymentCash, "":
		return PaymentCash, true
	case PaymentDeposit:
		return PaymentDeposit, true
	case PaymentTransfer:
		return PaymentTransfer, true
	case PaymentMixed:
		return PaymentMixed, true
	default:
		return "", false
	}
}

// NonNegative reports whether every amount is >= 0.
func NonNegative(amounts ...decimal.Decimal) bool {
	for _, amount := range amounts {
		if amount.IsNegative() {
			return false
		}
	}
	return true
}
