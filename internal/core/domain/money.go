package domain

import (
	"math"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/rl1809/catalog/internal/core/result"
)

const moneyScale = 2

// Money is an immutable non-negative amount in a single currency. Two Money
// values are equal when amount and currency match.
type Money struct {
	amount   decimal.Decimal
	currency string
}

// NewMoney validates amount and currency and rounds the amount to cents,
// half away from zero.
func NewMoney(amount float64, currency string) result.Result[Money, error] {
	switch {
	case math.IsNaN(amount):
		return result.Fail[Money](error(NewInvalidArgument("amount", "must be a number")))
	case amount < 0:
		return result.Fail[Money](error(NewInvalidArgument("amount", "cannot be negative")))
	case math.IsInf(amount, 0):
		return result.Fail[Money](error(NewInvalidArgument("amount", "must be finite")))
	}

	code, err := normalizeCurrency(currency)
	if err != nil {
		return result.Fail[Money](err)
	}

	return result.Ok[Money, error](Money{
		amount:   decimal.NewFromFloat(amount).Round(moneyScale),
		currency: code,
	})
}

// MustMoney is NewMoney for literals known to be valid; it panics otherwise.
func MustMoney(amount float64, currency string) Money {
	m, err := NewMoney(amount, currency).Get()
	if err != nil {
		panic(err)
	}
	return m
}

// ZeroMoney returns 0.00 in the given currency.
func ZeroMoney(currency string) result.Result[Money, error] {
	return NewMoney(0, currency)
}

// RestoreMoney rebuilds Money from trusted storage without validation.
func RestoreMoney(amount decimal.Decimal, currency string) Money {
	return Money{amount: amount.Round(moneyScale), currency: currency}
}

func normalizeCurrency(raw string) (string, error) {
	code := strings.ToUpper(strings.TrimSpace(raw))
	if code == "" {
		return "", NewInvalidArgument("currency", "cannot be empty")
	}
	if len(code) != 3 {
		return "", NewInvalidArgument("currency", "must be a 3-letter ISO 4217 code")
	}
	for _, r := range code {
		if r < 'A' || r > 'Z' {
			return "", NewInvalidArgument("currency", "must be a 3-letter ISO 4217 code")
		}
	}
	return code, nil
}

func (m Money) Amount() float64 { return m.amount.InexactFloat64() }

func (m Money) Decimal() decimal.Decimal { return m.amount }

func (m Money) Currency() string { return m.currency }

func (m Money) IsZero() bool { return m.amount.IsZero() }

func (m Money) Equals(other Money) bool {
	return m.currency == other.currency && m.amount.Equal(other.amount)
}

func (m Money) String() string {
	return m.amount.StringFixed(moneyScale) + " " + m.currency
}

func (m Money) Add(other Money) result.Result[Money, error] {
	if err := m.sameCurrency(other); err != nil {
		return result.Fail[Money](err)
	}
	return result.Ok[Money, error](Money{amount: m.amount.Add(other.amount), currency: m.currency})
}

// Subtract fails on a currency mismatch or when the result would be negative.
func (m Money) Subtract(other Money) result.Result[Money, error] {
	if err := m.sameCurrency(other); err != nil {
		return result.Fail[Money](err)
	}
	diff := m.amount.Sub(other.amount)
	if diff.IsNegative() {
		return result.Fail[Money](error(NewInvalidArgument("amount", "subtraction would result in a negative amount")))
	}
	return result.Ok[Money, error](Money{amount: diff, currency: m.currency})
}

func (m Money) Multiply(factor float64) result.Result[Money, error] {
	switch {
	case math.IsNaN(factor):
		return result.Fail[Money](error(NewInvalidArgument("factor", "must be a number")))
	case math.IsInf(factor, 0):
		return result.Fail[Money](error(NewInvalidArgument("factor", "must be finite")))
	case factor < 0:
		return result.Fail[Money](error(NewInvalidArgument("factor", "cannot be negative")))
	}
	product := m.amount.Mul(decimal.NewFromFloat(factor)).Round(moneyScale)
	return result.Ok[Money, error](Money{amount: product, currency: m.currency})
}

// IsGreaterThan compares amounts. Comparing different currencies is an error.
func (m Money) IsGreaterThan(other Money) (bool, error) {
	if err := m.sameCurrency(other); err != nil {
		return false, err
	}
	return m.amount.GreaterThan(other.amount), nil
}

// IsLessThan compares amounts. Comparing different currencies is an error.
func (m Money) IsLessThan(other Money) (bool, error) {
	if err := m.sameCurrency(other); err != nil {
		return false, err
	}
	return m.amount.LessThan(other.amount), nil
}

func (m Money) sameCurrency(other Money) error {
	if m.currency != other.currency {
		return NewInvalidArgument("currency", "cannot operate on different currencies: "+m.currency+" and "+other.currency)
	}
	return nil
}
