package domain

import (
	"errors"
	"fmt"
	"math"
)

// Errors for Money operations
var (
	ErrCurrencyMismatch = errors.New("cannot operate on money values with different currencies")
	ErrDivideByZero     = errors.New("cannot divide money by zero")
)

// DefaultCurrency is the currency assumed when none is provided
const DefaultCurrency = "IDR"

// Money is a currency amount stored in minor units (cents) to avoid
// floating point drift in monetary arithmetic.
type Money struct {
	Amount   int64  `bson:"amount" json:"amount"`
	Currency string `bson:"currency" json:"currency"`
}

// NewMoney creates a Money value from an amount in minor units
func NewMoney(amount int64, currency string) Money {
	if currency == "" {
		currency = DefaultCurrency
	}
	return Money{Amount: amount, Currency: currency}
}

// NewMoneyFromFloat creates a Money value from a major-unit amount,
// rounding half away from zero to the nearest minor unit
func NewMoneyFromFloat(value float64, currency string) Money {
	return NewMoney(roundHalfAwayFromZero(value*100), currency)
}

// ZeroMoney returns a zero amount in the given currency
func ZeroMoney(currency string) Money {
	return NewMoney(0, currency)
}

func (m Money) sameCurrency(other Money) error {
	if m.Currency != other.Currency {
		return fmt.Errorf("%w: %s vs %s", ErrCurrencyMismatch, m.Currency, other.Currency)
	}
	return nil
}

// Add returns the sum of two money values
func (m Money) Add(other Money) (Money, error) {
	if err := m.sameCurrency(other); err != nil {
		return Money{}, err
	}
	return Money{Amount: m.Amount + other.Amount, Currency: m.Currency}, nil
}

// Subtract returns the difference of two money values
func (m Money) Subtract(other Money) (Money, error) {
	if err := m.sameCurrency(other); err != nil {
		return Money{}, err
	}
	return Money{Amount: m.Amount - other.Amount, Currency: m.Currency}, nil
}

// MultiplyInt multiplies the amount by an integer quantity
func (m Money) MultiplyInt(quantity int) Money {
	return Money{Amount: m.Amount * int64(quantity), Currency: m.Currency}
}

// MultiplyRate multiplies the amount by a fractional rate, rounding
// half away from zero to the nearest minor unit
func (m Money) MultiplyRate(rate float64) Money {
	return Money{Amount: roundHalfAwayFromZero(float64(m.Amount) * rate), Currency: m.Currency}
}

// DivideInt divides the amount by an integer divisor, rounding half
// away from zero to the nearest minor unit
func (m Money) DivideInt(divisor int) (Money, error) {
	if divisor == 0 {
		return Money{}, ErrDivideByZero
	}
	return Money{Amount: roundHalfAwayFromZero(float64(m.Amount) / float64(divisor)), Currency: m.Currency}, nil
}

// IsZero returns true if the amount is zero
func (m Money) IsZero() bool {
	return m.Amount == 0
}

// IsNegative returns true if the amount is below zero
func (m Money) IsNegative() bool {
	return m.Amount < 0
}

// IsPositive returns true if the amount is above zero
func (m Money) IsPositive() bool {
	return m.Amount > 0
}

// GreaterThanOrEqual compares two money values of the same currency
func (m Money) GreaterThanOrEqual(other Money) (bool, error) {
	if err := m.sameCurrency(other); err != nil {
		return false, err
	}
	return m.Amount >= other.Amount, nil
}

// LessThan compares two money values of the same currency
func (m Money) LessThan(other Money) (bool, error) {
	if err := m.sameCurrency(other); err != nil {
		return false, err
	}
	return m.Amount < other.Amount, nil
}

// ClampZero returns the value floored at zero
func (m Money) ClampZero() Money {
	if m.Amount < 0 {
		return Money{Amount: 0, Currency: m.Currency}
	}
	return m
}

// Float64 returns the amount in major units
func (m Money) Float64() float64 {
	return float64(m.Amount) / 100
}

// String formats the money value with two decimal places
func (m Money) String() string {
	return fmt.Sprintf("%s %.2f", m.Currency, m.Float64())
}

func roundHalfAwayFromZero(v float64) int64 {
	return int64(math.Round(v))
}
