// Package accounts models customer credit accounts, read-only to this
// service; the account gateway is the system of record.
package accounts

import (
	"errors"

	"github.com/shopspring/decimal"
)

// ErrAccountNotFound indicates the named account could not be resolved.
var ErrAccountNotFound = errors.New("account not found")

// CreditStatus summarizes how close an account is to its credit limit.
type CreditStatus string

const (
	StatusActive    CreditStatus = "active"
	StatusWarning   CreditStatus = "warning"
	StatusOverLimit CreditStatus = "over_limit"
)

// Account is a customer credit account.
type Account struct {
	Name           string          `json:"name"`
	CreditLimit    decimal.Decimal `json:"creditLimit"`
	CurrentBalance decimal.Decimal `json:"currentBalance"`
	IsActive       bool            `json:"isActive"`
}

// AvailableBalance is the remaining credit, floored at zero.
func (a Account) AvailableBalance() decimal.Decimal {
	available := a.CreditLimit.Sub(a.CurrentBalance)
	if available.IsNegative() {
		return decimal.Zero
	}
	return available
}

// Status derives the credit standing: warning from 90% of the limit,
// over_limit once the balance passes it.
func (a Account) Status() CreditStatus {
	if a.CurrentBalance.GreaterThan(a.CreditLimit) {
		return StatusOverLimit
	}
	warnAt := a.CreditLimit.Mul(decimal.NewFromFloat(0.9))
	if a.CurrentBalance.GreaterThanOrEqual(warnAt) {
		return StatusWarning
	}
	return StatusActive
}
