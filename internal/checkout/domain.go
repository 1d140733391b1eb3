// Package checkout implements payment selection, the credit-limit admission
// gate, and the order-submission handshake.
package checkout

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/souq-b2b/souq-b2b/internal/cart"
)

// PaymentMethod enumerates the accepted payment instruments.
type PaymentMethod string

const (
	MethodCash       PaymentMethod = "cash"
	MethodVisa       PaymentMethod = "visa"
	MethodBenefitPay PaymentMethod = "benefitpay"
	MethodFlooss     PaymentMethod = "flooss"
	MethodCredit     PaymentMethod = "credit"
)

// ParsePaymentMethod validates a wire value against the fixed set.
func ParsePaymentMethod(s string) (PaymentMethod, error) {
	switch m := PaymentMethod(s); m {
	case MethodCash, MethodVisa, MethodBenefitPay, MethodFlooss, MethodCredit:
		return m, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownPaymentMethod, s)
	}
}

// State enumerates the checkout flow states.
type State string

const (
	StateIdle             State = "idle"
	StatePaymentSelection State = "payment_selection"
	StateCreditCheck      State = "credit_check"
	StateCreditBlocked    State = "credit_blocked"
	StateSubmitting       State = "submitting"
	StateSubmitted        State = "submitted"
	StateCancelled        State = "cancelled"
)

// Sentinel errors for the checkout flow.
var (
	ErrUnknownPaymentMethod = errors.New("unknown payment method")
	ErrInvalidTransition    = errors.New("invalid checkout state transition")
	ErrCartEmpty            = errors.New("cart is empty")
	ErrNoPaymentMethod      = errors.New("no payment method selected")
	// ErrSubmissionInFlight rejects a second submission while one is
	// outstanding against the same cart.
	ErrSubmissionInFlight = errors.New("a submission is already in flight")
	// ErrAccountInactive blocks credit orders against deactivated accounts.
	ErrAccountInactive = errors.New("account is inactive")
)

// CreditLimitExceededError refuses admission before any gateway call; the
// cart is untouched and the user may change payment method.
type CreditLimitExceededError struct {
	Account    string
	GrandTotal decimal.Decimal
	Available  decimal.Decimal
}

func (e *CreditLimitExceededError) Error() string {
	return fmt.Sprintf("credit limit exceeded for %s: total %s, available %s",
		e.Account, e.GrandTotal.StringFixed(2), e.Available.StringFixed(2))
}

// OrderDraft is assembled only at submission time and never persisted before
// a successful gateway response.
type OrderDraft struct {
	Company  string
	Employee string
	Items    []cart.LineItem
	Pricing  cart.PricingSummary
	Method   PaymentMethod
}
