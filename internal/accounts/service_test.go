package accounts

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubGateway struct {
	accounts []Account
	err      error
}

func (s *stubGateway) ListAccounts(ctx context.Context) ([]Account, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.accounts, nil
}

func account(name string, limit, balance int64, active bool) Account {
	return Account{
		Name:           name,
		CreditLimit:    decimal.NewFromInt(limit),
		CurrentBalance: decimal.NewFromInt(balance),
		IsActive:       active,
	}
}

func TestAvailableBalanceFloorsAtZero(t *testing.T) {
	a := account("Al Noor Trading", 200, 150, true)
	assert.True(t, a.AvailableBalance().Equal(decimal.NewFromInt(50)))

	over := account("Gulf Foods", 100, 130, true)
	assert.True(t, over.AvailableBalance().IsZero())
}

func TestStatusDerivation(t *testing.T) {
	cases := []struct {
		name    string
		limit   int64
		balance int64
		want    CreditStatus
	}{
		{"well under", 1000, 100, StatusActive},
		{"just under warning", 1000, 899, StatusActive},
		{"at warning threshold", 1000, 900, StatusWarning},
		{"at the limit", 1000, 1000, StatusWarning},
		{"over the limit", 1000, 1001, StatusOverLimit},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			a := account("X", tc.limit, tc.balance, true)
			assert.Equal(t, tc.want, a.Status())
		})
	}
}

func TestResolveByNameIsCaseAndSpaceInsensitive(t *testing.T) {
	svc := NewService(&stubGateway{accounts: []Account{
		account("Al Noor Trading", 200, 0, true),
		account("Gulf Foods", 300, 0, true),
	}})

	got, err := svc.ResolveByName(context.Background(), "  al noor trading ")
	require.NoError(t, err)
	assert.Equal(t, "Al Noor Trading", got.Name)
}

func TestResolveByNameNotFound(t *testing.T) {
	svc := NewService(&stubGateway{})
	_, err := svc.ResolveByName(context.Background(), "Nobody")
	require.ErrorIs(t, err, ErrAccountNotFound)
}

func TestResolveByNameGatewayFailure(t *testing.T) {
	svc := NewService(&stubGateway{err: errors.New("gateway down")})
	_, err := svc.ResolveByName(context.Background(), "Al Noor Trading")
	require.Error(t, err)
	require.NotErrorIs(t, err, ErrAccountNotFound)
}
