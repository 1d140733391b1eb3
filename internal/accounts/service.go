package accounts

import (
	"context"
	"fmt"
	"strings"
)

// Gateway lists accounts from the external account system.
type Gateway interface {
	ListAccounts(ctx context.Context) ([]Account, error)
}

// Service resolves accounts for admission control and the account screens.
type Service struct {
	gateway Gateway
}

// NewService constructs the account service.
func NewService(gateway Gateway) *Service {
	return &Service{gateway: gateway}
}

// List returns every account with its derived credit standing.
func (s *Service) List(ctx context.Context) ([]Account, error) {
	accounts, err := s.gateway.ListAccounts(ctx)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	return accounts, nil
}

// ResolveByName finds the account for a cart's target company. Matching is
// case-insensitive on the trimmed name.
func (s *Service) ResolveByName(ctx context.Context, name string) (*Account, error) {
	accounts, err := s.gateway.ListAccounts(ctx)
	if err != nil {
		return nil, fmt.Errorf("resolve account: %w", err)
	}
	want := strings.ToLower(strings.TrimSpace(name))
	for i := range accounts {
		if strings.ToLower(strings.TrimSpace(accounts[i].Name)) == want {
			return &accounts[i], nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrAccountNotFound, name)
}
