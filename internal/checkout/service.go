package checkout

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/souq-b2b/souq-b2b/internal/accounts"
	"github.com/souq-b2b/souq-b2b/internal/cart"
	"github.com/souq-b2b/souq-b2b/internal/integrations/orders"
)

// AccountResolver resolves the target account for admission control.
type AccountResolver interface {
	ResolveByName(ctx context.Context, name string) (*accounts.Account, error)
}

// OrderGateway creates order records in the external order system.
type OrderGateway interface {
	CreateOrder(ctx context.Context, order orders.CreateOrderRequest) error
}

// Service drives the checkout state machine per session. Transitions:
//
//	Idle → PaymentSelection → CreditCheck (credit only) → Submitting → Submitted
//	CreditCheck → CreditBlocked → PaymentSelection
//	Submitting → PaymentSelection on gateway failure (cart preserved)
type Service struct {
	cart     *cart.Service
	accounts AccountResolver
	gateway  OrderGateway
	currency string
	logger   *slog.Logger

	mu    sync.Mutex
	flows map[string]*flow
}

type flow struct {
	mu       sync.Mutex
	state    State
	method   PaymentMethod
	inFlight bool
}

// NewService constructs the checkout service.
func NewService(cartSvc *cart.Service, resolver AccountResolver, gateway OrderGateway, currency string, logger *slog.Logger) *Service {
	return &Service{
		cart:     cartSvc,
		accounts: resolver,
		gateway:  gateway,
		currency: currency,
		logger:   logger,
		flows:    make(map[string]*flow),
	}
}

func (s *Service) flowFor(session string) *flow {
	s.mu.Lock()
	defer s.mu.Unlock()
	f, ok := s.flows[session]
	if !ok {
		f = &flow{state: StateIdle}
		s.flows[session] = f
	}
	return f
}

// State reports the session's current checkout state.
func (s *Service) State(session string) State {
	f := s.flowFor(session)
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

// Begin runs the mandatory pre-submission stock revalidation and, when the
// whole cart still fits, moves the flow to payment selection. On any
// mismatch the flow stays Idle, the cart keeps its entries with refreshed
// stock, and the full mismatch list is returned as a StockMismatchError.
func (s *Service) Begin(ctx context.Context, session string) ([]cart.LineItem, cart.PricingSummary, error) {
	f := s.flowFor(session)
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.inFlight {
		return nil, cart.PricingSummary{}, ErrSubmissionInFlight
	}

	items, mismatches, err := s.cart.Revalidate(ctx, session)
	if err != nil {
		return nil, cart.PricingSummary{}, err
	}
	if len(items) == 0 {
		return nil, cart.PricingSummary{}, ErrCartEmpty
	}
	if len(mismatches) > 0 {
		f.state = StateIdle
		return nil, cart.PricingSummary{}, &cart.StockMismatchError{Mismatches: mismatches}
	}

	f.state = StatePaymentSelection
	return items, s.cart.Pricing(items), nil
}

// SelectPayment records the chosen method. Valid from payment selection and
// from a credit block, which returns the user to payment selection.
func (s *Service) SelectPayment(session string, method PaymentMethod) error {
	f := s.flowFor(session)
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.state != StatePaymentSelection && f.state != StateCreditBlocked {
		return fmt.Errorf("%w: select payment in state %s", ErrInvalidTransition, f.state)
	}
	f.method = method
	f.state = StatePaymentSelection
	return nil
}

// Cancel abandons the flow; the cart is untouched. An outstanding submission
// cannot be cancelled: the caller waits for it to settle.
func (s *Service) Cancel(session string) error {
	f := s.flowFor(session)
	f.mu.Lock()
	if f.inFlight {
		f.mu.Unlock()
		return ErrSubmissionInFlight
	}
	f.state = StateCancelled
	f.method = ""
	f.mu.Unlock()

	s.prune(session)
	return nil
}

// prune drops a flow record once it reaches a terminal state so the map does
// not grow with abandoned sessions.
func (s *Service) prune(session string) {
	s.mu.Lock()
	delete(s.flows, session)
	s.mu.Unlock()
}

// Submit runs the admission gate and the order-creation handshake. For the
// credit method the account is resolved and the grand total checked against
// available balance strictly before any gateway call. On gateway success the
// cart is cleared atomically; on any failure it is preserved verbatim and
// the flow returns to payment selection for a manual retry.
func (s *Service) Submit(ctx context.Context, session string) (*OrderDraft, error) {
	f := s.flowFor(session)

	f.mu.Lock()
	if f.inFlight {
		f.mu.Unlock()
		return nil, ErrSubmissionInFlight
	}
	if f.state != StatePaymentSelection {
		state := f.state
		f.mu.Unlock()
		return nil, fmt.Errorf("%w: submit in state %s", ErrInvalidTransition, state)
	}
	if f.method == "" {
		f.mu.Unlock()
		return nil, ErrNoPaymentMethod
	}
	method := f.method
	f.inFlight = true
	f.mu.Unlock()

	draft, err := s.submit(ctx, session, f, method)

	f.mu.Lock()
	f.inFlight = false
	done := f.state == StateSubmitted
	f.mu.Unlock()
	if done {
		s.prune(session)
	}
	return draft, err
}

func (s *Service) submit(ctx context.Context, session string, f *flow, method PaymentMethod) (*OrderDraft, error) {
	view, err := s.cart.View(ctx, session)
	if err != nil {
		return nil, err
	}
	if len(view.Items) == 0 {
		return nil, ErrCartEmpty
	}

	draft := OrderDraft{
		Company:  view.Items[0].Company,
		Employee: view.Items[0].Employee,
		Items:    view.Items,
		Pricing:  view.Pricing,
		Method:   method,
	}

	if method == MethodCredit {
		f.setState(StateCreditCheck)
		account, err := s.accounts.ResolveByName(ctx, draft.Company)
		if err != nil {
			f.setState(StatePaymentSelection)
			return nil, err
		}
		if !account.IsActive {
			f.setState(StateCreditBlocked)
			return nil, fmt.Errorf("%w: %s", ErrAccountInactive, account.Name)
		}
		available := account.AvailableBalance()
		if draft.Pricing.GrandTotal.GreaterThan(available) {
			f.setState(StateCreditBlocked)
			return nil, &CreditLimitExceededError{
				Account:    account.Name,
				GrandTotal: draft.Pricing.GrandTotal,
				Available:  available,
			}
		}
	}

	f.setState(StateSubmitting)
	if err := s.gateway.CreateOrder(ctx, s.wireOrder(draft)); err != nil {
		f.setState(StatePaymentSelection)
		s.logger.Warn("order submission failed, cart preserved",
			slog.String("session", session), slog.Any("error", err))
		return nil, fmt.Errorf("submit order: %w", err)
	}

	f.setState(StateSubmitted)
	if err := s.cart.Clear(ctx, session); err != nil {
		// The order exists; surface the store failure rather than masking it.
		return &draft, err
	}
	return &draft, nil
}

func (f *flow) setState(state State) {
	f.mu.Lock()
	f.state = state
	f.mu.Unlock()
}

func (s *Service) wireOrder(draft OrderDraft) orders.CreateOrderRequest {
	items := make([]orders.Item, 0, len(draft.Items))
	for _, li := range draft.Items {
		items = append(items, orders.Item{
			Product:     li.ProductID,
			ProductName: li.ProductName,
			Quantity:    li.Quantity,
			UnitPrice:   li.UnitPrice,
			VATRate:     li.VATRate,
		})
	}
	return orders.CreateOrderRequest{
		Customer: orders.Customer{
			Company:  draft.Company,
			Employee: draft.Employee,
		},
		Items: items,
		Pricing: orders.Pricing{
			Subtotal:     draft.Pricing.Subtotal,
			DeliveryCost: draft.Pricing.DeliveryFee,
			TotalVAT:     draft.Pricing.TotalVAT,
			Total:        draft.Pricing.GrandTotal,
			Currency:     s.currency,
		},
		Payment: orders.Payment{
			Method: string(draft.Method),
			Status: "pending",
		},
		AccountantReviewStatus: "PENDING_REVIEW",
	}
}
