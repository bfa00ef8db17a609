package cart

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/shahdolbazaar/marketplace-go-app/internal/apperr"
)

// State is the checkout state of a session.
type State int

const (
	StateEmpty State = iota
	StatePopulated
	StateCheckoutFormOpen
	StateSubmitted
)

func (s State) String() string {
	switch s {
	case StateEmpty:
		return "empty"
	case StatePopulated:
		return "populated"
	case StateCheckoutFormOpen:
		return "checkout_form_open"
	case StateSubmitted:
		return "submitted"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// Customer is the checkout form.
type Customer struct {
	Name    string `json:"name"`
	Phone   string `json:"phone"`
	Address string `json:"address"`
}

// Validate requires all three fields to be non-blank.
func (c Customer) Validate() error {
	fields := map[string]string{}
	if strings.TrimSpace(c.Name) == "" {
		fields["name"] = "is required"
	}
	if strings.TrimSpace(c.Phone) == "" {
		fields["phone"] = "is required"
	}
	if strings.TrimSpace(c.Address) == "" {
		fields["address"] = "is required"
	}
	if len(fields) > 0 {
		return apperr.Validation("cart.Customer", fields)
	}
	return nil
}

// Trimmed returns the customer with surrounding whitespace removed.
func (c Customer) Trimmed() Customer {
	return Customer{
		Name:    strings.TrimSpace(c.Name),
		Phone:   strings.TrimSpace(c.Phone),
		Address: strings.TrimSpace(c.Address),
	}
}

// Submitter receives a validated order. Errors it returns keep the cart intact.
type Submitter interface {
	SubmitOrder(ctx context.Context, items []Item, customer Customer) error
}

// Session is a cart bound to a store, persisted after every change.
type Session struct {
	id    string
	store Store
	cart  *Cart
	state State
}

// Open loads the session's saved cart.
func Open(ctx context.Context, store Store, id string) (*Session, error) {
	items, err := store.Load(ctx, id)
	if errors.Is(err, ErrBadSessionID) {
		return nil, apperr.Validation("cart.Open", map[string]string{"session": "must be 1-64 letters, digits, '-' or '_'"})
	}
	if err != nil {
		return nil, apperr.Wrapf("cart.Open", err, "failed to load cart %s", id)
	}
	s := &Session{id: id, store: store, cart: New(items)}
	s.settle()
	return s, nil
}

func (s *Session) ID() string    { return s.id }
func (s *Session) State() State  { return s.state }
func (s *Session) Items() []Item { return s.cart.Items() }
func (s *Session) Cart() *Cart   { return s.cart }

// settle derives Empty/Populated from the contents, leaving an open form open.
func (s *Session) settle() {
	switch {
	case s.cart.Len() == 0:
		s.state = StateEmpty
	case s.state == StateEmpty || s.state == StateSubmitted:
		s.state = StatePopulated
	}
}

func (s *Session) persist(ctx context.Context) error {
	s.settle()
	if s.cart.Len() == 0 {
		return s.store.Delete(ctx, s.id)
	}
	return s.store.Save(ctx, s.id, s.cart.Items())
}

func (s *Session) Add(ctx context.Context, item Item) error {
	s.cart.Add(item)
	return s.persist(ctx)
}

func (s *Session) UpdateQuantity(ctx context.Context, id int64, quantity int) error {
	s.cart.UpdateQuantity(id, quantity)
	return s.persist(ctx)
}

func (s *Session) Remove(ctx context.Context, id int64) error {
	s.cart.Remove(id)
	return s.persist(ctx)
}

// Clear empties the cart and closes the checkout form.
func (s *Session) Clear(ctx context.Context) error {
	s.cart.Clear()
	s.state = StateEmpty
	return s.store.Delete(ctx, s.id)
}

// ProceedToCheckout opens the checkout form. An empty cart cannot check out.
func (s *Session) ProceedToCheckout() error {
	if s.cart.Len() == 0 {
		return apperr.Validation("cart.ProceedToCheckout", map[string]string{"items": "cart is empty"})
	}
	s.state = StateCheckoutFormOpen
	return nil
}

// CancelCheckout closes the form without touching the cart.
func (s *Session) CancelCheckout() {
	if s.state == StateCheckoutFormOpen {
		s.state = StatePopulated
	}
}

// Submit validates the customer, hands the order to sub and clears the cart.
// A validation failure leaves the form open and nothing is dispatched.
func (s *Session) Submit(ctx context.Context, customer Customer, sub Submitter) error {
	const op = "cart.Submit"
	if s.state != StateCheckoutFormOpen {
		return apperr.Validation(op, map[string]string{"checkout": "checkout form is not open"})
	}
	if err := customer.Validate(); err != nil {
		return err
	}

	s.state = StateSubmitted
	if err := sub.SubmitOrder(ctx, s.cart.Items(), customer.Trimmed()); err != nil {
		s.state = StateCheckoutFormOpen
		return err
	}
	return s.Clear(ctx)
}
