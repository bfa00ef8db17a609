package api

import (
	"fmt"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"

	"github.com/shahdolbazaar/marketplace-go-app/internal/apperr"
	"github.com/shahdolbazaar/marketplace-go-app/internal/auth"
	"github.com/shahdolbazaar/marketplace-go-app/internal/cart"
	"github.com/shahdolbazaar/marketplace-go-app/internal/checkout"
)

// CartView is the cart as the client renders it
type CartView struct {
	Session       string          `json:"session"`
	State         string          `json:"state"`
	Items         []cart.Item     `json:"items"`
	TotalQuantity int             `json:"totalQuantity"`
	Total         decimal.Decimal `json:"total"`
}

// CheckoutResult is returned after a checkout; the client opens Links in
// order, StaggerMs apart.
type CheckoutResult struct {
	*checkout.Order
	Links     []string `json:"links"`
	StaggerMs int64    `json:"staggerMs"`
}

type addCartItemRequest struct {
	ProductID int64 `json:"productId"`
}

type updateCartItemRequest struct {
	Quantity *int `json:"quantity"`
}

type checkoutRequest struct {
	Items    []cart.Item   `json:"items"`
	Customer cart.Customer `json:"customer"`
}

func viewOf(s *cart.Session) CartView {
	items := s.Items()
	if items == nil {
		items = []cart.Item{}
	}
	return CartView{
		Session:       s.ID(),
		State:         s.State().String(),
		Items:         items,
		TotalQuantity: s.Cart().TotalQuantity(),
		Total:         s.Cart().Total(),
	}
}

func (a *App) openSession(r *http.Request) (*cart.Session, error) {
	return cart.Open(r.Context(), a.Carts, mux.Vars(r)["session"])
}

// GetCartHandler handles GET /api/cart/{session}
func (a *App) GetCartHandler(w http.ResponseWriter, r *http.Request) {
	s, err := a.openSession(r)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, viewOf(s))
}

// AddCartItemHandler handles POST /api/cart/{session}/items. The item is
// priced from the catalogue, never from the request.
func (a *App) AddCartItemHandler(w http.ResponseWriter, r *http.Request) {
	var req addCartItemRequest
	if err := decodeJSON(w, r, &req); err != nil {
		a.writeError(w, r, err)
		return
	}
	if req.ProductID <= 0 {
		a.writeError(w, r, apperr.Validation("api.addCartItem", map[string]string{"productId": "is required"}))
		return
	}

	s, err := a.openSession(r)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	p, err := a.Products.GetProduct(r.Context(), auth.CallerFrom(r.Context()), req.ProductID)
	if err != nil {
		a.writeError(w, r, err)
		return
	}

	item := cart.Item{ID: p.ID, Name: p.Name, Price: p.Price, ImageURL: p.ImageURL, ShopID: p.ShopID}
	if err := s.Add(r.Context(), item); err != nil {
		a.writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, viewOf(s))
}

// UpdateCartItemHandler handles PATCH /api/cart/{session}/items/{id}
func (a *App) UpdateCartItemHandler(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	var req updateCartItemRequest
	if err := decodeJSON(w, r, &req); err != nil {
		a.writeError(w, r, err)
		return
	}
	if req.Quantity == nil {
		a.writeError(w, r, apperr.Validation("api.updateCartItem", map[string]string{"quantity": "is required"}))
		return
	}
	if *req.Quantity > cart.MaxQuantity {
		a.writeError(w, r, apperr.Validation("api.updateCartItem", map[string]string{
			"quantity": fmt.Sprintf("must be at most %d", cart.MaxQuantity),
		}))
		return
	}

	s, err := a.openSession(r)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	if err := s.UpdateQuantity(r.Context(), id, *req.Quantity); err != nil {
		a.writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, viewOf(s))
}

// RemoveCartItemHandler handles DELETE /api/cart/{session}/items/{id}
func (a *App) RemoveCartItemHandler(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		a.writeError(w, r, err)
		return
	}

	s, err := a.openSession(r)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	if err := s.Remove(r.Context(), id); err != nil {
		a.writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, viewOf(s))
}

// ClearCartHandler handles DELETE /api/cart/{session}
func (a *App) ClearCartHandler(w http.ResponseWriter, r *http.Request) {
	s, err := a.openSession(r)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	if err := s.Clear(r.Context()); err != nil {
		a.writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, viewOf(s))
}

// CartCheckoutHandler handles POST /api/cart/{session}/checkout
func (a *App) CartCheckoutHandler(w http.ResponseWriter, r *http.Request) {
	var req checkoutRequest
	if err := decodeJSON(w, r, &req); err != nil {
		a.writeError(w, r, err)
		return
	}

	s, err := a.openSession(r)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	a.submit(w, r, s, req.Customer)
}

// CheckoutHandler handles POST /api/checkout for clients that keep the
// cart themselves. Items are merged as the cart would merge them.
func (a *App) CheckoutHandler(w http.ResponseWriter, r *http.Request) {
	var req checkoutRequest
	if err := decodeJSON(w, r, &req); err != nil {
		a.writeError(w, r, err)
		return
	}

	if err := cart.ValidateItems(req.Items); err != nil {
		a.writeError(w, r, err)
		return
	}

	store := cart.NewMemoryStore()
	if err := store.Save(r.Context(), "checkout", cart.New(req.Items).Items()); err != nil {
		a.writeError(w, r, err)
		return
	}
	s, err := cart.Open(r.Context(), store, "checkout")
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	a.submit(w, r, s, req.Customer)
}

func (a *App) submit(w http.ResponseWriter, r *http.Request, s *cart.Session, customer cart.Customer) {
	if err := s.ProceedToCheckout(); err != nil {
		a.writeError(w, r, err)
		return
	}

	sub := &checkout.Submission{Service: a.Checkout.WithOpener(&checkout.RecordingOpener{})}
	if err := s.Submit(r.Context(), customer, sub); err != nil {
		a.writeError(w, r, err)
		return
	}

	writeData(w, http.StatusOK, CheckoutResult{
		Order:     sub.Order,
		Links:     sub.Order.Links(),
		StaggerMs: a.config.DispatchStagger.Milliseconds(),
	})
}
