// Package checkout turns a cart into one order message per shop and hands
// each message to the shop over a click-to-chat link.
package checkout

import (
	"context"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"

	"github.com/shahdolbazaar/marketplace-go-app/internal/apperr"
	"github.com/shahdolbazaar/marketplace-go-app/internal/cart"
	"github.com/shahdolbazaar/marketplace-go-app/internal/metrics"
)

// ShopOrder is the message bound for one shop.
type ShopOrder struct {
	ShopID       int64           `json:"shopId"`
	ShopName     string          `json:"shopName"`
	Phone        string          `json:"phone"`
	UsedFallback bool            `json:"usedFallback"`
	Items        []cart.Item     `json:"items"`
	Subtotal     decimal.Decimal `json:"subtotal"`
	Message      string          `json:"message"`
	Link         string          `json:"link"`
}

// Order is a planned checkout.
type Order struct {
	Groups     []ShopOrder     `json:"groups"`
	GrandTotal decimal.Decimal `json:"grandTotal"`
	Failures   []OpenFailure   `json:"failures,omitempty"`
}

// Links returns the link of every group in order.
func (o *Order) Links() []string {
	links := make([]string, len(o.Groups))
	for i, g := range o.Groups {
		links[i] = g.Link
	}
	return links
}

// Service plans and dispatches checkouts.
type Service struct {
	StoreName        string
	MessagingBaseURL string
	Resolver         *Resolver
	Renderer         *Renderer
	Dispatcher       *Dispatcher
	Metrics          *metrics.AppMetrics
	Logger           *zap.Logger
}

// WithOpener returns a copy of s that hands links to o.
func (s *Service) WithOpener(o Opener) *Service {
	cp := *s
	d := Dispatcher{Opener: o, Logger: s.Logger}
	if s.Dispatcher != nil {
		d.Stagger = s.Dispatcher.Stagger
		d.Logger = s.Dispatcher.Logger
	}
	cp.Dispatcher = &d
	return &cp
}

// Plan groups the items by shop, resolves each shop and renders its message.
func (s *Service) Plan(ctx context.Context, items []cart.Item, customer cart.Customer) (*Order, error) {
	const op = "checkout.Plan"
	if len(items) == 0 {
		return nil, apperr.Validation(op, map[string]string{"items": "cart is empty"})
	}
	if err := customer.Validate(); err != nil {
		return nil, err
	}
	customer = customer.Trimmed()

	groups := Group(items)
	ids := make([]int64, len(groups))
	for i, g := range groups {
		ids[i] = g.ShopID
	}
	contacts := s.Resolver.ResolveAll(ctx, ids)

	order := &Order{GrandTotal: GrandTotal(groups)}
	for _, g := range groups {
		c := contacts[g.ShopID]
		msg, err := s.Renderer.Render(MessageData{
			StoreName: s.StoreName,
			Customer:  customer,
			ShopName:  c.ShopName,
			Items:     g.Items,
			Subtotal:  g.Subtotal,
		})
		if err != nil {
			return nil, apperr.Upstream(op, err)
		}
		order.Groups = append(order.Groups, ShopOrder{
			ShopID:       g.ShopID,
			ShopName:     c.ShopName,
			Phone:        c.Phone,
			UsedFallback: c.UsedFallback,
			Items:        g.Items,
			Subtotal:     g.Subtotal,
			Message:      msg,
			Link:         Link(s.MessagingBaseURL, c.Phone, msg),
		})
	}
	return order, nil
}

// Checkout plans the order and opens every shop's link. Failed opens are
// reported on the order; they do not fail the checkout.
func (s *Service) Checkout(ctx context.Context, items []cart.Item, customer cart.Customer) (*Order, error) {
	order, err := s.Plan(ctx, items, customer)
	if err != nil {
		return nil, err
	}

	order.Failures = s.Dispatcher.Dispatch(ctx, order.Links())

	failed := make(map[int]bool, len(order.Failures))
	for _, f := range order.Failures {
		failed[f.Index] = true
	}
	for i, g := range order.Groups {
		outcome := "opened"
		if failed[i] {
			outcome = "failed"
		}
		if s.Metrics != nil {
			s.Metrics.Add(ctx, s.Metrics.CheckoutDispatches,
				attribute.String("outcome", outcome),
				attribute.Bool("fallback", g.UsedFallback),
			)
			s.Metrics.CheckoutValue.Add(ctx, g.Subtotal.InexactFloat64(),
				metric.WithAttributes(s.Metrics.WithServiceName(nil)...))
		}
	}

	if s.Logger != nil {
		s.Logger.Info("checkout dispatched",
			zap.Int("groups", len(order.Groups)),
			zap.Int("failures", len(order.Failures)),
			zap.String("grand_total", order.GrandTotal.StringFixed(2)),
		)
	}
	return order, nil
}

// Submission adapts Service to cart.Submitter and keeps the resulting order.
type Submission struct {
	Service *Service
	Order   *Order
}

func (sub *Submission) SubmitOrder(ctx context.Context, items []cart.Item, customer cart.Customer) error {
	order, err := sub.Service.Checkout(ctx, items, customer)
	if err != nil {
		return err
	}
	sub.Order = order
	return nil
}
