package checkout

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/shahdolbazaar/marketplace-go-app/internal/apperr"
	"github.com/shahdolbazaar/marketplace-go-app/internal/cart"
	"github.com/shahdolbazaar/marketplace-go-app/internal/metrics"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func line(id, shopID int64, name, price string, qty int) cart.Item {
	return cart.Item{ID: id, ShopID: shopID, Name: name, Price: decimal.RequireFromString(price), Quantity: qty}
}

var decimalEqual = cmp.Comparer(func(a, b decimal.Decimal) bool { return a.Equal(b) })

func TestGroupTotals(t *testing.T) {
	items := []cart.Item{
		line(1, 1, "Atta", "100", 2),
		line(2, 1, "Dal", "50", 1),
		line(3, 2, "Pen", "30", 3),
	}

	groups := Group(items)

	want := []ShopGroup{
		{ShopID: 1, Items: items[:2], Subtotal: decimal.NewFromInt(250)},
		{ShopID: 2, Items: items[2:], Subtotal: decimal.NewFromInt(90)},
	}
	if diff := cmp.Diff(want, groups, decimalEqual); diff != "" {
		t.Errorf("Group() mismatch (-want +got):\n%s", diff)
	}
	assert.True(t, decimal.NewFromInt(340).Equal(GrandTotal(groups)))
}

func TestGroupKeepsFirstAppearanceOrder(t *testing.T) {
	items := []cart.Item{
		line(1, 7, "a", "1", 1),
		line(2, 3, "b", "1", 1),
		line(3, 7, "c", "1", 1),
	}
	groups := Group(items)
	require.Len(t, groups, 2)
	assert.Equal(t, int64(7), groups[0].ShopID)
	assert.Equal(t, []int64{1, 3}, []int64{groups[0].Items[0].ID, groups[0].Items[1].ID})
	assert.Equal(t, int64(3), groups[1].ShopID)
}

func TestNormalizePhone(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{"9876543210", "919876543210"},
		{"+91 98765-43210", "919876543210"},
		{"(987) 654 3210", "919876543210"},
		{"919753239303", "919753239303"},
		{"07652-245678", "07652245678"},
		{"", ""},
		{"n/a", ""},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizePhone(tt.raw, "91"))
		})
	}
}

func TestLinkEncodesMessage(t *testing.T) {
	link := Link("https://wa.me/", "919876543210", "Hi & bye + ₹100 × 2")
	assert.True(t, strings.HasPrefix(link, "https://wa.me/919876543210?text="))
	assert.NotContains(t, link, " ")
	assert.NotContains(t, link, "+")

	u, err := url.Parse(link)
	require.NoError(t, err)
	assert.Equal(t, "Hi & bye + ₹100 × 2", u.Query().Get("text"))
}

type fakeShops map[int64]ShopContact

func (f fakeShops) ResolveShop(_ context.Context, id int64) (ShopContact, error) {
	if c, ok := f[id]; ok {
		return c, nil
	}
	return ShopContact{}, apperr.NotFound("shops.LookupContact", "shop")
}

func newService(t *testing.T, shops ShopResolver, opener Opener) *Service {
	t.Helper()
	r, err := NewRenderer("₹")
	require.NoError(t, err)
	return &Service{
		StoreName:        "Shahdol Bazaar",
		MessagingBaseURL: "https://wa.me",
		Resolver: &Resolver{
			Shops:           shops,
			FallbackContact: "919753239303",
			CountryCode:     "91",
			Metrics:         metrics.NewNoop(),
		},
		Renderer:   r,
		Dispatcher: &Dispatcher{Opener: opener, Stagger: time.Millisecond},
		Metrics:    metrics.NewNoop(),
	}
}

func TestCheckoutTwoShopsWithFallback(t *testing.T) {
	shops := fakeShops{1: {Name: "Ravi Kirana", Phone: "9876543210"}}
	opener := &RecordingOpener{}
	svc := newService(t, shops, opener)

	items := []cart.Item{
		line(1, 1, "Atta 5kg", "120.50", 2),
		line(2, 2, "Notebook", "45", 1),
	}
	customer := cart.Customer{Name: "Asha", Phone: "9000000000", Address: "Ward 4, Shahdol"}

	order, err := svc.Checkout(context.Background(), items, customer)
	require.NoError(t, err)
	require.Len(t, order.Groups, 2)

	a, b := order.Groups[0], order.Groups[1]
	assert.Equal(t, "919876543210", a.Phone)
	assert.False(t, a.UsedFallback)
	assert.Equal(t, "Ravi Kirana", a.ShopName)

	assert.Equal(t, "919753239303", b.Phone)
	assert.True(t, b.UsedFallback)
	assert.Equal(t, FallbackShopName, b.ShopName)

	assert.Equal(t, []string{a.Link, b.Link}, opener.Links())
	assert.True(t, strings.HasPrefix(a.Link, "https://wa.me/919876543210?text="))
	assert.True(t, strings.HasPrefix(b.Link, "https://wa.me/919753239303?text="))
	assert.Equal(t, "286.00", order.GrandTotal.StringFixed(2))
	assert.Empty(t, order.Failures)
}

func TestMessageContent(t *testing.T) {
	svc := newService(t, fakeShops{1: {Name: "Ravi Kirana", Phone: "9876543210"}}, &RecordingOpener{})

	order, err := svc.Plan(context.Background(),
		[]cart.Item{line(1, 1, "Atta 5kg", "120.505", 2), line(2, 1, "Dal", "50", 1)},
		cart.Customer{Name: " Asha ", Phone: "9000000000", Address: "Ward 4"})
	require.NoError(t, err)
	require.Len(t, order.Groups, 1)

	msg := order.Groups[0].Message
	for _, want := range []string{
		"Order from Shahdol Bazaar",
		"Name: Asha\n",
		"Phone: 9000000000",
		"Delivery Address: Ward 4",
		"*Shop:* Ravi Kirana",
		"• Atta 5kg — ₹120.51 × 2",
		"• Dal — ₹50.00 × 1",
		"*Total: ₹291.01*",
	} {
		assert.Contains(t, msg, want)
	}
	assert.Less(t, strings.Index(msg, "Name:"), strings.Index(msg, "*Shop:*"))
	assert.Less(t, strings.Index(msg, "*Shop:*"), strings.Index(msg, "*Items:*"))
	assert.Less(t, strings.Index(msg, "*Items:*"), strings.Index(msg, "*Total:"))
}

func TestPlanRejectsBlankCustomerBeforeLookup(t *testing.T) {
	var calls int
	shops := resolverFunc(func(context.Context, int64) (ShopContact, error) {
		calls++
		return ShopContact{}, nil
	})
	opener := &RecordingOpener{}
	svc := newService(t, shops, opener)

	_, err := svc.Checkout(context.Background(), []cart.Item{line(1, 1, "a", "1", 1)}, cart.Customer{Name: "Asha", Phone: " ", Address: ""})
	require.ErrorIs(t, err, apperr.ErrValidation)
	assert.Len(t, apperr.FieldErrors(err), 2)
	assert.Zero(t, calls)
	assert.Empty(t, opener.Links())

	_, err = svc.Checkout(context.Background(), nil, cart.Customer{Name: "a", Phone: "b", Address: "c"})
	assert.ErrorIs(t, err, apperr.ErrValidation)
}

type resolverFunc func(context.Context, int64) (ShopContact, error)

func (f resolverFunc) ResolveShop(ctx context.Context, id int64) (ShopContact, error) { return f(ctx, id) }

func TestResolveAllLookupsAreIndependent(t *testing.T) {
	shops := resolverFunc(func(ctx context.Context, id int64) (ShopContact, error) {
		switch id {
		case 1:
			return ShopContact{}, errors.New("db timeout")
		case 2:
			return ShopContact{Name: "Sharma Stores", Phone: "9876543211"}, nil
		default:
			return ShopContact{Name: "No Phone", Phone: ""}, nil
		}
	})
	r := &Resolver{Shops: shops, FallbackContact: "919753239303", CountryCode: "91"}

	got := r.ResolveAll(context.Background(), []int64{1, 2, 3})

	assert.Equal(t, Contact{ShopName: "Shop", Phone: "919753239303", UsedFallback: true}, got[1])
	assert.Equal(t, Contact{ShopName: "Sharma Stores", Phone: "919876543211"}, got[2])
	assert.Equal(t, Contact{ShopName: "No Phone", Phone: "919753239303", UsedFallback: true}, got[3])
}

type timedOpener struct {
	mu    sync.Mutex
	times []time.Time
	fail  map[int]bool
	n     int
}

func (o *timedOpener) Open(context.Context, string) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	i := o.n
	o.n++
	o.times = append(o.times, time.Now())
	if o.fail[i] {
		return errors.New("popup blocked")
	}
	return nil
}

func TestDispatcherStaggersAndContinuesPastFailures(t *testing.T) {
	opener := &timedOpener{fail: map[int]bool{1: true}}
	d := &Dispatcher{Opener: opener, Stagger: 20 * time.Millisecond}

	start := time.Now()
	failures := d.Dispatch(context.Background(), []string{"a", "b", "c"})

	require.Len(t, opener.times, 3, "a failed open must not block later links")
	require.Len(t, failures, 1)
	assert.Equal(t, 1, failures[0].Index)
	assert.Equal(t, "b", failures[0].Link)
	assert.Less(t, opener.times[0].Sub(start), 20*time.Millisecond, "first link opens immediately")
	assert.GreaterOrEqual(t, opener.times[2].Sub(opener.times[0]), 40*time.Millisecond)
}

func TestDispatcherSingleLinkOpensImmediately(t *testing.T) {
	opener := &timedOpener{}
	d := &Dispatcher{Opener: opener, Stagger: time.Hour}

	assert.Empty(t, d.Dispatch(context.Background(), []string{"only"}))
	assert.Len(t, opener.times, 1)
}

func TestDispatcherHonoursCancellation(t *testing.T) {
	opener := &timedOpener{}
	d := &Dispatcher{Opener: opener, Stagger: time.Hour}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	failures := d.Dispatch(ctx, []string{"a", "b", "c"})
	assert.Len(t, opener.times, 1)
	require.Len(t, failures, 2)
	assert.Equal(t, []int{1, 2}, []int{failures[0].Index, failures[1].Index})
}

func TestSubmissionClearsCart(t *testing.T) {
	ctx := context.Background()
	opener := &RecordingOpener{}
	sub := &Submission{Service: newService(t, fakeShops{}, opener)}

	s, err := cart.Open(ctx, cart.NewMemoryStore(), "s1")
	require.NoError(t, err)
	require.NoError(t, s.Add(ctx, line(1, 1, "Atta", "100", 1)))
	require.NoError(t, s.Add(ctx, line(2, 2, "Pen", "10", 1)))
	require.NoError(t, s.ProceedToCheckout())

	require.NoError(t, s.Submit(ctx, cart.Customer{Name: "Asha", Phone: "9", Address: "Ward 4"}, sub))
	assert.Equal(t, cart.StateEmpty, s.State())
	require.NotNil(t, sub.Order)
	assert.Len(t, opener.Links(), 2)
}
