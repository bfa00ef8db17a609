package checkout

import (
	"net/url"
	"strings"
	"text/template"

	"github.com/shopspring/decimal"

	"github.com/shahdolbazaar/marketplace-go-app/internal/cart"
)

const defaultMessage = `🛒 *Order from {{.StoreName}}*

*Customer Details:*
👤 Name: {{.Customer.Name}}
📱 Phone: {{.Customer.Phone}}
📍 Delivery Address: {{.Customer.Address}}

*Shop:* {{.ShopName}}

*Items:*
{{range .Items}}• {{.Name}} — {{money .Price}} × {{.Quantity}}
{{end}}
*Total: {{money .Subtotal}}*

Please confirm this order. Thank you!`

// MessageData is the input of one shop's order message.
type MessageData struct {
	StoreName string
	Customer  cart.Customer
	ShopName  string
	Items     []cart.Item
	Subtotal  decimal.Decimal
}

// Renderer renders per-shop order messages.
type Renderer struct {
	tmpl *template.Template
}

// NewRenderer parses the order template. Money is shown with currency and
// two decimals, rounded half-up.
func NewRenderer(currency string) (*Renderer, error) {
	tmpl, err := template.New("order").Funcs(template.FuncMap{
		"money": func(d decimal.Decimal) string { return currency + d.StringFixed(2) },
	}).Parse(defaultMessage)
	if err != nil {
		return nil, err
	}
	return &Renderer{tmpl: tmpl}, nil
}

func (r *Renderer) Render(data MessageData) (string, error) {
	var b strings.Builder
	if err := r.tmpl.Execute(&b, data); err != nil {
		return "", err
	}
	return b.String(), nil
}

// Link builds the click-to-chat URL for phone with message prefilled.
func Link(baseURL, phone, message string) string {
	// QueryEscape writes spaces as '+'; chat clients expect %20
	text := strings.ReplaceAll(url.QueryEscape(message), "+", "%20")
	return strings.TrimRight(baseURL, "/") + "/" + phone + "?text=" + text
}
