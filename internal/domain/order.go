package domain

import "time"

// Payment methods accepted at checkout.
const (
	PaymentCOD    = "cod"
	PaymentStripe = "stripe"
	PaymentRazor  = "razorpay"
)

// QuotedLine is a cart line joined with its catalog record.
type QuotedLine struct {
	ProductID string `json:"product_id"`
	Size      string `json:"size"`
	Quantity  int    `json:"quantity"`
	Name      string `json:"name"`
	Image     string `json:"image,omitempty"`
	UnitPrice Money  `json:"unit_price"`
	LineTotal Money  `json:"line_total"`
}

// Quote is the priced view of a cart. Lines whose product is not in the
// catalog are listed in Unavailable and left out of every amount.
type Quote struct {
	Lines       []QuotedLine `json:"lines"`
	Unavailable []LineKey    `json:"unavailable"`
	Subtotal    Money        `json:"subtotal"`
	ShippingFee Money        `json:"shipping_fee"`
	Total       Money        `json:"total"`
	ItemCount   int          `json:"item_count"`
}

// QuoteCart prices c against the catalog. The delivery fee only applies to a
// non-zero subtotal.
func QuoteCart(c Cart, lookup ProductLookup, deliveryFee Money) Quote {
	q := Quote{
		Lines:       []QuotedLine{},
		Unavailable: []LineKey{},
		ItemCount:   c.ItemCount(),
	}
	for _, line := range c.Lines() {
		p, ok := lookup(line.ProductID)
		if !ok {
			q.Unavailable = append(q.Unavailable, line.LineKey)
			continue
		}
		unit := p.EffectivePrice()
		q.Lines = append(q.Lines, QuotedLine{
			ProductID: line.ProductID,
			Size:      line.Size,
			Quantity:  line.Quantity,
			Name:      p.Name,
			Image:     p.Image(),
			UnitPrice: unit,
			LineTotal: unit.Mul(line.Quantity),
		})
		q.Subtotal += unit.Mul(line.Quantity)
	}
	if q.Subtotal > 0 {
		q.ShippingFee = deliveryFee
	}
	q.Total = q.Subtotal + q.ShippingFee
	return q
}

// Address is the delivery address captured at checkout.
type Address struct {
	FirstName string `json:"first_name" validate:"required,max=100"`
	LastName  string `json:"last_name" validate:"required,max=100"`
	Email     string `json:"email" validate:"required,email"`
	Street    string `json:"street" validate:"required,max=200"`
	City      string `json:"city" validate:"required,max=100"`
	State     string `json:"state" validate:"max=100"`
	Zipcode   string `json:"zipcode" validate:"required,max=20"`
	Country   string `json:"country" validate:"required,max=100"`
	Phone     string `json:"phone" validate:"required,max=30"`
}

// OrderItem is one purchased line as sent to, and returned by, the backend.
type OrderItem struct {
	ProductID string `json:"product"`
	Name      string `json:"name"`
	Size      string `json:"size"`
	Quantity  int    `json:"quantity"`
	Price     Money  `json:"price"`
	Image     string `json:"image,omitempty"`
}

// Order is a submitted order.
type Order struct {
	ID            string      `json:"id,omitempty"`
	Reference     string      `json:"reference,omitempty"`
	UserID        string      `json:"user,omitempty"`
	Items         []OrderItem `json:"items"`
	Subtotal      Money       `json:"subtotal"`
	DeliveryFee   Money       `json:"delivery_fee"`
	Total         Money       `json:"total"`
	Currency      string      `json:"currency,omitempty"`
	PaymentMethod string      `json:"payment_method,omitempty"`
	Address       *Address    `json:"address,omitempty"`
	Status        string      `json:"status,omitempty"`
	CreatedAt     time.Time   `json:"created_at,omitzero"`
}

// NewOrderFromQuote snapshots a quote into an order. Unavailable lines are
// not part of the order.
func NewOrderFromQuote(q Quote, currency string) Order {
	items := make([]OrderItem, 0, len(q.Lines))
	for _, l := range q.Lines {
		items = append(items, OrderItem{
			ProductID: l.ProductID,
			Name:      l.Name,
			Size:      l.Size,
			Quantity:  l.Quantity,
			Price:     l.UnitPrice,
			Image:     l.Image,
		})
	}
	return Order{
		Items:       items,
		Subtotal:    q.Subtotal,
		DeliveryFee: q.ShippingFee,
		Total:       q.Total,
		Currency:    currency,
	}
}

// ValidPaymentMethod reports whether m is an accepted payment method.
func ValidPaymentMethod(m string) bool {
	switch m {
	case PaymentCOD, PaymentStripe, PaymentRazor:
		return true
	default:
		return false
	}
}
