package backend

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/utafrali/storefront/internal/domain"
)

// flexString accepts a JSON string, number or null. Objects with a "name"
// field (nested categories) decode to that name.
type flexString string

func (f *flexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case len(data) == 0 || bytes.Equal(data, []byte("null")):
		*f = ""
	case data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = flexString(s)
	case data[0] == '{':
		var named struct {
			Name flexString `json:"name"`
		}
		if err := json.Unmarshal(data, &named); err != nil {
			return err
		}
		*f = named.Name
	default:
		var n json.Number
		if err := json.Unmarshal(data, &n); err != nil {
			return fmt.Errorf("expected string or number, got %s", data)
		}
		*f = flexString(n.String())
	}
	return nil
}

// stringList decodes a value that may be a single string, a list of strings
// or null. With splitCommas, a single string is split on commas ("S,M,L").
func stringList(raw json.RawMessage, splitCommas bool) []string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil
	}

	var single flexString
	if err := json.Unmarshal(raw, &single); err == nil {
		s := strings.TrimSpace(string(single))
		if s == "" {
			return nil
		}
		if !splitCommas {
			return []string{s}
		}
		var out []string
		for _, part := range strings.Split(s, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
		return out
	}

	var many []flexString
	if err := json.Unmarshal(raw, &many); err != nil {
		return nil
	}
	out := make([]string, 0, len(many))
	for _, v := range many {
		if s := strings.TrimSpace(string(v)); s != "" {
			out = append(out, s)
		}
	}
	return out
}

type productPayload struct {
	ID           flexString      `json:"id"`
	Name         string          `json:"name"`
	Description  string          `json:"description"`
	Price        domain.Money    `json:"price"`
	CurrentPrice *domain.Money   `json:"current_price"`
	Image        json.RawMessage `json:"image"`
	Images       json.RawMessage `json:"images"`
	Category     flexString      `json:"category"`
	Sizes        json.RawMessage `json:"sizes"`
}

func (p productPayload) toDomain(base *url.URL) domain.Product {
	images := stringList(p.Image, false)
	if len(images) == 0 {
		images = stringList(p.Images, false)
	}
	for i, img := range images {
		images[i] = resolveURL(base, img)
	}
	return domain.Product{
		ID:           string(p.ID),
		Name:         p.Name,
		Description:  p.Description,
		Price:        p.Price,
		CurrentPrice: p.CurrentPrice,
		Images:       images,
		Category:     string(p.Category),
		Sizes:        stringList(p.Sizes, true),
	}
}

// resolveURL turns a backend-relative media path into an absolute URL.
func resolveURL(base *url.URL, ref string) string {
	if base == nil {
		return ref
	}
	u, err := url.Parse(ref)
	if err != nil || u.IsAbs() || u.Host != "" {
		return ref
	}
	return base.ResolveReference(u).String()
}

type orderItemPayload struct {
	Product  flexString   `json:"product"`
	Name     string       `json:"name"`
	Size     string       `json:"size"`
	Quantity int          `json:"quantity"`
	Price    domain.Money `json:"price"`
	Image    string       `json:"image,omitempty"`
}

type orderRequest struct {
	User          string             `json:"user,omitempty"`
	Items         []orderItemPayload `json:"items"`
	Subtotal      domain.Money       `json:"subtotal"`
	DeliveryFee   domain.Money       `json:"delivery_fee"`
	Amount        domain.Money       `json:"amount"`
	Currency      string             `json:"currency,omitempty"`
	PaymentMethod string             `json:"payment_method,omitempty"`
	Address       *domain.Address    `json:"address,omitempty"`
	Reference     string             `json:"reference,omitempty"`
}

func newOrderRequest(o domain.Order) orderRequest {
	items := make([]orderItemPayload, 0, len(o.Items))
	for _, it := range o.Items {
		items = append(items, orderItemPayload{
			Product:  flexString(it.ProductID),
			Name:     it.Name,
			Size:     it.Size,
			Quantity: it.Quantity,
			Price:    it.Price,
			Image:    it.Image,
		})
	}
	return orderRequest{
		User:          o.UserID,
		Items:         items,
		Subtotal:      o.Subtotal,
		DeliveryFee:   o.DeliveryFee,
		Amount:        o.Total,
		Currency:      o.Currency,
		PaymentMethod: o.PaymentMethod,
		Address:       o.Address,
		Reference:     o.Reference,
	}
}

type orderPayload struct {
	ID            flexString         `json:"id"`
	User          flexString         `json:"user"`
	Items         []orderItemPayload `json:"items"`
	Amount        *domain.Money      `json:"amount"`
	Total         *domain.Money      `json:"total"`
	Status        string             `json:"status"`
	PaymentMethod string             `json:"payment_method"`
	CreatedAt     string             `json:"created_at"`
}

func (p orderPayload) toDomain(base *url.URL) domain.Order {
	o := domain.Order{
		ID:            string(p.ID),
		UserID:        string(p.User),
		Items:         make([]domain.OrderItem, 0, len(p.Items)),
		Status:        p.Status,
		PaymentMethod: p.PaymentMethod,
	}
	for _, it := range p.Items {
		o.Items = append(o.Items, domain.OrderItem{
			ProductID: string(it.Product),
			Name:      it.Name,
			Size:      it.Size,
			Quantity:  it.Quantity,
			Price:     it.Price,
			Image:     resolveURL(base, it.Image),
		})
		o.Subtotal += it.Price.Mul(it.Quantity)
	}
	switch {
	case p.Total != nil:
		o.Total = *p.Total
	case p.Amount != nil:
		o.Total = *p.Amount
	default:
		o.Total = o.Subtotal
	}
	if o.Total > o.Subtotal {
		o.DeliveryFee = o.Total - o.Subtotal
	}
	if t, err := time.Parse(time.RFC3339Nano, p.CreatedAt); err == nil {
		o.CreatedAt = t
	}
	return o
}

// Credentials is the login form. It shares its fields with Registration and
// the whole form is posted; the backend authenticates on email and password.
type Credentials struct {
	Username    string `json:"username" validate:"omitempty,max=150"`
	Email       string `json:"email" validate:"required,email"`
	PhoneNumber string `json:"phone_number" validate:"omitempty,max=20"`
	Password    string `json:"password" validate:"required"`
}

// Registration is the sign-up form.
type Registration struct {
	Username    string `json:"username" validate:"required,max=150"`
	Email       string `json:"email" validate:"required,email"`
	PhoneNumber string `json:"phone_number" validate:"required,max=20"`
	Password    string `json:"password" validate:"required"`
}

// Tokens is the backend's answer to a successful login.
type Tokens struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh,omitempty"`
	Message string `json:"message,omitempty"`
}

type messagePayload struct {
	Message string `json:"message"`
	Detail  string `json:"detail"`
}

// Rating is a product rating submission.
type Rating struct {
	ProductID string
	UserID    string
	Value     int
}

func (r Rating) fields() map[string]string {
	return map[string]string{
		"rating":  strconv.Itoa(r.Value),
		"user":    r.UserID,
		"product": r.ProductID,
	}
}
