package event

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/utafrali/storefront/internal/domain"
	pkgkafka "github.com/utafrali/storefront/pkg/kafka"
	"github.com/utafrali/storefront/pkg/logger"
)

// Kafka topics for storefront activity events.
var (
	TopicOrderPlaced     = pkgkafka.Topic("order", "placed")
	TopicRatingSubmitted = pkgkafka.Topic("rating", "submitted")
)

// Aggregate types.
const (
	AggregateTypeOrder   = "order"
	AggregateTypeProduct = "product"
)

// SourceStorefront identifies events published by this process.
const SourceStorefront = "storefront"

// OrderPlacedData is the payload for an order.placed event.
type OrderPlacedData struct {
	OrderID       string          `json:"order_id,omitempty"`
	Reference     string          `json:"reference"`
	UserID        string          `json:"user_id,omitempty"`
	Items         []OrderItemData `json:"items"`
	ItemCount     int             `json:"item_count"`
	Subtotal      int64           `json:"subtotal"`
	DeliveryFee   int64           `json:"delivery_fee"`
	Total         int64           `json:"total"`
	Currency      string          `json:"currency"`
	PaymentMethod string          `json:"payment_method,omitempty"`
}

// OrderItemData is the item payload within order events. Prices are in cents.
type OrderItemData struct {
	ProductID string `json:"product_id"`
	Size      string `json:"size"`
	Quantity  int    `json:"quantity"`
	Price     int64  `json:"price"`
}

// RatingSubmittedData is the payload for a rating.submitted event.
type RatingSubmittedData struct {
	ProductID string `json:"product_id"`
	UserID    string `json:"user_id,omitempty"`
	Rating    int    `json:"rating"`
}

// Producer publishes storefront events to Kafka. A Producer built without a
// Kafka producer drops every event, which is how the storefront runs when no
// brokers are configured.
type Producer struct {
	kafka  *pkgkafka.Producer
	logger *slog.Logger
}

// NewProducer creates an event producer. kafka may be nil.
func NewProducer(kafka *pkgkafka.Producer, logger *slog.Logger) *Producer {
	return &Producer{
		kafka:  kafka,
		logger: logger,
	}
}

// Enabled reports whether events are actually sent.
func (p *Producer) Enabled() bool {
	return p != nil && p.kafka != nil
}

// PublishOrderPlaced publishes an order.placed event.
func (p *Producer) PublishOrderPlaced(ctx context.Context, order domain.Order) error {
	if !p.Enabled() {
		return nil
	}

	items := make([]OrderItemData, len(order.Items))
	count := 0
	for i, it := range order.Items {
		items[i] = OrderItemData{
			ProductID: it.ProductID,
			Size:      it.Size,
			Quantity:  it.Quantity,
			Price:     it.Price.Cents(),
		}
		count += it.Quantity
	}

	data := OrderPlacedData{
		OrderID:       order.ID,
		Reference:     order.Reference,
		UserID:        order.UserID,
		Items:         items,
		ItemCount:     count,
		Subtotal:      order.Subtotal.Cents(),
		DeliveryFee:   order.DeliveryFee.Cents(),
		Total:         order.Total.Cents(),
		Currency:      order.Currency,
		PaymentMethod: order.PaymentMethod,
	}

	aggregateID := order.ID
	if aggregateID == "" {
		aggregateID = order.Reference
	}
	meta := map[string]string{
		pkgkafka.MetadataUserID:   order.UserID,
		pkgkafka.MetadataCurrency: order.Currency,
	}
	if err := p.publish(ctx, TopicOrderPlaced, aggregateID, AggregateTypeOrder, data, meta); err != nil {
		return err
	}

	p.logger.DebugContext(ctx, "published order.placed event",
		slog.String("reference", order.Reference),
		slog.Int("item_count", count),
	)
	return nil
}

// PublishRatingSubmitted publishes a rating.submitted event.
func (p *Producer) PublishRatingSubmitted(ctx context.Context, productID, userID string, rating int) error {
	if !p.Enabled() {
		return nil
	}

	data := RatingSubmittedData{
		ProductID: productID,
		UserID:    userID,
		Rating:    rating,
	}
	meta := map[string]string{pkgkafka.MetadataUserID: userID}
	if err := p.publish(ctx, TopicRatingSubmitted, productID, AggregateTypeProduct, data, meta); err != nil {
		return err
	}

	p.logger.DebugContext(ctx, "published rating.submitted event",
		slog.String("product_id", productID),
		slog.Int("rating", rating),
	)
	return nil
}

func (p *Producer) publish(ctx context.Context, topic, aggregateID, aggregateType string, data any, meta map[string]string) error {
	event, err := pkgkafka.NewEvent(topic, aggregateID, aggregateType, SourceStorefront, data)
	if err != nil {
		return fmt.Errorf("create %s event: %w", topic, err)
	}
	if id := logger.CorrelationIDFromContext(ctx); id != "" {
		event.WithCorrelationID(id)
	}
	for k, v := range meta {
		event.WithMetadata(k, v)
	}
	if _, ok := event.Metadata[pkgkafka.MetadataUserID]; !ok {
		event.WithMetadata(pkgkafka.MetadataUserID, logger.UserIDFromContext(ctx))
	}

	if err := p.kafka.Publish(ctx, topic, event); err != nil {
		return fmt.Errorf("publish %s event: %w", topic, err)
	}
	return nil
}
