package event

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/utafrali/storefront/internal/domain"
	pkgkafka "github.com/utafrali/storefront/pkg/kafka"
	"github.com/utafrali/storefront/pkg/logger"
)

type mockWriter struct {
	mock.Mock
}

func (m *mockWriter) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	args := m.Called(ctx, msgs)
	return args.Error(0)
}

func (m *mockWriter) Close() error {
	return m.Called().Error(0)
}

func newTestProducer(w *mockWriter) *Producer {
	l := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewProducer(pkgkafka.NewProducerWithWriter(w, []string{"localhost:9092"}, l), l)
}

// decodeEvent reads a published message back into its envelope and payload.
func decodeEvent(t *testing.T, msg kafka.Message, data any) pkgkafka.Event {
	t.Helper()
	var evt pkgkafka.Event
	require.NoError(t, json.Unmarshal(msg.Value, &evt))
	require.NoError(t, json.Unmarshal(evt.Data, data))
	return evt
}

func TestTopics(t *testing.T) {
	assert.Equal(t, "storefront.order.placed", TopicOrderPlaced)
	assert.Equal(t, "storefront.rating.submitted", TopicRatingSubmitted)
}

func TestProducer_Disabled(t *testing.T) {
	p := NewProducer(nil, slog.New(slog.NewTextHandler(io.Discard, nil)))
	assert.False(t, p.Enabled())
	assert.NoError(t, p.PublishOrderPlaced(context.Background(), domain.Order{Reference: "r"}))
	assert.NoError(t, p.PublishRatingSubmitted(context.Background(), "p1", "u1", 5))

	var nilProducer *Producer
	assert.NoError(t, nilProducer.PublishRatingSubmitted(context.Background(), "p1", "u1", 5))
}

func TestPublishOrderPlaced(t *testing.T) {
	w := new(mockWriter)
	var sent []kafka.Message
	w.On("WriteMessages", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) { sent = args.Get(1).([]kafka.Message) }).
		Return(nil)

	order := domain.Order{
		Reference: "ref-1",
		UserID:    "17",
		Items: []domain.OrderItem{
			{ProductID: "p1", Size: "M", Quantity: 2, Price: 2000},
			{ProductID: "p2", Size: "L", Quantity: 1, Price: 500},
		},
		Subtotal:    4500,
		DeliveryFee: 1000,
		Total:       5500,
		Currency:    "$",
	}
	ctx := logger.WithCorrelationID(context.Background(), "corr-1")

	require.NoError(t, newTestProducer(w).PublishOrderPlaced(ctx, order))
	require.Len(t, sent, 1)
	msg := sent[0]
	assert.Equal(t, TopicOrderPlaced, msg.Topic)
	assert.Equal(t, "ref-1", string(msg.Key))

	var data OrderPlacedData
	evt := decodeEvent(t, msg, &data)
	assert.Equal(t, "corr-1", evt.CorrelationID)
	assert.Equal(t, AggregateTypeOrder, evt.AggregateType)
	assert.Equal(t, SourceStorefront, evt.Source)
	assert.Equal(t, map[string]string{"user_id": "17", "currency": "$"}, evt.Metadata)

	assert.Equal(t, 3, data.ItemCount)
	assert.Equal(t, int64(5500), data.Total)
	assert.Equal(t, "17", data.UserID)
	require.Len(t, data.Items, 2)
	assert.Equal(t, int64(2000), data.Items[0].Price)
}

func TestPublishOrderPlaced_KeyedByBackendID(t *testing.T) {
	w := new(mockWriter)
	var sent []kafka.Message
	w.On("WriteMessages", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) { sent = args.Get(1).([]kafka.Message) }).
		Return(nil)

	require.NoError(t, newTestProducer(w).PublishOrderPlaced(context.Background(), domain.Order{ID: "42", Reference: "ref-2"}))
	require.Len(t, sent, 1)
	assert.Equal(t, "42", string(sent[0].Key))

	var data OrderPlacedData
	evt := decodeEvent(t, sent[0], &data)
	assert.Empty(t, evt.Metadata, "no blank user id on anonymous orders")
}

func TestPublish_UserIDFallsBackToRequest(t *testing.T) {
	w := new(mockWriter)
	var sent []kafka.Message
	w.On("WriteMessages", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) { sent = args.Get(1).([]kafka.Message) }).
		Return(nil)

	ctx := logger.WithUserID(context.Background(), "7")
	require.NoError(t, newTestProducer(w).PublishOrderPlaced(ctx, domain.Order{ID: "44"}))
	require.Len(t, sent, 1)

	var data OrderPlacedData
	evt := decodeEvent(t, sent[0], &data)
	assert.Equal(t, "7", evt.Metadata[pkgkafka.MetadataUserID])
}

func TestPublishRatingSubmitted(t *testing.T) {
	w := new(mockWriter)
	var sent []kafka.Message
	w.On("WriteMessages", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) { sent = args.Get(1).([]kafka.Message) }).
		Return(nil)

	require.NoError(t, newTestProducer(w).PublishRatingSubmitted(context.Background(), "p9", "u1", 4))
	require.Len(t, sent, 1)
	assert.Equal(t, TopicRatingSubmitted, sent[0].Topic)

	var data RatingSubmittedData
	evt := decodeEvent(t, sent[0], &data)
	assert.Equal(t, RatingSubmittedData{ProductID: "p9", UserID: "u1", Rating: 4}, data)
	assert.Equal(t, "u1", evt.Metadata[pkgkafka.MetadataUserID])
}

func TestPublish_WriterError(t *testing.T) {
	w := new(mockWriter)
	w.On("WriteMessages", mock.Anything, mock.Anything).Return(errors.New("broker down"))

	err := newTestProducer(w).PublishRatingSubmitted(context.Background(), "p9", "u1", 4)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "publish storefront.rating.submitted event")
}
