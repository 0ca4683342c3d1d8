package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/utafrali/storefront/internal/backend"
	"github.com/utafrali/storefront/internal/event"
	"github.com/utafrali/storefront/internal/notify"
	apperrors "github.com/utafrali/storefront/pkg/errors"
)

// Rating bounds.
const (
	MinRating = 1
	MaxRating = 5
)

// RatingBackend is the part of the shop backend that stores ratings.
type RatingBackend interface {
	CreateRating(ctx context.Context, token string, r backend.Rating) error
}

// RatingService submits product ratings on behalf of the signed-in shopper.
type RatingService struct {
	session  *SessionService
	backend  RatingBackend
	producer *event.Producer
	logger   *slog.Logger
}

// NewRatingService creates a new rating service.
func NewRatingService(session *SessionService, backend RatingBackend, producer *event.Producer, logger *slog.Logger) *RatingService {
	return &RatingService{
		session:  session,
		backend:  backend,
		producer: producer,
		logger:   logger,
	}
}

// Submit rates productID. A rating of 0 means the shopper picked nothing.
func (s *RatingService) Submit(ctx context.Context, productID string, rating int) error {
	if productID == "" {
		return apperrors.InvalidInput("product id is required")
	}
	if rating == 0 {
		notify.Error(ctx, "Please select a rating before submitting!")
		return apperrors.InvalidInput("select a rating")
	}
	if rating < MinRating || rating > MaxRating {
		return apperrors.InvalidInput(fmt.Sprintf("rating must be between %d and %d", MinRating, MaxRating))
	}

	token := s.session.Token()
	if token == "" {
		notify.Error(ctx, "You must be logged in to submit a rating.")
		return apperrors.LoginRequired("log in to rate products")
	}
	userID := s.session.UserID()

	err := s.backend.CreateRating(ctx, token, backend.Rating{
		ProductID: productID,
		UserID:    userID,
		Value:     rating,
	})
	if err != nil {
		if apperrors.IsUnauthorized(err) {
			s.session.Invalidate(ctx)
			return apperrors.LoginRequired("your session has expired, log in again to rate products")
		}
		s.logger.ErrorContext(ctx, "rating submission failed",
			slog.String("product_id", productID),
			slog.String("error", err.Error()),
		)
		notify.Error(ctx, "Failed to submit rating. Please try again.")
		return apperrors.Upstream("RATING_FAILED", "the rating could not be submitted", err)
	}

	if err := s.producer.PublishRatingSubmitted(ctx, productID, userID, rating); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish rating.submitted event",
			slog.String("product_id", productID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "product rated",
		slog.String("product_id", productID),
		slog.Int("rating", rating),
	)
	notify.Success(ctx, fmt.Sprintf("You rated this product %d stars!", rating))
	return nil
}
