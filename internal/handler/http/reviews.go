package http

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/telubhanuprasad/firestore-item-showcase/internal/domain"
	"github.com/telubhanuprasad/firestore-item-showcase/internal/view"
	apperrors "github.com/telubhanuprasad/firestore-item-showcase/pkg/errors"
	"github.com/telubhanuprasad/firestore-item-showcase/pkg/httputil"
	"github.com/telubhanuprasad/firestore-item-showcase/pkg/validator"
)

// IdempotencyKeyHeader carries the optional client-generated submission key.
const IdempotencyKeyHeader = "Idempotency-Key"

const maxIdempotencyKeyLen = 255

// ReviewService stores and lists reviews.
type ReviewService interface {
	AddReviewIdempotent(ctx context.Context, key string, input domain.NewReview) (id string, replayed bool, err error)
	ListReviewsForItem(ctx context.Context, itemID string) []domain.Review
}

// ReviewHandler handles HTTP requests for review endpoints.
type ReviewHandler struct {
	service ReviewService
	logger  *slog.Logger
}

// NewReviewHandler creates a new review HTTP handler.
func NewReviewHandler(svc ReviewService, logger *slog.Logger) *ReviewHandler {
	return &ReviewHandler{
		service: svc,
		logger:  logger,
	}
}

// ListReviews handles GET /api/v1/items/{itemId}/reviews. It always answers
// 200; an unavailable store shows as no reviews.
func (h *ReviewHandler) ListReviews(w http.ResponseWriter, r *http.Request) {
	itemID := chi.URLParam(r, "itemId")
	reviews := h.service.ListReviewsForItem(r.Context(), itemID)
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: view.NewReviewListBody(reviews)})
}

// CreateReview handles POST /api/v1/items/{itemId}/reviews
func (h *ReviewHandler) CreateReview(w http.ResponseWriter, r *http.Request) {
	itemID := chi.URLParam(r, "itemId")

	key := r.Header.Get(IdempotencyKeyHeader)
	if len(key) > maxIdempotencyKeyLen {
		httputil.WriteError(w, r, apperrors.InvalidInput("Idempotency-Key must be at most 255 characters"), h.logger)
		return
	}

	var req view.CreateReviewRequest
	if err := httputil.DecodeJSON(w, r, &req); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	id, replayed, err := h.service.AddReviewIdempotent(r.Context(), key, domain.NewReview{
		ItemID:       itemID,
		Rating:       req.Rating,
		Comment:      req.Comment,
		ReviewerName: req.ReviewerName,
	})
	if err != nil {
		var valErr *validator.ValidationError
		if errors.As(err, &valErr) {
			httputil.WriteValidationError(w, r, err)
			return
		}
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	status := http.StatusCreated
	if replayed {
		status = http.StatusOK
	}
	httputil.WriteJSON(w, status, httputil.Response{Data: view.CreatedReview{ID: id, Replayed: replayed}})
}
