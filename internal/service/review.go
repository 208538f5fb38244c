package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/telubhanuprasad/firestore-item-showcase/internal/domain"
	"github.com/telubhanuprasad/firestore-item-showcase/internal/event"
	"github.com/telubhanuprasad/firestore-item-showcase/internal/idempotency"
	"github.com/telubhanuprasad/firestore-item-showcase/internal/repository"
	apperrors "github.com/telubhanuprasad/firestore-item-showcase/pkg/errors"
	"github.com/telubhanuprasad/firestore-item-showcase/pkg/validator"
)

// MsgAddReviewFailed is the only message shown for any submission fault.
const MsgAddReviewFailed = "Failed to add review. Please try again."

// ReviewService implements review submission and listing.
type ReviewService struct {
	repo    repository.ReviewRepository
	keys    idempotency.Store
	events  event.Publisher
	metrics *Metrics
	logger  *slog.Logger
	now     func() time.Time
}

// ReviewOption configures a ReviewService.
type ReviewOption func(*ReviewService)

// WithIdempotency enables Idempotency-Key handling backed by store.
func WithIdempotency(store idempotency.Store) ReviewOption {
	return func(s *ReviewService) { s.keys = store }
}

// WithPublisher sets where review.created events go.
func WithPublisher(p event.Publisher) ReviewOption {
	return func(s *ReviewService) { s.events = p }
}

// WithMetrics sets the metrics sink.
func WithMetrics(m *Metrics) ReviewOption {
	return func(s *ReviewService) { s.metrics = m }
}

// WithClock sets the clock used for reviews stored without createdAt.
func WithClock(now func() time.Time) ReviewOption {
	return func(s *ReviewService) { s.now = now }
}

// NewReviewService creates a new review service.
func NewReviewService(repo repository.ReviewRepository, logger *slog.Logger, opts ...ReviewOption) *ReviewService {
	s := &ReviewService{
		repo:   repo,
		events: event.Noop{},
		logger: logger,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// AddReview validates and stores one review and returns its id. The review
// is trimmed first; a blank comment or reviewer name is rejected. Store
// faults are returned as WRITE_FAILED and are not retried.
func (s *ReviewService) AddReview(ctx context.Context, input domain.NewReview) (string, error) {
	input.Normalize()
	if err := validator.Validate(input); err != nil {
		return "", err
	}
	return s.write(ctx, input)
}

// AddReviewIdempotent is AddReview keyed by a client-generated key. A
// repeated key for the same item returns the first review's id and
// replayed=true without writing again. An empty key behaves like AddReview.
func (s *ReviewService) AddReviewIdempotent(ctx context.Context, key string, input domain.NewReview) (id string, replayed bool, err error) {
	input.Normalize()
	if err := validator.Validate(input); err != nil {
		return "", false, err
	}
	if key == "" || s.keys == nil {
		id, err := s.write(ctx, input)
		return id, false, err
	}

	scoped := input.ItemID + ":" + key
	rec, err := s.keys.Begin(ctx, scoped)
	if err != nil {
		s.logger.WarnContext(ctx, "idempotency store unavailable, writing without dedup",
			slog.String("error", err.Error()),
		)
		id, err := s.write(ctx, input)
		return id, false, err
	}
	if rec != nil {
		if rec.InFlight() {
			return "", false, apperrors.Conflict("A review with this Idempotency-Key is still being processed.")
		}
		s.metrics.replayed()
		s.logger.InfoContext(ctx, "review replayed from idempotency key",
			slog.String("review_id", rec.ReviewID),
			slog.String("item_id", input.ItemID),
		)
		return rec.ReviewID, true, nil
	}

	id, err = s.write(ctx, input)
	if err != nil {
		if abortErr := s.keys.Abort(ctx, scoped); abortErr != nil {
			s.logger.WarnContext(ctx, "failed to release idempotency key",
				slog.String("error", abortErr.Error()),
			)
		}
		return "", false, err
	}
	if err := s.keys.Finish(ctx, scoped, id); err != nil {
		s.logger.WarnContext(ctx, "failed to record idempotency key",
			slog.String("review_id", id),
			slog.String("error", err.Error()),
		)
	}
	return id, false, nil
}

func (s *ReviewService) write(ctx context.Context, input domain.NewReview) (string, error) {
	id, err := s.repo.Create(ctx, input)
	s.metrics.observe(opAddReview, err)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to add review",
			slog.String("item_id", input.ItemID),
			slog.String("error", err.Error()),
		)
		return "", apperrors.WriteFailed(MsgAddReviewFailed, err)
	}

	s.logger.InfoContext(ctx, "review created",
		slog.String("review_id", id),
		slog.String("item_id", input.ItemID),
		slog.Int("rating", input.Rating),
	)

	if err := s.events.PublishReviewCreated(ctx, id, input); err != nil {
		s.logger.WarnContext(ctx, "failed to publish review.created event",
			slog.String("review_id", id),
			slog.String("error", err.Error()),
		)
	}
	return id, nil
}

// ListReviewsForItem returns the reviews of itemID, newest first. It never
// fails: store faults are logged and yield an empty slice. Reviews stored
// without createdAt are stamped with the current time.
func (s *ReviewService) ListReviewsForItem(ctx context.Context, itemID string) []domain.Review {
	if itemID == "" {
		return []domain.Review{}
	}

	docs, err := s.repo.ListByItemID(ctx, itemID)
	s.metrics.observe(opListReviews, err)
	if err != nil {
		s.metrics.swallowed()
		s.logger.WarnContext(ctx, "failed to list reviews, returning none",
			slog.String("item_id", itemID),
			slog.String("error", err.Error()),
		)
		return []domain.Review{}
	}

	now := s.now()
	reviews := make([]domain.Review, 0, len(docs))
	for _, doc := range docs {
		r, err := domain.DecodeReview(doc, now)
		if err != nil {
			s.metrics.skipped("reviews")
			s.logger.WarnContext(ctx, "skipping malformed review document",
				slog.String("item_id", itemID),
				slog.String("error", err.Error()),
			)
			continue
		}
		reviews = append(reviews, r)
	}
	return reviews
}
