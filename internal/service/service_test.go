package service

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/telubhanuprasad/firestore-item-showcase/internal/domain"
	"github.com/telubhanuprasad/firestore-item-showcase/internal/idempotency"
	"github.com/telubhanuprasad/firestore-item-showcase/internal/repository/memory"
	apperrors "github.com/telubhanuprasad/firestore-item-showcase/pkg/errors"
	"github.com/telubhanuprasad/firestore-item-showcase/pkg/validator"
)

// --- Mocks ---

type mockItemRepository struct {
	mock.Mock
}

func (m *mockItemRepository) List(ctx context.Context) ([]domain.Document, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Document), args.Error(1)
}

func (m *mockItemRepository) Create(ctx context.Context, item domain.NewItem) (string, error) {
	args := m.Called(ctx, item)
	return args.String(0), args.Error(1)
}

type mockReviewRepository struct {
	mock.Mock
}

func (m *mockReviewRepository) Create(ctx context.Context, review domain.NewReview) (string, error) {
	args := m.Called(ctx, review)
	return args.String(0), args.Error(1)
}

func (m *mockReviewRepository) ListByItemID(ctx context.Context, itemID string) ([]domain.Document, error) {
	args := m.Called(ctx, itemID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Document), args.Error(1)
}

type mockPublisher struct {
	mock.Mock
}

func (m *mockPublisher) PublishReviewCreated(ctx context.Context, id string, review domain.NewReview) error {
	args := m.Called(ctx, id, review)
	return args.Error(0)
}

type failingKeys struct{}

func (failingKeys) Begin(context.Context, string) (*idempotency.Record, error) {
	return nil, errors.New("redis down")
}
func (failingKeys) Finish(context.Context, string, string) error { return errors.New("redis down") }
func (failingKeys) Abort(context.Context, string) error          { return errors.New("redis down") }

// --- Helpers ---

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
}

var fixedNow = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func validReview() domain.NewReview {
	return domain.NewReview{
		ItemID:       "item-1",
		Rating:       5,
		Comment:      "Great",
		ReviewerName: "Ana",
	}
}

// --- ListItems ---

func TestListItems_PreservesLengthAndFields(t *testing.T) {
	repo := new(mockItemRepository)
	svc := NewItemService(repo, nil, newTestLogger())
	ctx := context.Background()

	repo.On("List", ctx).Return([]domain.Document{
		{ID: "a1", Data: map[string]any{"name": "Lamp", "description": "Warm light", "price": 19.5}},
		{ID: "b2", Data: map[string]any{"name": "Chair", "description": "Oak", "price": "call us"}},
		{ID: "c3", Data: map[string]any{"name": "Desk"}},
	}, nil)

	items, err := svc.ListItems(ctx)
	require.NoError(t, err)
	require.Len(t, items, 3)

	assert.Equal(t, "a1", items[0].ID)
	assert.Equal(t, "Lamp", items[0].Name)
	assert.Equal(t, "Warm light", items[0].Description)
	assert.Equal(t, "19.50", items[0].Price.Display())
	assert.Equal(t, "call us", items[1].Price.Display())
	assert.Equal(t, "", items[2].Description)
	repo.AssertExpectations(t)
}

func TestListItems_Empty(t *testing.T) {
	repo := new(mockItemRepository)
	svc := NewItemService(repo, nil, newTestLogger())

	repo.On("List", mock.Anything).Return([]domain.Document{}, nil)

	items, err := svc.ListItems(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, items)
	assert.Empty(t, items)
}

func TestListItems_StoreErrorBecomesFetchFailed(t *testing.T) {
	repo := new(mockItemRepository)
	svc := NewItemService(repo, NewMetrics(prometheus.NewRegistry()), newTestLogger())

	repo.On("List", mock.Anything).Return(nil, errors.New("permission denied"))

	items, err := svc.ListItems(context.Background())
	require.Error(t, err)
	assert.Nil(t, items)
	assert.ErrorIs(t, err, apperrors.ErrFetchFailed)

	var appErr *apperrors.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, MsgListItemsFailed, appErr.Message)
}

func TestListItems_SkipsDocumentsWithoutID(t *testing.T) {
	repo := new(mockItemRepository)
	svc := NewItemService(repo, nil, newTestLogger())

	repo.On("List", mock.Anything).Return([]domain.Document{
		{ID: "", Data: map[string]any{"name": "ghost"}},
		{ID: "a1", Data: map[string]any{"name": "Lamp"}},
	}, nil)

	items, err := svc.ListItems(context.Background())
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "a1", items[0].ID)
}

// --- AddReview ---

func TestAddReview_Success(t *testing.T) {
	repo := new(mockReviewRepository)
	pub := new(mockPublisher)
	svc := NewReviewService(repo, newTestLogger(), WithPublisher(pub))
	ctx := context.Background()

	input := validReview()
	input.Comment = "  Great  "
	input.ReviewerName = " Ana "

	repo.On("Create", ctx, validReview()).Return("rev-1", nil)
	pub.On("PublishReviewCreated", ctx, "rev-1", validReview()).Return(nil)

	id, err := svc.AddReview(ctx, input)
	require.NoError(t, err)
	assert.Equal(t, "rev-1", id)
	repo.AssertExpectations(t)
	pub.AssertExpectations(t)
}

func TestAddReview_ValidationRejectsEachFieldIndependently(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*domain.NewReview)
		field  string
	}{
		{"rating unset", func(r *domain.NewReview) { r.Rating = 0 }, "rating"},
		{"rating too high", func(r *domain.NewReview) { r.Rating = 6 }, "rating"},
		{"blank comment", func(r *domain.NewReview) { r.Comment = "   " }, "comment"},
		{"blank reviewer name", func(r *domain.NewReview) { r.ReviewerName = "\t" }, "reviewer_name"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(mockReviewRepository)
			svc := NewReviewService(repo, newTestLogger())

			input := validReview()
			tt.mutate(&input)

			_, err := svc.AddReview(context.Background(), input)
			require.Error(t, err)

			var valErr *validator.ValidationError
			require.True(t, errors.As(err, &valErr))
			assert.Len(t, valErr.Fields(), 1)
			assert.Contains(t, valErr.Fields(), tt.field)
			repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
		})
	}
}

func TestAddReview_StoreErrorBecomesWriteFailed(t *testing.T) {
	repo := new(mockReviewRepository)
	pub := new(mockPublisher)
	svc := NewReviewService(repo, newTestLogger(), WithPublisher(pub))

	repo.On("Create", mock.Anything, mock.Anything).Return("", errors.New("deadline exceeded"))

	_, err := svc.AddReview(context.Background(), validReview())
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrWriteFailed)
	assert.Equal(t, 503, apperrors.HTTPStatus(err))
	pub.AssertNotCalled(t, "PublishReviewCreated", mock.Anything, mock.Anything, mock.Anything)
}

func TestAddReview_PublishFailureDoesNotFailWrite(t *testing.T) {
	repo := new(mockReviewRepository)
	pub := new(mockPublisher)
	svc := NewReviewService(repo, newTestLogger(), WithPublisher(pub))

	repo.On("Create", mock.Anything, mock.Anything).Return("rev-1", nil)
	pub.On("PublishReviewCreated", mock.Anything, "rev-1", mock.Anything).Return(errors.New("broker down"))

	id, err := svc.AddReview(context.Background(), validReview())
	require.NoError(t, err)
	assert.Equal(t, "rev-1", id)
}

func TestAddReview_ConcurrentSubmissionsBothSucceed(t *testing.T) {
	store := memory.NewStore()
	svc := NewReviewService(store.Reviews(), newTestLogger())
	ctx := context.Background()

	ids := make(chan string, 2)
	for i := 0; i < 2; i++ {
		go func() {
			id, err := svc.AddReview(ctx, validReview())
			assert.NoError(t, err)
			ids <- id
		}()
	}
	first, second := <-ids, <-ids
	assert.NotEqual(t, first, second)
	assert.Len(t, svc.ListReviewsForItem(ctx, "item-1"), 2)
}

// --- AddReviewIdempotent ---

func TestAddReviewIdempotent_ReplaysSameKey(t *testing.T) {
	repo := new(mockReviewRepository)
	svc := NewReviewService(repo, newTestLogger(),
		WithIdempotency(idempotency.NewMemoryStore(time.Hour)),
		WithMetrics(NewMetrics(prometheus.NewRegistry())),
	)
	ctx := context.Background()

	repo.On("Create", ctx, validReview()).Return("rev-1", nil).Once()

	id, replayed, err := svc.AddReviewIdempotent(ctx, "key-1", validReview())
	require.NoError(t, err)
	assert.Equal(t, "rev-1", id)
	assert.False(t, replayed)

	id, replayed, err = svc.AddReviewIdempotent(ctx, "key-1", validReview())
	require.NoError(t, err)
	assert.Equal(t, "rev-1", id)
	assert.True(t, replayed)

	repo.AssertNumberOfCalls(t, "Create", 1)
}

func TestAddReviewIdempotent_KeyScopedPerItem(t *testing.T) {
	repo := new(mockReviewRepository)
	svc := NewReviewService(repo, newTestLogger(), WithIdempotency(idempotency.NewMemoryStore(time.Hour)))
	ctx := context.Background()

	other := validReview()
	other.ItemID = "item-2"
	repo.On("Create", ctx, validReview()).Return("rev-1", nil)
	repo.On("Create", ctx, other).Return("rev-2", nil)

	id1, _, err := svc.AddReviewIdempotent(ctx, "key-1", validReview())
	require.NoError(t, err)
	id2, replayed, err := svc.AddReviewIdempotent(ctx, "key-1", other)
	require.NoError(t, err)

	assert.Equal(t, "rev-1", id1)
	assert.Equal(t, "rev-2", id2)
	assert.False(t, replayed)
}

func TestAddReviewIdempotent_FailedWriteReleasesKey(t *testing.T) {
	repo := new(mockReviewRepository)
	svc := NewReviewService(repo, newTestLogger(), WithIdempotency(idempotency.NewMemoryStore(time.Hour)))
	ctx := context.Background()

	repo.On("Create", ctx, validReview()).Return("", errors.New("unavailable")).Once()
	repo.On("Create", ctx, validReview()).Return("rev-1", nil).Once()

	_, _, err := svc.AddReviewIdempotent(ctx, "key-1", validReview())
	assert.ErrorIs(t, err, apperrors.ErrWriteFailed)

	id, replayed, err := svc.AddReviewIdempotent(ctx, "key-1", validReview())
	require.NoError(t, err)
	assert.Equal(t, "rev-1", id)
	assert.False(t, replayed)
}

func TestAddReviewIdempotent_InFlightKeyConflicts(t *testing.T) {
	keys := idempotency.NewMemoryStore(time.Hour)
	repo := new(mockReviewRepository)
	svc := NewReviewService(repo, newTestLogger(), WithIdempotency(keys))
	ctx := context.Background()

	_, err := keys.Begin(ctx, "item-1:key-1")
	require.NoError(t, err)

	_, _, err = svc.AddReviewIdempotent(ctx, "key-1", validReview())
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrConflict)
	repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestAddReviewIdempotent_StoreDownFallsBackToPlainWrite(t *testing.T) {
	repo := new(mockReviewRepository)
	svc := NewReviewService(repo, newTestLogger(), WithIdempotency(failingKeys{}))

	repo.On("Create", mock.Anything, mock.Anything).Return("rev-1", nil)

	id, replayed, err := svc.AddReviewIdempotent(context.Background(), "key-1", validReview())
	require.NoError(t, err)
	assert.Equal(t, "rev-1", id)
	assert.False(t, replayed)
}

func TestAddReviewIdempotent_EmptyKeyWritesEveryTime(t *testing.T) {
	repo := new(mockReviewRepository)
	svc := NewReviewService(repo, newTestLogger(), WithIdempotency(idempotency.NewMemoryStore(time.Hour)))

	repo.On("Create", mock.Anything, mock.Anything).Return("rev", nil)

	for i := 0; i < 2; i++ {
		_, replayed, err := svc.AddReviewIdempotent(context.Background(), "", validReview())
		require.NoError(t, err)
		assert.False(t, replayed)
	}
	repo.AssertNumberOfCalls(t, "Create", 2)
}

func TestAddReviewIdempotent_InvalidInputDoesNotClaimKey(t *testing.T) {
	keys := idempotency.NewMemoryStore(time.Hour)
	svc := NewReviewService(new(mockReviewRepository), newTestLogger(), WithIdempotency(keys))
	ctx := context.Background()

	input := validReview()
	input.Rating = 0
	_, _, err := svc.AddReviewIdempotent(ctx, "key-1", input)
	require.Error(t, err)

	rec, err := keys.Begin(ctx, "item-1:key-1")
	require.NoError(t, err)
	assert.Nil(t, rec)
}

// --- ListReviewsForItem ---

func TestListReviewsForItem_NewestFirstWithAverage(t *testing.T) {
	clock := fixedNow
	store := memory.NewStore(memory.WithClock(func() time.Time { return clock }))
	svc := NewReviewService(store.Reviews(), newTestLogger(), WithClock(func() time.Time { return fixedNow.Add(time.Hour) }))
	ctx := context.Background()

	for i, rating := range []int{3, 4, 5} {
		clock = fixedNow.Add(time.Duration(i) * time.Minute)
		input := validReview()
		input.Rating = rating
		_, err := svc.AddReview(ctx, input)
		require.NoError(t, err)
	}
	other := validReview()
	other.ItemID = "item-2"
	_, err := svc.AddReview(ctx, other)
	require.NoError(t, err)

	reviews := svc.ListReviewsForItem(ctx, "item-1")
	require.Len(t, reviews, 3)
	assert.Equal(t, []int{5, 4, 3}, []int{reviews[0].Rating, reviews[1].Rating, reviews[2].Rating})
	assert.True(t, reviews[0].CreatedAt.After(reviews[1].CreatedAt))

	summary := domain.Summarize(reviews)
	require.NotNil(t, summary)
	assert.Equal(t, "4.0", summary.Display)
	assert.Equal(t, 4, summary.Stars)
}

func TestListReviewsForItem_EmptySetHasNoSummary(t *testing.T) {
	svc := NewReviewService(memory.NewStore().Reviews(), newTestLogger())

	reviews := svc.ListReviewsForItem(context.Background(), "nothing-here")
	assert.NotNil(t, reviews)
	assert.Empty(t, reviews)
	assert.Nil(t, domain.Summarize(reviews))
}

func TestListReviewsForItem_MissingCreatedAtFallsBackToNow(t *testing.T) {
	store := memory.NewStore()
	store.PutReview("r1", map[string]any{
		"itemId": "item-1", "rating": 4, "comment": "ok", "reviewerName": "Bo",
	})
	svc := NewReviewService(store.Reviews(), newTestLogger(), WithClock(func() time.Time { return fixedNow }))

	reviews := svc.ListReviewsForItem(context.Background(), "item-1")
	require.Len(t, reviews, 1)
	assert.Equal(t, "r1", reviews[0].ID)
	assert.Equal(t, fixedNow, reviews[0].CreatedAt)
}

func TestListReviewsForItem_StoreErrorIsSwallowed(t *testing.T) {
	repo := new(mockReviewRepository)
	svc := NewReviewService(repo, newTestLogger(), WithMetrics(NewMetrics(prometheus.NewRegistry())))

	repo.On("ListByItemID", mock.Anything, "item-1").Return(nil, errors.New("missing index"))

	reviews := svc.ListReviewsForItem(context.Background(), "item-1")
	assert.NotNil(t, reviews)
	assert.Empty(t, reviews)
}

func TestListReviewsForItem_SkipsMalformedRating(t *testing.T) {
	repo := new(mockReviewRepository)
	svc := NewReviewService(repo, newTestLogger(), WithClock(func() time.Time { return fixedNow }))

	repo.On("ListByItemID", mock.Anything, "item-1").Return([]domain.Document{
		{ID: "bad", Data: map[string]any{"itemId": "item-1", "rating": 9}},
		{ID: "good", Data: map[string]any{"itemId": "item-1", "rating": 2}},
	}, nil)

	reviews := svc.ListReviewsForItem(context.Background(), "item-1")
	require.Len(t, reviews, 1)
	assert.Equal(t, "good", reviews[0].ID)
}

func TestListReviewsForItem_EmptyItemIDSkipsStore(t *testing.T) {
	repo := new(mockReviewRepository)
	svc := NewReviewService(repo, newTestLogger())

	assert.Empty(t, svc.ListReviewsForItem(context.Background(), ""))
	repo.AssertNotCalled(t, "ListByItemID", mock.Anything, mock.Anything)
}

func TestListReviewsForItem_ItemIDMatchedVerbatim(t *testing.T) {
	store := memory.NewStore()
	svc := NewReviewService(store.Reviews(), newTestLogger())
	ctx := context.Background()

	input := validReview()
	input.ItemID = " item-1 "
	_, err := svc.AddReview(ctx, input)
	require.NoError(t, err)

	assert.Len(t, svc.ListReviewsForItem(ctx, " item-1 "), 1)
	assert.Empty(t, svc.ListReviewsForItem(ctx, "item-1"))
}
