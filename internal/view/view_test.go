package view

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/telubhanuprasad/firestore-item-showcase/internal/domain"
	apperrors "github.com/telubhanuprasad/firestore-item-showcase/pkg/errors"
)

func TestMain(m *testing.M) {
	color.NoColor = true
	os.Exit(m.Run())
}

// --- Fakes ---

type mockItemSource struct {
	mock.Mock
}

func (m *mockItemSource) ListItems(ctx context.Context) ([]domain.Item, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Item), args.Error(1)
}

type mockSubmitter struct {
	mock.Mock
}

func (m *mockSubmitter) AddReviewIdempotent(ctx context.Context, key string, input domain.NewReview) (string, bool, error) {
	args := m.Called(ctx, key, input)
	return args.String(0), args.Bool(1), args.Error(2)
}

// countingSource returns canned reviews per item and counts calls.
type countingSource struct {
	mu      sync.Mutex
	reviews map[string][]domain.Review
	calls   int
}

func (s *countingSource) ListReviewsForItem(_ context.Context, itemID string) []domain.Review {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	return s.reviews[itemID]
}

// gatedSource blocks fetches of one item until released.
type gatedSource struct {
	countingSource
	gateItem string
	started  chan struct{}
	release  chan struct{}
}

func (s *gatedSource) ListReviewsForItem(ctx context.Context, itemID string) []domain.Review {
	if itemID == s.gateItem {
		close(s.started)
		<-s.release
	}
	return s.countingSource.ListReviewsForItem(ctx, itemID)
}

func review(id string, rating int) domain.Review {
	return domain.Review{
		ID:           id,
		ItemID:       "item-1",
		Rating:       rating,
		Comment:      "comment " + id,
		ReviewerName: "Ana",
		CreatedAt:    time.Date(2024, 3, 9, 15, 4, 0, 0, time.UTC),
	}
}

// --- Text helpers ---

func TestStars(t *testing.T) {
	assert.Equal(t, "★★★★☆", Stars(4))
	assert.Equal(t, "☆☆☆☆☆", Stars(0))
	assert.Equal(t, "★★★★★", Stars(9))
	assert.Equal(t, "☆☆☆☆☆", Stars(-1))
}

func TestItemCountLabel(t *testing.T) {
	assert.Equal(t, "1 item available", ItemCountLabel(1))
	assert.Equal(t, "0 items available", ItemCountLabel(0))
	assert.Equal(t, "3 items available", ItemCountLabel(3))
}

func TestDateLabel(t *testing.T) {
	assert.Equal(t, "2024-03-09", DateLabel(review("r", 1).CreatedAt))
}

// --- View models ---

func TestNewItemListBody(t *testing.T) {
	body := NewItemListBody([]domain.Item{
		{ID: "abcdefgh", Name: "Lamp", Price: domain.NumericPrice(12.5)},
		{ID: "xyz", Name: "Chair", Price: domain.PriceFromValue("ask")},
	})

	assert.Equal(t, "ready", body.State)
	assert.Equal(t, 2, body.Count)
	assert.Equal(t, "2 items available", body.CountLabel)
	assert.Empty(t, body.EmptyMessage)
	assert.Equal(t, "abcdef...", body.Items[0].ShortID)
	assert.Equal(t, "12.50", body.Items[0].DisplayPrice)
	assert.Equal(t, "ask", body.Items[1].DisplayPrice)

	raw, err := json.Marshal(body.Items[0])
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"abcdefgh","name":"Lamp","description":"","price":12.5,"display_price":"12.50","short_id":"abcdef..."}`, string(raw))
}

func TestNewItemListBody_Empty(t *testing.T) {
	body := NewItemListBody(nil)
	assert.Equal(t, 0, body.Count)
	assert.NotNil(t, body.Items)
	assert.Equal(t, MsgNoItems, body.EmptyMessage)
}

func TestNewReviewListBody(t *testing.T) {
	body := NewReviewListBody([]domain.Review{review("a", 5), review("b", 4), review("c", 3)})

	require.NotNil(t, body.Summary)
	assert.Equal(t, 3, body.Count)
	assert.Equal(t, "4.0", body.Summary.Display)
	assert.Equal(t, "4.0 (3 reviews)", body.SummaryLabel)
	assert.Equal(t, "★★★★★", body.Reviews[0].Stars)
	assert.Equal(t, "2024-03-09", body.Reviews[0].DateLabel)
	assert.Empty(t, body.EmptyMessage)
}

func TestNewReviewListBody_EmptyHasNullSummary(t *testing.T) {
	body := NewReviewListBody([]domain.Review{})

	raw, err := json.Marshal(body)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"summary":null`)
	assert.NotContains(t, string(raw), "NaN")
	assert.Equal(t, "No reviews yet for this item. Be the first to review!", body.EmptyMessage)
}

// --- ItemList ---

func TestItemList_StartsLoading(t *testing.T) {
	l := NewItemList(new(mockItemSource))
	assert.Equal(t, PhaseLoading, l.State().Phase)
}

func TestItemList_Ready(t *testing.T) {
	src := new(mockItemSource)
	src.On("ListItems", mock.Anything).Return([]domain.Item{{ID: "a", Name: "Lamp"}}, nil)

	l := NewItemList(src)
	state := l.Load(context.Background())

	assert.Equal(t, PhaseReady, state.Phase)
	assert.Len(t, state.Items, 1)
	assert.False(t, state.Empty())
	assert.Equal(t, state, l.State())
}

func TestItemList_ReadyButEmpty(t *testing.T) {
	src := new(mockItemSource)
	src.On("ListItems", mock.Anything).Return([]domain.Item{}, nil)

	state := NewItemList(src).Load(context.Background())
	assert.True(t, state.Empty())

	var buf bytes.Buffer
	RenderItems(&buf, state)
	assert.Contains(t, buf.String(), MsgNoItems)
	assert.Contains(t, buf.String(), "0 items available")
}

func TestItemList_ErrorShowsOnlyUserMessage(t *testing.T) {
	src := new(mockItemSource)
	src.On("ListItems", mock.Anything).Return(nil, apperrors.FetchFailed("Failed to load items.", errors.New("secret")))

	state := NewItemList(src).Load(context.Background())
	assert.Equal(t, PhaseError, state.Phase)
	assert.Equal(t, "Failed to load items.", state.Error)

	var buf bytes.Buffer
	RenderItems(&buf, state)
	assert.Contains(t, buf.String(), TitleItemsError)
	assert.NotContains(t, buf.String(), "secret")
}

func TestItemList_PlainErrorUsesFallback(t *testing.T) {
	src := new(mockItemSource)
	src.On("ListItems", mock.Anything).Return(nil, errors.New("dial tcp: refused"))

	state := NewItemList(src).Load(context.Background())
	assert.Equal(t, MsgLoadItemsFailed, state.Error)
}

// sequencedItems blocks its first call until released and answers every
// later call immediately.
type sequencedItems struct {
	mu      sync.Mutex
	calls   int
	started chan struct{}
	release chan struct{}
}

func (s *sequencedItems) ListItems(context.Context) ([]domain.Item, error) {
	s.mu.Lock()
	s.calls++
	first := s.calls == 1
	s.mu.Unlock()

	if first {
		close(s.started)
		<-s.release
		return []domain.Item{{ID: "old", Name: "Stale"}}, nil
	}
	return []domain.Item{{ID: "new", Name: "Fresh"}}, nil
}

func TestItemList_LatestLoadWins(t *testing.T) {
	src := &sequencedItems{started: make(chan struct{}), release: make(chan struct{})}
	l := NewItemList(src)
	ctx := context.Background()

	var first ItemListState
	done := make(chan struct{})
	go func() {
		first = l.Load(ctx)
		close(done)
	}()
	<-src.started

	second := l.Load(ctx)
	require.Len(t, second.Items, 1)
	assert.Equal(t, "new", second.Items[0].ID)

	close(src.release)
	<-done

	state := l.State()
	assert.Equal(t, PhaseReady, state.Phase)
	require.Len(t, state.Items, 1)
	assert.Equal(t, "new", state.Items[0].ID)
	assert.Equal(t, state, first)
}

func TestRenderItems_Card(t *testing.T) {
	var buf bytes.Buffer
	RenderItems(&buf, ItemListState{Phase: PhaseReady, Items: []domain.Item{
		{ID: "abcdefgh", Name: "Lamp", Description: "Warm", Price: domain.NumericPrice(3)},
	}})

	out := buf.String()
	assert.Contains(t, out, "Lamp  [ID: abcdef...]")
	assert.Contains(t, out, "$3.00")
	assert.Contains(t, out, "1 item available")
}

// --- ReviewPanel ---

func TestReviewPanel_FetchesOnItemChange(t *testing.T) {
	src := &countingSource{reviews: map[string][]domain.Review{
		"item-1": {review("a", 5), review("b", 4), review("c", 3)},
	}}
	p := NewReviewPanel(src)
	ctx := context.Background()

	p.SetItem(ctx, "item-1")
	state := p.State()
	assert.False(t, state.Loading)
	assert.Len(t, state.Reviews, 3)
	require.NotNil(t, state.Summary)
	assert.Equal(t, "4.0 (3 reviews)", state.Summary.Label())

	p.SetItem(ctx, "item-1")
	assert.Equal(t, 1, src.calls, "same item does not re-fetch")

	p.SetItem(ctx, "item-2")
	assert.Equal(t, 2, src.calls)
	assert.Empty(t, p.State().Reviews)
	assert.Nil(t, p.State().Summary)
}

func TestReviewPanel_DiscardsStaleResponses(t *testing.T) {
	src := &gatedSource{
		countingSource: countingSource{reviews: map[string][]domain.Review{
			"slow": {review("old", 1)},
			"fast": {review("new", 5)},
		}},
		gateItem: "slow",
		started:  make(chan struct{}),
		release:  make(chan struct{}),
	}
	p := NewReviewPanel(src)
	ctx := context.Background()

	done := make(chan struct{})
	go func() {
		p.SetItem(ctx, "slow")
		close(done)
	}()
	<-src.started

	p.SetItem(ctx, "fast")
	close(src.release)
	<-done

	state := p.State()
	assert.Equal(t, "fast", state.ItemID)
	require.Len(t, state.Reviews, 1)
	assert.Equal(t, "new", state.Reviews[0].ID)
	assert.Equal(t, 2, p.Fetches())
}

func TestRenderReviews_States(t *testing.T) {
	var buf bytes.Buffer
	RenderReviews(&buf, ReviewPanelState{Loading: true})
	assert.Equal(t, MsgLoadingReviews+"\n", buf.String())

	buf.Reset()
	RenderReviews(&buf, ReviewPanelState{Reviews: []domain.Review{}})
	assert.Contains(t, buf.String(), MsgNoReviews)
	assert.Contains(t, buf.String(), MsgBeFirst)

	buf.Reset()
	reviews := []domain.Review{review("a", 4)}
	RenderReviews(&buf, ReviewPanelState{Reviews: reviews, Summary: domain.Summarize(reviews)})
	assert.Contains(t, buf.String(), "★★★★☆ 4.0 (1 review)")
	assert.Contains(t, buf.String(), "2024-03-09")
}

// --- ReviewForm ---

func filledForm(sub ReviewSubmitter, onAdded func(context.Context)) *ReviewForm {
	f := NewReviewForm("item-1", sub, onAdded)
	f.SetRating(4)
	f.SetComment("  Nice lamp ")
	f.SetReviewerName(" Ana ")
	return f
}

func TestReviewForm_ValidateEachFieldIndependently(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*ReviewForm)
		field  string
	}{
		{"no rating", func(f *ReviewForm) { f.SetRating(0) }, "rating"},
		{"blank comment", func(f *ReviewForm) { f.SetComment("   ") }, "comment"},
		{"blank reviewer name", func(f *ReviewForm) { f.SetReviewerName("") }, "reviewer_name"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sub := new(mockSubmitter)
			f := filledForm(sub, nil)
			require.NoError(t, f.Validate())

			tt.mutate(f)
			err := f.Validate()

			var missing *MissingFieldsError
			require.ErrorAs(t, err, &missing)
			assert.Equal(t, []string{tt.field}, missing.Fields)
			assert.Equal(t, MsgMissingInfo, err.Error())

			_, err = f.Submit(context.Background())
			assert.ErrorAs(t, err, &missing)
			sub.AssertNotCalled(t, "AddReviewIdempotent", mock.Anything, mock.Anything, mock.Anything)
		})
	}
}

func TestReviewForm_SuccessRefreshesPanelExactlyOnce(t *testing.T) {
	src := &countingSource{reviews: map[string][]domain.Review{}}
	panel := NewReviewPanel(src)
	ctx := context.Background()
	panel.SetItem(ctx, "item-1")
	require.Equal(t, 1, src.calls)

	sub := new(mockSubmitter)
	f := filledForm(sub, panel.Refresh)
	key := f.IdempotencyKey()

	sub.On("AddReviewIdempotent", ctx, key, domain.NewReview{
		ItemID: "item-1", Rating: 4, Comment: "Nice lamp", ReviewerName: "Ana",
	}).Return("rev-1", false, nil)

	id, err := f.Submit(ctx)
	require.NoError(t, err)
	assert.Equal(t, "rev-1", id)

	assert.Equal(t, 1, panel.RefreshCount())
	assert.Equal(t, 2, src.calls)

	rating, comment, name := f.Fields()
	assert.Zero(t, rating)
	assert.Empty(t, comment)
	assert.Empty(t, name)
	assert.NotEqual(t, key, f.IdempotencyKey())
	assert.Equal(t, LabelSubmit, f.SubmitLabel())
	sub.AssertExpectations(t)
}

func TestReviewForm_FailureKeepsFieldsAndKey(t *testing.T) {
	sub := new(mockSubmitter)
	refreshed := 0
	f := filledForm(sub, func(context.Context) { refreshed++ })
	key := f.IdempotencyKey()

	sub.On("AddReviewIdempotent", mock.Anything, key, mock.Anything).
		Return("", false, apperrors.WriteFailed(MsgAddReviewFailed, errors.New("timeout")))

	_, err := f.Submit(context.Background())
	require.Error(t, err)

	rating, comment, name := f.Fields()
	assert.Equal(t, 4, rating)
	assert.Equal(t, "  Nice lamp ", comment)
	assert.Equal(t, " Ana ", name)
	assert.Equal(t, key, f.IdempotencyKey())
	assert.Zero(t, refreshed)
}

func TestReviewForm_SubmitLabelWhileSubmitting(t *testing.T) {
	sub := new(mockSubmitter)
	f := filledForm(sub, nil)

	inFlight := make(chan struct{})
	release := make(chan struct{})
	sub.On("AddReviewIdempotent", mock.Anything, mock.Anything, mock.Anything).
		Run(func(mock.Arguments) {
			close(inFlight)
			<-release
		}).
		Return("rev-1", false, nil)

	done := make(chan struct{})
	go func() {
		_, _ = f.Submit(context.Background())
		close(done)
	}()

	<-inFlight
	assert.Equal(t, LabelSubmitting, f.SubmitLabel())
	_, err := f.Submit(context.Background())
	assert.Error(t, err, "second submit while one is in flight")

	close(release)
	<-done
	assert.Equal(t, LabelSubmit, f.SubmitLabel())
}
