package view

import (
	"context"
	"sync"

	"github.com/telubhanuprasad/firestore-item-showcase/internal/domain"
)

// ReviewSource lists the reviews of one item. It never fails; an
// unavailable store yields no reviews.
type ReviewSource interface {
	ListReviewsForItem(ctx context.Context, itemID string) []domain.Review
}

// ReviewPanelState is a snapshot of a ReviewPanel.
type ReviewPanelState struct {
	ItemID  string
	Loading bool
	Reviews []domain.Review
	Summary *domain.ReviewSummary
}

// ReviewPanel shows the reviews of the selected item. It re-fetches when the
// item changes or the refresh counter moves. Every fetch carries a
// generation number; a response is applied only if no later fetch started
// in the meantime.
type ReviewPanel struct {
	source ReviewSource

	mu         sync.Mutex
	itemID     string
	refresh    int
	generation uint64
	fetches    int
	state      ReviewPanelState
}

// NewReviewPanel creates a panel with no item selected.
func NewReviewPanel(source ReviewSource) *ReviewPanel {
	return &ReviewPanel{source: source}
}

// SetItem selects itemID and fetches its reviews. Selecting the current item
// again does nothing.
func (p *ReviewPanel) SetItem(ctx context.Context, itemID string) {
	p.mu.Lock()
	if p.fetches > 0 && itemID == p.itemID {
		p.mu.Unlock()
		return
	}
	p.itemID = itemID
	gen := p.startLocked()
	p.mu.Unlock()

	p.fetch(ctx, gen, itemID)
}

// Refresh bumps the refresh counter by one and re-fetches the current item.
func (p *ReviewPanel) Refresh(ctx context.Context) {
	p.mu.Lock()
	p.refresh++
	itemID := p.itemID
	gen := p.startLocked()
	p.mu.Unlock()

	p.fetch(ctx, gen, itemID)
}

func (p *ReviewPanel) startLocked() uint64 {
	p.generation++
	p.state.ItemID = p.itemID
	p.state.Loading = true
	return p.generation
}

func (p *ReviewPanel) fetch(ctx context.Context, gen uint64, itemID string) {
	reviews := p.source.ListReviewsForItem(ctx, itemID)

	p.mu.Lock()
	defer p.mu.Unlock()
	p.fetches++
	if gen != p.generation {
		return
	}
	p.state = ReviewPanelState{
		ItemID:  itemID,
		Reviews: reviews,
		Summary: domain.Summarize(reviews),
	}
}

// State returns the current snapshot.
func (p *ReviewPanel) State() ReviewPanelState {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// RefreshCount is the number of Refresh calls so far.
func (p *ReviewPanel) RefreshCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.refresh
}

// Fetches is the number of completed fetches, stale ones included.
func (p *ReviewPanel) Fetches() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.fetches
}
