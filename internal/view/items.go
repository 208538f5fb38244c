package view

import (
	"context"
	"errors"
	"sync"

	"github.com/telubhanuprasad/firestore-item-showcase/internal/domain"
	apperrors "github.com/telubhanuprasad/firestore-item-showcase/pkg/errors"
)

// Phase is the state of an asynchronous listing.
type Phase int

const (
	PhaseLoading Phase = iota
	PhaseError
	PhaseReady
)

func (p Phase) String() string {
	switch p {
	case PhaseLoading:
		return "loading"
	case PhaseError:
		return "error"
	case PhaseReady:
		return "ready"
	default:
		return "unknown"
	}
}

// ItemSource lists the catalog.
type ItemSource interface {
	ListItems(ctx context.Context) ([]domain.Item, error)
}

// ItemListState is a snapshot of an ItemList.
type ItemListState struct {
	Phase Phase
	Items []domain.Item
	Error string
}

// Empty reports whether the list loaded with no items.
func (s ItemListState) Empty() bool {
	return s.Phase == PhaseReady && len(s.Items) == 0
}

// ItemList moves from loading to either error or ready. Failed loads are
// shown, not retried. When loads overlap, the most recently started one wins.
type ItemList struct {
	source ItemSource

	mu         sync.RWMutex
	generation uint64
	state      ItemListState
}

// NewItemList creates a list in the loading phase.
func NewItemList(source ItemSource) *ItemList {
	return &ItemList{source: source}
}

// Load fetches the items and settles the phase. A load superseded by a later
// one leaves the state alone and returns the current snapshot.
func (l *ItemList) Load(ctx context.Context) ItemListState {
	l.mu.Lock()
	l.generation++
	gen := l.generation
	l.state = ItemListState{Phase: PhaseLoading}
	l.mu.Unlock()

	items, err := l.source.ListItems(ctx)

	l.mu.Lock()
	defer l.mu.Unlock()
	if gen != l.generation {
		return l.state
	}
	if err != nil {
		l.state = ItemListState{Phase: PhaseError, Error: userMessage(err, MsgLoadItemsFailed)}
	} else {
		l.state = ItemListState{Phase: PhaseReady, Items: items}
	}
	return l.state
}

// State returns the current snapshot.
func (l *ItemList) State() ItemListState {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.state
}

// userMessage picks the message of an application error, or fallback for
// anything else. Causes are never shown.
func userMessage(err error, fallback string) string {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) && appErr.Message != "" {
		return appErr.Message
	}
	return fallback
}
