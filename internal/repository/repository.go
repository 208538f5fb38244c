package repository

import (
	"context"

	"github.com/telubhanuprasad/firestore-item-showcase/internal/domain"
)

// ItemRepository reads the items collection.
type ItemRepository interface {
	// List returns every item document in store order.
	List(ctx context.Context) ([]domain.Document, error)

	// Create appends an item and returns its store-assigned id. Only the seed
	// tool writes items.
	Create(ctx context.Context, item domain.NewItem) (string, error)
}

// ReviewRepository reads and appends to the reviews collection.
type ReviewRepository interface {
	// Create appends one review document stamped with the store clock and
	// returns its store-assigned id.
	Create(ctx context.Context, review domain.NewReview) (string, error)

	// ListByItemID returns the review documents whose itemId equals itemID,
	// newest createdAt first.
	ListByItemID(ctx context.Context, itemID string) ([]domain.Document, error)
}

// Store is one document store backend.
type Store interface {
	Items() ItemRepository
	Reviews() ReviewRepository

	// Ping reports whether the backend is reachable.
	Ping(ctx context.Context) error
}
