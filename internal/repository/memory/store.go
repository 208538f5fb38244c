// Package memory is an in-process document store. It backs local development
// and tests, and keeps the same observable behaviour as the hosted stores:
// generated ids, equality filter on itemId, newest-first ordering and a
// store-side clock for createdAt.
package memory

import (
	"context"
	"maps"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/telubhanuprasad/firestore-item-showcase/internal/domain"
	"github.com/telubhanuprasad/firestore-item-showcase/internal/repository"
	"github.com/telubhanuprasad/firestore-item-showcase/pkg/database"
)

const (
	itemsCollection   = "items"
	reviewsCollection = "reviews"
)

// Option configures a Store.
type Option func(*Store)

// WithClock sets the clock used to stamp createdAt on writes.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// Store keeps collections of documents in insertion order.
type Store struct {
	mu          sync.RWMutex
	collections map[string][]domain.Document
	now         func() time.Time
	newID       func() string
}

// NewStore creates an empty store.
func NewStore(opts ...Option) *Store {
	s := &Store{
		collections: make(map[string][]domain.Document),
		now:         func() time.Time { return time.Now().UTC() },
		newID:       func() string { return uuid.New().String() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

var _ repository.Store = (*Store)(nil)

func (s *Store) Items() repository.ItemRepository     { return itemRepo{s} }
func (s *Store) Reviews() repository.ReviewRepository { return reviewRepo{s} }

// Ping always succeeds.
func (s *Store) Ping(context.Context) error { return nil }

// Put stores a raw document under id, bypassing decoding. It exists to load
// fixtures such as legacy documents with missing or odd fields.
func (s *Store) Put(collection, id string, data map[string]any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.collections[collection] = append(s.collections[collection], domain.Document{ID: id, Data: maps.Clone(data)})
}

// PutItem is Put on the items collection.
func (s *Store) PutItem(id string, data map[string]any) { s.Put(itemsCollection, id, data) }

// PutReview is Put on the reviews collection.
func (s *Store) PutReview(id string, data map[string]any) { s.Put(reviewsCollection, id, data) }

func (s *Store) add(collection string, data map[string]any) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.newID()
	s.collections[collection] = append(s.collections[collection], domain.Document{ID: id, Data: data})
	return id
}

func (s *Store) snapshot(collection string, keep func(domain.Document) bool) []domain.Document {
	s.mu.RLock()
	defer s.mu.RUnlock()
	docs := make([]domain.Document, 0, len(s.collections[collection]))
	for _, d := range s.collections[collection] {
		if keep == nil || keep(d) {
			docs = append(docs, domain.Document{ID: d.ID, Data: maps.Clone(d.Data)})
		}
	}
	return docs
}

type itemRepo struct{ s *Store }

func (r itemRepo) List(ctx context.Context) (docs []domain.Document, err error) {
	_, end := database.TraceOp(ctx, database.SystemMemory, "ListItems", itemsCollection)
	defer func() { end(err) }()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return r.s.snapshot(itemsCollection, nil), nil
}

func (r itemRepo) Create(ctx context.Context, item domain.NewItem) (id string, err error) {
	_, end := database.TraceOp(ctx, database.SystemMemory, "CreateItem", itemsCollection)
	defer func() { end(err) }()

	if err := ctx.Err(); err != nil {
		return "", err
	}
	return r.s.add(itemsCollection, item.Fields()), nil
}

type reviewRepo struct{ s *Store }

func (r reviewRepo) Create(ctx context.Context, review domain.NewReview) (id string, err error) {
	_, end := database.TraceOp(ctx, database.SystemMemory, "CreateReview", reviewsCollection)
	defer func() { end(err) }()

	if err := ctx.Err(); err != nil {
		return "", err
	}
	fields := review.Fields()
	fields[domain.FieldCreatedAt] = r.s.now()
	return r.s.add(reviewsCollection, fields), nil
}

func (r reviewRepo) ListByItemID(ctx context.Context, itemID string) (docs []domain.Document, err error) {
	_, end := database.TraceOp(ctx, database.SystemMemory, "ListReviews", reviewsCollection+" where itemId == ? order by createdAt desc")
	defer func() { end(err) }()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	docs = r.s.snapshot(reviewsCollection, func(d domain.Document) bool {
		v, ok := d.Data[domain.FieldItemID].(string)
		return ok && v == itemID
	})
	domain.SortNewestFirst(docs)
	return docs, nil
}
