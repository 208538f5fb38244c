package firestore

import (
	"context"
	"fmt"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/telubhanuprasad/firestore-item-showcase/internal/domain"
	"github.com/telubhanuprasad/firestore-item-showcase/internal/repository"
	"github.com/telubhanuprasad/firestore-item-showcase/pkg/database"
)

// Collections names the two collections the store reads and writes.
type Collections struct {
	Items   string
	Reviews string
}

// Store implements the document store contract on Cloud Firestore.
type Store struct {
	client      *firestore.Client
	collections Collections
}

// NewStore wraps an initialized Firestore client.
func NewStore(client *firestore.Client, collections Collections) *Store {
	return &Store{client: client, collections: collections}
}

var _ repository.Store = (*Store)(nil)

func (s *Store) Items() repository.ItemRepository     { return &itemRepo{s} }
func (s *Store) Reviews() repository.ReviewRepository { return &reviewRepo{s} }

// Ping reads at most one item document.
func (s *Store) Ping(ctx context.Context) error {
	_, err := s.client.Collection(s.collections.Items).Limit(1).Documents(ctx).GetAll()
	return err
}

type itemRepo struct{ s *Store }

func (r *itemRepo) List(ctx context.Context) (docs []domain.Document, err error) {
	ctx, end := database.TraceOp(ctx, database.SystemFirestore, "ListItems", r.s.collections.Items)
	defer func() { end(err) }()

	snaps, err := r.s.client.Collection(r.s.collections.Items).Documents(ctx).GetAll()
	if err != nil {
		return nil, queryError(r.s.collections.Items, err)
	}
	return toDocuments(snaps), nil
}

func (r *itemRepo) Create(ctx context.Context, item domain.NewItem) (id string, err error) {
	ctx, end := database.TraceOp(ctx, database.SystemFirestore, "CreateItem", r.s.collections.Items)
	defer func() { end(err) }()

	ref, _, err := r.s.client.Collection(r.s.collections.Items).Add(ctx, item.Fields())
	if err != nil {
		return "", fmt.Errorf("add to %s: %w", r.s.collections.Items, err)
	}
	return ref.ID, nil
}

type reviewRepo struct{ s *Store }

func (r *reviewRepo) Create(ctx context.Context, review domain.NewReview) (id string, err error) {
	ctx, end := database.TraceOp(ctx, database.SystemFirestore, "CreateReview", r.s.collections.Reviews)
	defer func() { end(err) }()

	fields := review.Fields()
	fields[domain.FieldCreatedAt] = firestore.ServerTimestamp

	ref, _, err := r.s.client.Collection(r.s.collections.Reviews).Add(ctx, fields)
	if err != nil {
		return "", fmt.Errorf("add to %s: %w", r.s.collections.Reviews, err)
	}
	return ref.ID, nil
}

// ListByItemID filters on itemId only and orders in process. An orderBy on
// createdAt would drop documents that lack the field.
func (r *reviewRepo) ListByItemID(ctx context.Context, itemID string) (docs []domain.Document, err error) {
	statement := r.s.collections.Reviews + " where itemId == ?"
	ctx, end := database.TraceOp(ctx, database.SystemFirestore, "ListReviews", statement)
	defer func() { end(err) }()

	snaps, err := r.s.client.Collection(r.s.collections.Reviews).
		Where(domain.FieldItemID, "==", itemID).
		Documents(ctx).
		GetAll()
	if err != nil {
		return nil, queryError(r.s.collections.Reviews, err)
	}
	docs = toDocuments(snaps)
	domain.SortNewestFirst(docs)
	return docs, nil
}

// queryError wraps a failed read of collection, naming the likely cause for
// the gRPC codes an operator can act on.
func queryError(collection string, err error) error {
	switch status.Code(err) {
	case codes.PermissionDenied, codes.Unauthenticated:
		return fmt.Errorf("query %s: check credentials and security rules: %w", collection, err)
	case codes.NotFound:
		return fmt.Errorf("query %s: project or database not found: %w", collection, err)
	default:
		return fmt.Errorf("query %s: %w", collection, err)
	}
}

func toDocuments(snaps []*firestore.DocumentSnapshot) []domain.Document {
	docs := make([]domain.Document, 0, len(snaps))
	for _, snap := range snaps {
		docs = append(docs, domain.Document{ID: snap.Ref.ID, Data: snap.Data()})
	}
	return docs
}
