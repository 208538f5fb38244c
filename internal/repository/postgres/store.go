package postgres

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/telubhanuprasad/firestore-item-showcase/internal/domain"
	"github.com/telubhanuprasad/firestore-item-showcase/internal/repository"
	"github.com/telubhanuprasad/firestore-item-showcase/pkg/database"
)

// Store implements the document store contract on PostgreSQL. Rows are
// handed back as documents so decoding is shared with the other backends.
type Store struct {
	db database.DBTX
}

// NewStore creates a PostgreSQL-backed store.
func NewStore(db database.DBTX) *Store {
	return &Store{db: db}
}

var _ repository.Store = (*Store)(nil)

func (s *Store) Items() repository.ItemRepository     { return &ItemRepository{db: s.db} }
func (s *Store) Reviews() repository.ReviewRepository { return &ReviewRepository{db: s.db} }

func (s *Store) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}

// ItemRepository reads the items table.
type ItemRepository struct {
	db database.DBTX
}

const listItemsSQL = `
		SELECT id, name, description, price
		FROM items
		ORDER BY created_at, id`

// List returns every item in insertion order.
func (r *ItemRepository) List(ctx context.Context) (docs []domain.Document, err error) {
	ctx, end := database.TraceOp(ctx, database.SystemPostgres, "ListItems", listItemsSQL)
	defer func() { end(err) }()

	rows, err := r.db.Query(ctx, listItemsSQL)
	if err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}
	defer rows.Close()

	docs = []domain.Document{}
	for rows.Next() {
		var (
			id, name, description string
			priceJSON             []byte
		)
		if err := rows.Scan(&id, &name, &description, &priceJSON); err != nil {
			return nil, fmt.Errorf("scan item row: %w", err)
		}
		price, err := decodeJSONValue(priceJSON)
		if err != nil {
			return nil, fmt.Errorf("decode price of item %s: %w", id, err)
		}
		docs = append(docs, domain.Document{ID: id, Data: map[string]any{
			domain.FieldName:        name,
			domain.FieldDescription: description,
			domain.FieldPrice:       price,
		}})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate item rows: %w", err)
	}
	return docs, nil
}

const createItemSQL = `
		INSERT INTO items (name, description, price)
		VALUES ($1, $2, $3)
		RETURNING id`

// Create inserts an item.
func (r *ItemRepository) Create(ctx context.Context, item domain.NewItem) (id string, err error) {
	ctx, end := database.TraceOp(ctx, database.SystemPostgres, "CreateItem", createItemSQL)
	defer func() { end(err) }()

	fields := item.Fields()
	priceJSON, err := json.Marshal(fields[domain.FieldPrice])
	if err != nil {
		return "", fmt.Errorf("encode price: %w", err)
	}

	if err := r.db.QueryRow(ctx, createItemSQL, item.Name, item.Description, priceJSON).Scan(&id); err != nil {
		return "", fmt.Errorf("insert item: %w", err)
	}
	return id, nil
}

// ReviewRepository appends to and queries the reviews table.
type ReviewRepository struct {
	db database.DBTX
}

// created_at comes from the column default, i.e. the database clock.
const createReviewSQL = `
		INSERT INTO reviews (item_id, rating, comment, reviewer_name)
		VALUES ($1, $2, $3, $4)
		RETURNING id`

// Create inserts one review.
func (r *ReviewRepository) Create(ctx context.Context, review domain.NewReview) (id string, err error) {
	ctx, end := database.TraceOp(ctx, database.SystemPostgres, "CreateReview", createReviewSQL)
	defer func() { end(err) }()

	err = r.db.QueryRow(ctx, createReviewSQL,
		review.ItemID,
		review.Rating,
		review.Comment,
		review.ReviewerName,
	).Scan(&id)
	if err != nil {
		return "", fmt.Errorf("insert review: %w", err)
	}
	return id, nil
}

const listReviewsSQL = `
		SELECT id, item_id, rating, comment, reviewer_name, created_at
		FROM reviews
		WHERE item_id = $1
		ORDER BY created_at DESC, id DESC`

// ListByItemID returns the reviews of one item, newest first.
func (r *ReviewRepository) ListByItemID(ctx context.Context, itemID string) (docs []domain.Document, err error) {
	ctx, end := database.TraceOp(ctx, database.SystemPostgres, "ListReviews", listReviewsSQL)
	defer func() { end(err) }()

	rows, err := r.db.Query(ctx, listReviewsSQL, itemID)
	if err != nil {
		return nil, fmt.Errorf("list reviews: %w", err)
	}
	defer rows.Close()

	docs = []domain.Document{}
	for rows.Next() {
		var (
			id, item, comment, reviewer string
			rating                      int
			createdAt                   time.Time
		)
		if err := rows.Scan(&id, &item, &rating, &comment, &reviewer, &createdAt); err != nil {
			return nil, fmt.Errorf("scan review row: %w", err)
		}
		docs = append(docs, domain.Document{ID: id, Data: map[string]any{
			domain.FieldItemID:       item,
			domain.FieldRating:       rating,
			domain.FieldComment:      comment,
			domain.FieldReviewerName: reviewer,
			domain.FieldCreatedAt:    createdAt,
		}})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate review rows: %w", err)
	}
	return docs, nil
}

// decodeJSONValue decodes a JSONB column, keeping numbers as json.Number.
func decodeJSONValue(b []byte) (any, error) {
	if len(b) == 0 {
		return nil, nil
	}
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	return v, nil
}
