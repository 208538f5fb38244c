package domain

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"time"
)

// Rating bounds.
const (
	MinRating = 1
	MaxRating = 5
)

// Review is a star-rated comment attached to an item. Reviews are immutable.
type Review struct {
	ID           string    `json:"id"`
	ItemID       string    `json:"item_id"`
	Rating       int       `json:"rating"`
	Comment      string    `json:"comment"`
	ReviewerName string    `json:"reviewer_name"`
	CreatedAt    time.Time `json:"created_at"`
}

// NewReview is a review submission. CreatedAt is never part of it: the store
// clock assigns it at write time.
type NewReview struct {
	ItemID       string `json:"item_id" validate:"required"`
	Rating       int    `json:"rating" validate:"required,min=1,max=5"`
	Comment      string `json:"comment" validate:"required"`
	ReviewerName string `json:"reviewer_name" validate:"required"`
}

// Normalize trims the free-text fields in place. ItemID is a foreign key
// matched by equality on read and is kept verbatim.
func (r *NewReview) Normalize() {
	r.Comment = strings.TrimSpace(r.Comment)
	r.ReviewerName = strings.TrimSpace(r.ReviewerName)
}

// Fields returns the document fields written for the submission, without
// createdAt.
func (r NewReview) Fields() map[string]any {
	return map[string]any{
		FieldItemID:       r.ItemID,
		FieldRating:       r.Rating,
		FieldComment:      r.Comment,
		FieldReviewerName: r.ReviewerName,
	}
}

// DecodeReview decodes a reviews document. A missing or unreadable createdAt
// falls back to now. The rating must be an integer in [1,5].
func DecodeReview(doc Document, now time.Time) (Review, error) {
	if doc.ID == "" {
		return Review{}, fmt.Errorf("%w: review without id", ErrMalformedDocument)
	}

	rating, err := decodeRating(doc.Data[FieldRating])
	if err != nil {
		return Review{}, fmt.Errorf("%w: review %s: %v", ErrMalformedDocument, doc.ID, err)
	}

	createdAt, ok := decodeTime(doc.Data[FieldCreatedAt])
	if !ok {
		createdAt = now
	}

	return Review{
		ID:           doc.ID,
		ItemID:       stringField(doc.Data, FieldItemID),
		Rating:       rating,
		Comment:      stringField(doc.Data, FieldComment),
		ReviewerName: stringField(doc.Data, FieldReviewerName),
		CreatedAt:    createdAt,
	}, nil
}

func decodeRating(v any) (int, error) {
	var f float64
	switch n := v.(type) {
	case int:
		f = float64(n)
	case int32:
		f = float64(n)
	case int64:
		f = float64(n)
	case float64:
		f = n
	case json.Number:
		parsed, err := n.Float64()
		if err != nil {
			return 0, fmt.Errorf("rating %q is not a number", n)
		}
		f = parsed
	case nil:
		return 0, fmt.Errorf("rating is missing")
	default:
		return 0, fmt.Errorf("rating has type %T", v)
	}
	if f != math.Trunc(f) || f < MinRating || f > MaxRating {
		return 0, fmt.Errorf("rating %v outside 1..5", f)
	}
	return int(f), nil
}

func decodeTime(v any) (time.Time, bool) {
	switch t := v.(type) {
	case time.Time:
		if t.IsZero() {
			return time.Time{}, false
		}
		return t, true
	case *time.Time:
		if t == nil || t.IsZero() {
			return time.Time{}, false
		}
		return *t, true
	case string:
		parsed, err := time.Parse(time.RFC3339Nano, t)
		if err != nil {
			return time.Time{}, false
		}
		return parsed, true
	}
	return time.Time{}, false
}
