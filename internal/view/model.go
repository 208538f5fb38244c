package view

import (
	"time"

	"github.com/telubhanuprasad/firestore-item-showcase/internal/domain"
)

// ItemCard is one item as served by GET /api/v1/items.
type ItemCard struct {
	ID           string       `json:"id"`
	Name         string       `json:"name"`
	Description  string       `json:"description"`
	Price        domain.Price `json:"price"`
	DisplayPrice string       `json:"display_price"`
	ShortID      string       `json:"short_id"`
}

// NewItemCard builds the card of item.
func NewItemCard(item domain.Item) ItemCard {
	return ItemCard{
		ID:           item.ID,
		Name:         item.Name,
		Description:  item.Description,
		Price:        item.Price,
		DisplayPrice: item.Price.Display(),
		ShortID:      item.ShortID(),
	}
}

// Item converts the card back to the domain item.
func (c ItemCard) Item() domain.Item {
	return domain.Item{ID: c.ID, Name: c.Name, Description: c.Description, Price: c.Price}
}

// ItemListBody is the data of GET /api/v1/items.
type ItemListBody struct {
	State        string     `json:"state"`
	Items        []ItemCard `json:"items"`
	Count        int        `json:"count"`
	CountLabel   string     `json:"count_label"`
	EmptyMessage string     `json:"empty_message,omitempty"`
}

// NewItemListBody builds the ready listing of items.
func NewItemListBody(items []domain.Item) ItemListBody {
	cards := make([]ItemCard, 0, len(items))
	for _, it := range items {
		cards = append(cards, NewItemCard(it))
	}
	body := ItemListBody{
		State:      PhaseReady.String(),
		Items:      cards,
		Count:      len(cards),
		CountLabel: ItemCountLabel(len(cards)),
	}
	if len(cards) == 0 {
		body.EmptyMessage = MsgNoItems
	}
	return body
}

// ReviewEntry is one review as served by GET /api/v1/items/{itemId}/reviews.
type ReviewEntry struct {
	ID           string    `json:"id"`
	ItemID       string    `json:"item_id"`
	Rating       int       `json:"rating"`
	Comment      string    `json:"comment"`
	ReviewerName string    `json:"reviewer_name"`
	CreatedAt    time.Time `json:"created_at"`
	DateLabel    string    `json:"date_label"`
	Stars        string    `json:"stars"`
}

// NewReviewEntry builds the entry of r.
func NewReviewEntry(r domain.Review) ReviewEntry {
	return ReviewEntry{
		ID:           r.ID,
		ItemID:       r.ItemID,
		Rating:       r.Rating,
		Comment:      r.Comment,
		ReviewerName: r.ReviewerName,
		CreatedAt:    r.CreatedAt,
		DateLabel:    DateLabel(r.CreatedAt),
		Stars:        Stars(r.Rating),
	}
}

// Review converts the entry back to the domain review.
func (e ReviewEntry) Review() domain.Review {
	return domain.Review{
		ID:           e.ID,
		ItemID:       e.ItemID,
		Rating:       e.Rating,
		Comment:      e.Comment,
		ReviewerName: e.ReviewerName,
		CreatedAt:    e.CreatedAt,
	}
}

// ReviewListBody is the data of GET /api/v1/items/{itemId}/reviews. Summary
// is null when there are no reviews.
type ReviewListBody struct {
	Reviews      []ReviewEntry         `json:"reviews"`
	Count        int                   `json:"count"`
	Summary      *domain.ReviewSummary `json:"summary"`
	SummaryLabel string                `json:"summary_label,omitempty"`
	EmptyMessage string                `json:"empty_message,omitempty"`
}

// NewReviewListBody builds the listing of reviews, including the average.
func NewReviewListBody(reviews []domain.Review) ReviewListBody {
	entries := make([]ReviewEntry, 0, len(reviews))
	for _, r := range reviews {
		entries = append(entries, NewReviewEntry(r))
	}
	body := ReviewListBody{
		Reviews: entries,
		Count:   len(entries),
		Summary: domain.Summarize(reviews),
	}
	if body.Summary != nil {
		body.SummaryLabel = body.Summary.Label()
	} else {
		body.EmptyMessage = MsgNoReviews + " " + MsgBeFirst
	}
	return body
}

// CreateReviewRequest is the body of POST /api/v1/items/{itemId}/reviews.
type CreateReviewRequest struct {
	Rating       int    `json:"rating"`
	Comment      string `json:"comment"`
	ReviewerName string `json:"reviewer_name"`
}

// CreatedReview is the data returned for a stored or replayed submission.
type CreatedReview struct {
	ID       string `json:"id"`
	Replayed bool   `json:"replayed"`
}
