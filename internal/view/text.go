package view

import (
	"fmt"
	"strings"
	"time"

	"github.com/fatih/color"
)

// User-facing texts.
const (
	TitleItems         = "Items from Firestore"
	TitleItemsError    = "Error Loading Items"
	MsgLoadingItems    = "Loading items..."
	MsgNoItems         = "No items found"
	MsgNoItemsHint     = "It looks like there are no items in your collection yet."
	MsgLoadItemsFailed = "Failed to load items."
	MsgLoadingReviews  = "Loading reviews..."
	MsgNoReviews       = "No reviews yet for this item."
	MsgBeFirst         = "Be the first to review!"
	TitleAddReview     = "Add Your Review"
	LabelSubmit        = "Add Review"
	LabelSubmitting    = "Adding Review..."
	TitleMissingInfo   = "Missing Information"
	MsgMissingInfo     = "Please fill in all fields and select a rating."
	TitleReviewAdded   = "Review Added"
	MsgReviewAdded     = "Your review has been successfully added!"
	MsgAddReviewFailed = "Failed to add review. Please try again."
	dateLayout         = "2006-01-02"
	starFilled         = "★"
	starEmpty          = "☆"
	maxStars           = 5
)

var starColor = color.New(color.FgYellow)

// Stars renders n filled stars out of five. n is clamped to [0,5].
func Stars(n int) string {
	n = max(0, min(maxStars, n))
	return strings.Repeat(starFilled, n) + strings.Repeat(starEmpty, maxStars-n)
}

// ColorStars is Stars with the filled part highlighted on terminals.
func ColorStars(n int) string {
	n = max(0, min(maxStars, n))
	return starColor.Sprint(strings.Repeat(starFilled, n)) + strings.Repeat(starEmpty, maxStars-n)
}

// DateLabel renders the date part of a review timestamp.
func DateLabel(t time.Time) string {
	return t.Format(dateLayout)
}

// ItemCountLabel renders "1 item available" or "N items available".
func ItemCountLabel(n int) string {
	if n == 1 {
		return "1 item available"
	}
	return fmt.Sprintf("%d items available", n)
}
