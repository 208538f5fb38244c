package domain

import (
	"math"
	"strconv"
)

// ReviewSummary is the average rating over a non-empty set of reviews.
type ReviewSummary struct {
	Average float64 `json:"average"`
	Count   int     `json:"count"`
	Display string  `json:"display"`
	Stars   int     `json:"stars"`
}

// Summarize computes the average rating. It returns nil for an empty set:
// the average is undefined there and must not be shown.
func Summarize(reviews []Review) *ReviewSummary {
	if len(reviews) == 0 {
		return nil
	}
	sum := 0
	for _, r := range reviews {
		sum += r.Rating
	}
	avg := float64(sum) / float64(len(reviews))

	stars := int(math.Round(avg))
	stars = max(0, min(MaxRating, stars))

	return &ReviewSummary{
		Average: avg,
		Count:   len(reviews),
		Display: oneDecimal(avg),
		Stars:   stars,
	}
}

// Label renders the summary as "4.0 (3 reviews)".
func (s *ReviewSummary) Label() string {
	noun := "reviews"
	if s.Count == 1 {
		noun = "review"
	}
	return s.Display + " (" + strconv.Itoa(s.Count) + " " + noun + ")"
}

// oneDecimal rounds half away from zero: 4.25 renders as "4.3".
func oneDecimal(f float64) string {
	return strconv.FormatFloat(math.Round(f*10)/10, 'f', 1, 64)
}
