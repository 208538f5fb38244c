package domain

import "sort"

// Document is a raw record as returned by a store backend: an opaque id plus
// schemaless field data. Services decode documents into typed records.
type Document struct {
	ID   string
	Data map[string]any
}

// Field names shared by every store backend.
const (
	FieldName        = "name"
	FieldDescription = "description"
	FieldPrice       = "price"

	FieldItemID       = "itemId"
	FieldRating       = "rating"
	FieldComment      = "comment"
	FieldReviewerName = "reviewerName"
	FieldCreatedAt    = "createdAt"
)

// SortNewestFirst orders review documents by createdAt, newest first.
// Documents without a usable timestamp sort first, matching the read-time
// "now" DecodeReview gives them. The sort is stable.
func SortNewestFirst(docs []Document) {
	sort.SliceStable(docs, func(i, j int) bool {
		return newerThan(docs[i].Data[FieldCreatedAt], docs[j].Data[FieldCreatedAt])
	})
}

func newerThan(a, b any) bool {
	ta, okA := decodeTime(a)
	tb, okB := decodeTime(b)
	switch {
	case !okA && !okB:
		return false
	case !okA:
		return true
	case !okB:
		return false
	}
	return ta.After(tb)
}
