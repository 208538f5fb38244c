package view

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/oklog/ulid/v2"

	"github.com/telubhanuprasad/firestore-item-showcase/internal/domain"
)

// ReviewSubmitter stores a review under a client-generated idempotency key.
type ReviewSubmitter interface {
	AddReviewIdempotent(ctx context.Context, key string, input domain.NewReview) (id string, replayed bool, err error)
}

var errAlreadySubmitting = errors.New("a submission is already in progress")

// MissingFieldsError lists the form fields that block submission.
type MissingFieldsError struct {
	Fields []string
}

func (e *MissingFieldsError) Error() string { return MsgMissingInfo }

// ReviewForm collects one review for one item. Its fields are kept after a
// failed submission and cleared after a successful one.
type ReviewForm struct {
	itemID    string
	submitter ReviewSubmitter
	onAdded   func(context.Context)

	mu           sync.Mutex
	rating       int
	comment      string
	reviewerName string
	key          string
	submitting   bool
}

// NewReviewForm creates an empty form. onReviewAdded runs once after every
// successful submission.
func NewReviewForm(itemID string, submitter ReviewSubmitter, onReviewAdded func(context.Context)) *ReviewForm {
	return &ReviewForm{
		itemID:    itemID,
		submitter: submitter,
		onAdded:   onReviewAdded,
		key:       ulid.Make().String(),
	}
}

// SetRating selects 1 to 5 stars; 0 clears the selection.
func (f *ReviewForm) SetRating(n int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rating = n
}

func (f *ReviewForm) SetComment(s string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.comment = s
}

func (f *ReviewForm) SetReviewerName(s string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reviewerName = s
}

// Fields returns the current field values.
func (f *ReviewForm) Fields() (rating int, comment, reviewerName string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.rating, f.comment, f.reviewerName
}

// IdempotencyKey is the key the next submission is sent with.
func (f *ReviewForm) IdempotencyKey() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.key
}

// SubmitLabel is the text of the submit control.
func (f *ReviewForm) SubmitLabel() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.submitting {
		return LabelSubmitting
	}
	return LabelSubmit
}

// Validate checks that a rating is selected and that the comment and the
// reviewer name are not blank.
func (f *ReviewForm) Validate() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.validateLocked()
}

func (f *ReviewForm) validateLocked() error {
	var missing []string
	if f.rating < domain.MinRating || f.rating > domain.MaxRating {
		missing = append(missing, "rating")
	}
	if strings.TrimSpace(f.comment) == "" {
		missing = append(missing, "comment")
	}
	if strings.TrimSpace(f.reviewerName) == "" {
		missing = append(missing, "reviewer_name")
	}
	if len(missing) > 0 {
		return &MissingFieldsError{Fields: missing}
	}
	return nil
}

// Submit validates and sends the review. On success the form is cleared, a
// new idempotency key is drawn and onReviewAdded runs. On failure the
// fields and the key are kept, so resubmitting cannot store the review
// twice.
func (f *ReviewForm) Submit(ctx context.Context) (string, error) {
	f.mu.Lock()
	if err := f.validateLocked(); err != nil {
		f.mu.Unlock()
		return "", err
	}
	if f.submitting {
		f.mu.Unlock()
		return "", errAlreadySubmitting
	}
	f.submitting = true
	key := f.key
	input := domain.NewReview{
		ItemID:       f.itemID,
		Rating:       f.rating,
		Comment:      strings.TrimSpace(f.comment),
		ReviewerName: strings.TrimSpace(f.reviewerName),
	}
	f.mu.Unlock()

	id, _, err := f.submitter.AddReviewIdempotent(ctx, key, input)

	f.mu.Lock()
	f.submitting = false
	if err != nil {
		f.mu.Unlock()
		return "", err
	}
	f.rating, f.comment, f.reviewerName = 0, "", ""
	f.key = ulid.Make().String()
	f.mu.Unlock()

	if f.onAdded != nil {
		f.onAdded(ctx)
	}
	return id, nil
}
