// Package client is a typed client for the showcase HTTP API. It satisfies
// the view source interfaces, so the terminal client drives the same
// presentation state as an in-process caller.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/telubhanuprasad/firestore-item-showcase/internal/domain"
	"github.com/telubhanuprasad/firestore-item-showcase/internal/view"
	apperrors "github.com/telubhanuprasad/firestore-item-showcase/pkg/errors"
	"github.com/telubhanuprasad/firestore-item-showcase/pkg/httpclient"
)

// Client talks to a showcase server.
type Client struct {
	http    *httpclient.Client
	baseURL string
	logger  *slog.Logger
}

// New creates a client for the server at baseURL, e.g. http://localhost:8080.
func New(baseURL string, cfg httpclient.Config, logger *slog.Logger) *Client {
	return &Client{
		http:    httpclient.New(cfg),
		baseURL: strings.TrimRight(baseURL, "/"),
		logger:  logger,
	}
}

var (
	_ view.ItemSource      = (*Client)(nil)
	_ view.ReviewSource    = (*Client)(nil)
	_ view.ReviewSubmitter = (*Client)(nil)
)

// ListItems fetches the catalog. Transport failures are reported like store
// failures, as FETCH_FAILED.
func (c *Client) ListItems(ctx context.Context) ([]domain.Item, error) {
	var body view.ItemListBody
	if err := c.getJSON(ctx, "/api/v1/items", &body); err != nil {
		return nil, asAppError(err, func(cause error) error {
			return apperrors.FetchFailed(view.MsgLoadItemsFailed, cause)
		})
	}
	items := make([]domain.Item, 0, len(body.Items))
	for _, card := range body.Items {
		items = append(items, card.Item())
	}
	return items, nil
}

// ListReviews fetches the review listing of itemID as served.
func (c *Client) ListReviews(ctx context.Context, itemID string) (view.ReviewListBody, error) {
	var body view.ReviewListBody
	err := c.getJSON(ctx, reviewsPath(itemID), &body)
	return body, err
}

// ListReviewsForItem fetches the reviews of itemID, newest first. Failures
// are logged and yield no reviews.
func (c *Client) ListReviewsForItem(ctx context.Context, itemID string) []domain.Review {
	body, err := c.ListReviews(ctx, itemID)
	if err != nil {
		c.logger.WarnContext(ctx, "failed to list reviews, returning none",
			slog.String("item_id", itemID),
			slog.String("error", err.Error()),
		)
		return []domain.Review{}
	}
	reviews := make([]domain.Review, 0, len(body.Reviews))
	for _, e := range body.Reviews {
		reviews = append(reviews, e.Review())
	}
	return reviews
}

// AddReviewIdempotent posts a review with an optional Idempotency-Key.
// Transport failures are reported as WRITE_FAILED; the caller may resend
// with the same key.
func (c *Client) AddReviewIdempotent(ctx context.Context, key string, input domain.NewReview) (string, bool, error) {
	payload, err := json.Marshal(view.CreateReviewRequest{
		Rating:       input.Rating,
		Comment:      input.Comment,
		ReviewerName: input.ReviewerName,
	})
	if err != nil {
		return "", false, fmt.Errorf("encode review: %w", err)
	}

	headers := http.Header{}
	if key != "" {
		headers.Set("Idempotency-Key", key)
	}

	resp, err := c.http.Post(ctx, c.baseURL+reviewsPath(input.ItemID), "application/json", bytes.NewReader(payload), headers)
	if err != nil {
		return "", false, apperrors.WriteFailed(view.MsgAddReviewFailed, err)
	}
	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
		return "", false, httpclient.ParseResponseError(resp)
	}

	var created view.CreatedReview
	if err := decodeData(resp, &created); err != nil {
		return "", false, apperrors.WriteFailed(view.MsgAddReviewFailed, err)
	}
	return created.ID, created.Replayed, nil
}

// AddReview posts a review without an idempotency key.
func (c *Client) AddReview(ctx context.Context, input domain.NewReview) (string, error) {
	id, _, err := c.AddReviewIdempotent(ctx, "", input)
	return id, err
}

func reviewsPath(itemID string) string {
	return "/api/v1/items/" + url.PathEscape(itemID) + "/reviews"
}

func (c *Client) getJSON(ctx context.Context, path string, dst any) error {
	resp, err := c.http.Get(ctx, c.baseURL+path)
	if err != nil {
		return err
	}
	if resp.StatusCode != http.StatusOK {
		return httpclient.ParseResponseError(resp)
	}
	return decodeData(resp, dst)
}

// decodeData reads the data member of the response envelope into dst and
// closes the body.
func decodeData(resp *http.Response, dst any) error {
	defer func() { _ = resp.Body.Close() }()
	var env struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	if err := json.Unmarshal(env.Data, dst); err != nil {
		return fmt.Errorf("decode response data: %w", err)
	}
	return nil
}

// asAppError keeps server-reported errors and wraps anything else with wrap.
func asAppError(err error, wrap func(error) error) error {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		return err
	}
	return wrap(err)
}
