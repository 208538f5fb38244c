package service

import (
	"context"
	"log/slog"

	"github.com/telubhanuprasad/firestore-item-showcase/internal/domain"
	"github.com/telubhanuprasad/firestore-item-showcase/internal/repository"
	apperrors "github.com/telubhanuprasad/firestore-item-showcase/pkg/errors"
)

// MsgListItemsFailed is the only message shown for any item listing fault.
const MsgListItemsFailed = "Failed to load items."

// ItemService implements item listing.
type ItemService struct {
	repo    repository.ItemRepository
	metrics *Metrics
	logger  *slog.Logger
}

// NewItemService creates a new item service.
func NewItemService(repo repository.ItemRepository, metrics *Metrics, logger *slog.Logger) *ItemService {
	return &ItemService{
		repo:    repo,
		metrics: metrics,
		logger:  logger,
	}
}

// ListItems returns every item in store order. Any store fault is returned
// as a FETCH_FAILED error. Documents that cannot be decoded are skipped.
func (s *ItemService) ListItems(ctx context.Context) ([]domain.Item, error) {
	docs, err := s.repo.List(ctx)
	s.metrics.observe(opListItems, err)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to list items", slog.String("error", err.Error()))
		return nil, apperrors.FetchFailed(MsgListItemsFailed, err)
	}

	items := make([]domain.Item, 0, len(docs))
	for _, doc := range docs {
		item, err := domain.DecodeItem(doc)
		if err != nil {
			s.metrics.skipped("items")
			s.logger.WarnContext(ctx, "skipping malformed item document",
				slog.String("error", err.Error()),
			)
			continue
		}
		items = append(items, item)
	}
	return items, nil
}
