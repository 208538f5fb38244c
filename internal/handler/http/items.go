package http

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/telubhanuprasad/firestore-item-showcase/internal/domain"
	"github.com/telubhanuprasad/firestore-item-showcase/internal/view"
	"github.com/telubhanuprasad/firestore-item-showcase/pkg/httputil"
)

// ItemService lists the catalog.
type ItemService interface {
	ListItems(ctx context.Context) ([]domain.Item, error)
}

// ItemHandler handles HTTP requests for item endpoints.
type ItemHandler struct {
	service ItemService
	logger  *slog.Logger
}

// NewItemHandler creates a new item HTTP handler.
func NewItemHandler(svc ItemService, logger *slog.Logger) *ItemHandler {
	return &ItemHandler{
		service: svc,
		logger:  logger,
	}
}

// ListItems handles GET /api/v1/items
func (h *ItemHandler) ListItems(w http.ResponseWriter, r *http.Request) {
	items, err := h.service.ListItems(r.Context())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: view.NewItemListBody(items)})
}
