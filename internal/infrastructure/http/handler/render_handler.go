package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/mrops-br/apip-render/internal/app/dto"
	"github.com/mrops-br/apip-render/internal/app/service"
	"github.com/mrops-br/apip-render/internal/domain"
	"github.com/mrops-br/apip-render/internal/infrastructure/http/response"
)

// maxBodyBytes bounds a page render request body
const maxBodyBytes = 1 << 20

// PageRenderer renders the placements of one page against a single cache
type PageRenderer interface {
	Render(ctx context.Context, page service.Page) service.PageResult
}

// RenderHandler handles HTTP requests for product blocks
type RenderHandler struct {
	pages  PageRenderer
	logger *slog.Logger
}

// NewRenderHandler creates a new render handler
func NewRenderHandler(pages PageRenderer, logger *slog.Logger) *RenderHandler {
	return &RenderHandler{
		pages:  pages,
		logger: logger,
	}
}

// RenderPage handles POST /render
func (h *RenderHandler) RenderPage(w http.ResponseWriter, r *http.Request) {
	var req dto.RenderPageRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		h.logger.WarnContext(r.Context(), "Failed to decode request body",
			slog.String("error", err.Error()),
		)
		response.Error(w, http.StatusBadRequest, fmt.Errorf("%w: %v", domain.ErrInvalidPlacement, err))
		return
	}

	if err := req.Validate(); err != nil {
		response.Error(w, http.StatusBadRequest, err)
		return
	}

	res := h.pages.Render(r.Context(), service.Page{Placements: req.Placements, TopChoice: req.TopChoice})

	h.logger.InfoContext(r.Context(), "Page rendered",
		slog.String("render_id", res.RenderID),
		slog.Int("blocks", len(res.Blocks)),
	)

	response.JSON(w, http.StatusOK, dto.ToRenderPageResponse(res.RenderID, res.TopChoice, res.Blocks))
}

// RenderBlock handles GET /render/block; query parameters use the shortcode
// attribute names
func (h *RenderHandler) RenderBlock(w http.ResponseWriter, r *http.Request) {
	opts := domain.PlacementFromValues(r.URL.Query().Get)

	res := h.pages.Render(r.Context(), service.Page{Placements: []domain.PlacementOptions{opts}})

	w.Header().Set("X-Render-Id", res.RenderID)
	response.HTML(w, http.StatusOK, res.HTML())
}

// RenderTopChoice handles GET /render/top-choice?amazonid=...&aff_link=...
func (h *RenderHandler) RenderTopChoice(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	topChoice := &domain.TopChoice{
		ProductID:     domain.ProductID(query.Get("amazonid")),
		AffiliateLink: query.Get("aff_link"),
	}
	if topChoice.ProductID.IsZero() {
		response.Error(w, http.StatusBadRequest, fmt.Errorf("%w: amazonid is required", domain.ErrInvalidPlacement))
		return
	}

	res := h.pages.Render(r.Context(), service.Page{TopChoice: topChoice})

	w.Header().Set("X-Render-Id", res.RenderID)
	response.HTML(w, http.StatusOK, res.TopChoice)
}
