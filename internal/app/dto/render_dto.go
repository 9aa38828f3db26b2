package dto

import (
	"fmt"
	"strings"

	"github.com/mrops-br/apip-render/internal/domain"
)

// MaxPlacements bounds the size of one page render request.
const MaxPlacements = 200

// RenderPageRequest represents a page worth of placements rendered together
type RenderPageRequest struct {
	Placements []domain.PlacementOptions `json:"placements" yaml:"placements"`
	TopChoice  *domain.TopChoice         `json:"top_choice,omitempty" yaml:"top_choice,omitempty"`
}

// Validate checks the request shape and fills option defaults
func (r *RenderPageRequest) Validate() error {
	if r.TopChoice != nil && r.TopChoice.ProductID.IsZero() {
		return fmt.Errorf("%w: top choice needs an amazonid", domain.ErrInvalidPlacement)
	}
	if len(r.Placements) == 0 && r.TopChoice == nil {
		return fmt.Errorf("%w: at least one placement or a top choice is required", domain.ErrInvalidPlacement)
	}
	if len(r.Placements) > MaxPlacements {
		return fmt.Errorf("%w: at most %d placements per page", domain.ErrInvalidPlacement, MaxPlacements)
	}
	for i := range r.Placements {
		r.Placements[i] = r.Placements[i].WithDefaults()
	}
	return nil
}

// RenderPageResponse represents the rendered blocks of one page
type RenderPageResponse struct {
	RenderID  string   `json:"render_id"`
	TopChoice string   `json:"top_choice,omitempty"`
	Blocks    []string `json:"blocks"`
	HTML      string   `json:"html"`
}

// ToRenderPageResponse builds the response for a finished render
func ToRenderPageResponse(renderID, topChoice string, blocks []string) *RenderPageResponse {
	return &RenderPageResponse{
		RenderID:  renderID,
		TopChoice: topChoice,
		Blocks:    blocks,
		HTML:      strings.Join(blocks, "\n"),
	}
}
