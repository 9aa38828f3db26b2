package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/mrops-br/apip-render/internal/app/dto"
	"github.com/mrops-br/apip-render/internal/app/service"
	"github.com/mrops-br/apip-render/internal/domain"
	"github.com/mrops-br/apip-render/internal/infrastructure/http/response"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubPages struct {
	got   [][]domain.PlacementOptions
	pages []service.Page
}

func (s *stubPages) Render(_ context.Context, page service.Page) service.PageResult {
	s.got = append(s.got, page.Placements)
	s.pages = append(s.pages, page)
	blocks := make([]string, len(page.Placements))
	for i, p := range page.Placements {
		blocks[i] = `<div class="amazonpip">` + string(p.ProductID) + `</div>`
	}
	res := service.PageResult{RenderID: "render-1", Blocks: blocks}
	if page.TopChoice != nil {
		res.TopChoice = "See Price at Amazon"
	}
	return res
}

func newTestHandler() (*RenderHandler, *stubPages) {
	pages := &stubPages{}
	return NewRenderHandler(pages, slog.New(slog.DiscardHandler)), pages
}

func TestRenderPage(t *testing.T) {
	h, pages := newTestHandler()
	body := `{"placements":[{"amazonid":"B000TEST","aff_link":"https://aff.example/x"},{"amazonid":"B000TEST","prod_img":"https://cdn.example/i.png"}]}`

	req := httptest.NewRequest(http.MethodPost, "/render", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.RenderPage(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp dto.RenderPageResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "render-1", resp.RenderID)
	assert.Equal(t, []string{`<div class="amazonpip">B000TEST</div>`, `<div class="amazonpip">B000TEST</div>`}, resp.Blocks)

	require.Len(t, pages.got, 1)
	assert.Equal(t, "https://aff.example/x", pages.got[0][0].AffiliateLink)
	assert.Equal(t, "Amazon", pages.got[0][1].AffiliateSource)
	assert.Equal(t, "https://cdn.example/i.png", pages.got[0][1].ProductImage)
}

func TestRenderPageRejectsBadInput(t *testing.T) {
	for _, body := range []string{`{`, `{"placements":[]}`} {
		h, pages := newTestHandler()

		req := httptest.NewRequest(http.MethodPost, "/render", strings.NewReader(body))
		rec := httptest.NewRecorder()
		h.RenderPage(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code, body)
		var resp response.ErrorResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, "invalid_placement", resp.Error)
		assert.Empty(t, pages.got)
	}
}

func TestRenderBlock(t *testing.T) {
	h, pages := newTestHandler()

	req := httptest.NewRequest(http.MethodGet, "/render/block?amazonid=B000TEST&width=6&aff_source2=Walmart", nil)
	rec := httptest.NewRecorder()
	h.RenderBlock(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/html; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Equal(t, "render-1", rec.Header().Get("X-Render-Id"))
	assert.Equal(t, `<div class="amazonpip">B000TEST</div>`, rec.Body.String())

	require.Len(t, pages.got, 1)
	opts := pages.got[0][0]
	assert.Equal(t, "6", opts.Width)
	assert.Equal(t, "Amazon", opts.AffiliateSource)
	assert.Equal(t, "Walmart", opts.AffiliateSource2)
}

func TestRenderPageWithTopChoice(t *testing.T) {
	h, pages := newTestHandler()
	body := `{"top_choice":{"amazonid":"B000TEST","aff_link":"https://aff.example/x"},"placements":[{"amazonid":"B000TEST"}]}`

	req := httptest.NewRequest(http.MethodPost, "/render", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.RenderPage(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp dto.RenderPageResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "See Price at Amazon", resp.TopChoice)

	require.Len(t, pages.pages, 1)
	require.NotNil(t, pages.pages[0].TopChoice)
	assert.Equal(t, domain.ProductID("B000TEST"), pages.pages[0].TopChoice.ProductID)
	assert.Len(t, pages.pages[0].Placements, 1)
}

func TestRenderTopChoice(t *testing.T) {
	h, pages := newTestHandler()

	req := httptest.NewRequest(http.MethodGet, "/render/top-choice?amazonid=B000TEST&aff_link=https://aff.example/x", nil)
	rec := httptest.NewRecorder()
	h.RenderTopChoice(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "See Price at Amazon", rec.Body.String())
	require.Len(t, pages.pages, 1)
	assert.Equal(t, "https://aff.example/x", pages.pages[0].TopChoice.AffiliateLink)
	assert.Empty(t, pages.pages[0].Placements)
}

func TestRenderTopChoiceRequiresIdentifier(t *testing.T) {
	h, pages := newTestHandler()

	rec := httptest.NewRecorder()
	h.RenderTopChoice(rec, httptest.NewRequest(http.MethodGet, "/render/top-choice", nil))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, pages.pages)
}
