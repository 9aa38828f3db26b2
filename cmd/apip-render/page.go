package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/mrops-br/apip-render/internal/app/dto"
	"gopkg.in/yaml.v3"
)

// loadPage decodes a page file: a "placements" list whose entries use the
// shortcode attribute names.
func loadPage(r io.Reader) (*dto.RenderPageRequest, error) {
	var page dto.RenderPageRequest
	if err := yaml.NewDecoder(r).Decode(&page); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("page file is empty")
		}
		return nil, fmt.Errorf("failed to decode page file: %w", err)
	}
	if err := page.Validate(); err != nil {
		return nil, err
	}
	return &page, nil
}

func loadPageFile(path string) (*dto.RenderPageRequest, error) {
	if path == "-" {
		return loadPage(os.Stdin)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open page file: %w", err)
	}
	defer f.Close()
	return loadPage(f)
}
