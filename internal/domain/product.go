package domain

import (
	"errors"
	"strings"
)

var (
	ErrCacheUnavailable = errors.New("no product cache bound to render")
	ErrUpstreamEmpty    = errors.New("upstream returned an empty fragment")
	ErrImageLookup      = errors.New("image dimensions unavailable")
	ErrInvalidPlacement = errors.New("invalid placement options")
	ErrUntaggedImage    = errors.New("image markup needs a variant")
	ErrUnknownField     = errors.New("unknown product field")
)

// ProductID identifies a product across the placements of one render.
type ProductID string

// IsZero reports whether the identifier is blank.
func (id ProductID) IsZero() bool {
	return strings.TrimSpace(string(id)) == ""
}

// Field names a resolved value held by a ProductRecord.
type Field string

const (
	FieldPriceButton Field = "price_button"
	FieldImage       Field = "image"
)

// ImageVariant records which selection path produced an image block.
type ImageVariant string

const (
	VariantNone            ImageVariant = ""
	VariantOverride        ImageVariant = "override"
	VariantLargeWithSrcset ImageVariant = "large-with-srcset"
	VariantLargeOnly       ImageVariant = "large-only"
)

// WrapperClass returns the CSS class placed on the image wrapper div.
func (v ImageVariant) WrapperClass() string {
	switch v {
	case VariantOverride:
		return "loop1"
	case VariantLargeWithSrcset:
		return "loop2"
	case VariantLargeOnly:
		return "loop3"
	default:
		return ""
	}
}

// ImageBlock is rendered image markup tagged with its variant.
type ImageBlock struct {
	Variant ImageVariant
	Markup  string
}

// IsZero reports whether no image has been produced.
func (b ImageBlock) IsZero() bool {
	return b.Variant == VariantNone && b.Markup == ""
}

// ProductRecord holds the resolved fields for one identifier.
//
// A record exists once the fetch pipeline ran for its identifier. Either field
// may still be absent: the fallback path never populates an image, and an
// upstream fragment without a button yields an empty price button.
type ProductRecord struct {
	PriceButton    string
	HasPriceButton bool
	Image          ImageBlock
	HasImage       bool
}

// Value returns the string form of field and whether it is present.
func (r ProductRecord) Value(field Field) (string, bool) {
	switch field {
	case FieldPriceButton:
		return r.PriceButton, r.HasPriceButton
	case FieldImage:
		return r.Image.Markup, r.HasImage
	default:
		return "", false
	}
}

// Dimensions are the pixel size of an image. Zero values mean unknown.
type Dimensions struct {
	Width  int
	Height int
}

// Known reports whether both sides were measured.
func (d Dimensions) Known() bool {
	return d.Width > 0 && d.Height > 0
}
