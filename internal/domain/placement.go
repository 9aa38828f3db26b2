package domain

import "strings"

// DefaultAffiliateSource labels the primary price button when none is given.
const DefaultAffiliateSource = "Amazon"

// PlacementOptions describes one occurrence of the product block on a page.
// Tags use the shortcode attribute names.
type PlacementOptions struct {
	Width              string    `json:"width" yaml:"width"`
	Title              string    `json:"title" yaml:"title"`
	ProductName        string    `json:"prod_name" yaml:"prod_name"`
	ProductDescription string    `json:"prod_desc" yaml:"prod_desc"`
	ProductImage       string    `json:"prod_img" yaml:"prod_img"`
	ProductID          ProductID `json:"amazonid" yaml:"amazonid"`
	PartnerID          string    `json:"partner_id" yaml:"partner_id"`
	AffiliateSource    string    `json:"aff_source" yaml:"aff_source"`
	AffiliateLink      string    `json:"aff_link" yaml:"aff_link"`
	// AffiliateProductID is accepted for compatibility and never read.
	AffiliateProductID string `json:"aff_prodid" yaml:"aff_prodid"`
	AffiliateLink2     string `json:"aff_link2" yaml:"aff_link2"`
	AffiliateSource2   string `json:"aff_source2" yaml:"aff_source2"`
}

// DefaultPlacementOptions returns options with every default applied.
func DefaultPlacementOptions() PlacementOptions {
	return PlacementOptions{AffiliateSource: DefaultAffiliateSource}
}

// WithDefaults fills fields left blank by the caller.
func (o PlacementOptions) WithDefaults() PlacementOptions {
	if strings.TrimSpace(o.AffiliateSource) == "" {
		o.AffiliateSource = DefaultAffiliateSource
	}
	return o
}

// PlacementFromValues builds options from a flat attribute lookup, such as
// URL query parameters. Missing keys keep their defaults.
func PlacementFromValues(get func(key string) string) PlacementOptions {
	o := PlacementOptions{
		Width:              get("width"),
		Title:              get("title"),
		ProductName:        get("prod_name"),
		ProductDescription: get("prod_desc"),
		ProductImage:       get("prod_img"),
		ProductID:          ProductID(get("amazonid")),
		PartnerID:          get("partner_id"),
		AffiliateSource:    get("aff_source"),
		AffiliateLink:      get("aff_link"),
		AffiliateProductID: get("aff_prodid"),
		AffiliateLink2:     get("aff_link2"),
		AffiliateSource2:   get("aff_source2"),
	}
	return o.WithDefaults()
}

// TopChoice names the product featured at the top of a page. Only its price
// label is rendered, drawn from the same render cache as the placements.
type TopChoice struct {
	ProductID     ProductID `json:"amazonid" yaml:"amazonid"`
	AffiliateLink string    `json:"aff_link" yaml:"aff_link"`
}
