package parser

import (
	"SalesScanner/internal/domain"
	"SalesScanner/internal/ports"
)

// DefaultLinkSelector matches the property anchors on a sitemap page.
const DefaultLinkSelector = "a[class='clickable h7 ']"

// SiteParser bundles the stateless extractors behind ports.ListingParser.
type SiteParser struct {
	linkSelector string
}

var _ ports.ListingParser = (*SiteParser)(nil)

// NewSiteParser returns a parser selecting listing anchors with linkSelector.
func NewSiteParser(linkSelector string) *SiteParser {
	if linkSelector == "" {
		linkSelector = DefaultLinkSelector
	}
	return &SiteParser{linkSelector: linkSelector}
}

func (p *SiteParser) ListingPaths(html []byte) ([]string, error) {
	return ExtractListingPaths(html, p.linkSelector)
}

func (p *SiteParser) ListingID(page []byte) (string, error) {
	return ExtractListingID(page)
}

func (p *SiteParser) HouseMetadata(payload []byte) (domain.HouseMetadata, error) {
	return DecodeHouseMetadata(payload)
}
