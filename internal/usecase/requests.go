package usecase

import (
	"net/http"
	"net/url"

	"SalesScanner/internal/config"
	"SalesScanner/internal/ports"
)

// SiteRequests builds the three request shapes the pipeline issues.
type SiteRequests struct {
	BaseURL     string
	APIURL      string
	SitemapPath string
	DetailPath  string
	UserAgent   string
}

// NewSiteRequests copies the request-related settings from cfg.
func NewSiteRequests(cfg config.SiteConfig) SiteRequests {
	return SiteRequests{
		BaseURL:     cfg.BaseURL,
		APIURL:      cfg.APIURL,
		SitemapPath: cfg.SitemapPath,
		DetailPath:  cfg.DetailPath,
		UserAgent:   cfg.UserAgent,
	}
}

// Sitemap is the index page listing every property link.
func (s SiteRequests) Sitemap() ports.Request {
	return ports.Request{BaseURL: s.BaseURL, Path: s.SitemapPath}
}

// Listing is a single property page on the public site.
func (s SiteRequests) Listing(path string) ports.Request {
	return ports.Request{BaseURL: s.BaseURL, Path: path}
}

// Detail is the private API call for one listing id.
func (s SiteRequests) Detail(id string) ports.Request {
	req := ports.Request{
		BaseURL: s.APIURL,
		Path:    s.DetailPath,
		Query:   url.Values{"id": {id}},
	}
	if s.UserAgent != "" {
		req.Header = http.Header{"User-Agent": {s.UserAgent}}
	}
	return req
}
