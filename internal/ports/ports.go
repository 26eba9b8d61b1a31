package ports

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"time"

	"SalesScanner/internal/domain"
)

// Request describes a single GET exchange against one of the site hosts.
type Request struct {
	BaseURL string
	Path    string
	Query   url.Values
	Header  http.Header
}

// URL joins base, path and query.
func (r Request) URL() (string, error) {
	base, err := url.Parse(strings.TrimSuffix(r.BaseURL, "/"))
	if err != nil {
		return "", err
	}
	ref, err := url.Parse(r.Path)
	if err != nil {
		return "", err
	}
	u := base.JoinPath(ref.Path)
	query := ref.Query()
	for key, values := range r.Query {
		for _, v := range values {
			query.Add(key, v)
		}
	}
	u.RawQuery = query.Encode()
	return u.String(), nil
}

// Fetcher performs raw request/response exchanges.
type Fetcher interface {
	Get(ctx context.Context, req Request) ([]byte, error)
}

// ListingParser turns raw site and API responses into domain values.
type ListingParser interface {
	ListingPaths(html []byte) ([]string, error)
	ListingID(page []byte) (string, error)
	HouseMetadata(payload []byte) (domain.HouseMetadata, error)
}

// SaleSink receives projected sale rows.
type SaleSink interface {
	Name() string
	Append(ctx context.Context, row domain.SaleRow) error
}

// Scheduler controls when pipelines execute.
type Scheduler interface {
	Start(ctx context.Context, job func(time.Time)) error
	Stop(ctx context.Context) error
}
