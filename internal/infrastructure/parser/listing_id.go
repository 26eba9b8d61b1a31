package parser

import (
	"regexp"
	"strings"

	"SalesScanner/internal/domain"
)

var listingIDExpr = regexp.MustCompile(`listingId:\s(\S+)`)

var listingIDCleaner = strings.NewReplacer("'", "", ",", "")

// ExtractListingID returns the first token following "listingId:" with quotes
// and commas removed.
func ExtractListingID(text []byte) (string, error) {
	match := listingIDExpr.FindSubmatch(text)
	if match == nil {
		return "", domain.NotFound("extract listing id", "listingId marker")
	}

	id := listingIDCleaner.Replace(string(match[1]))
	if id == "" {
		return "", domain.NotFound("extract listing id", "listing id value")
	}
	return id, nil
}
