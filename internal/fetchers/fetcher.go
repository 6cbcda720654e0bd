package fetchers

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/farhapartex/adlibrary-proxy/internal/models"
)

// Fetcher is the interface the batch driver paginates through.
type Fetcher interface {
	// FetchAll follows the cursor chain of req until the endpoint signals
	// exhaustion. It always returns the records accumulated so far, even
	// when it also returns an error.
	// req: advanced in place as cursors arrive
	// headers: session headers copied onto every request
	// form: request body, sent URL-encoded
	// label: item name used in logs and errors
	FetchAll(ctx context.Context, req *models.SearchRequest, headers http.Header, form url.Values, label string) ([]models.RawRecord, error)

	// Name returns the endpoint name
	Name() string
}

// TruncateString truncates a string to maxLength and adds "..." if truncated
func TruncateString(s string, maxLength int) string {
	if len(s) <= maxLength {
		return s
	}
	return strings.TrimSpace(s[:maxLength-3]) + "..."
}
