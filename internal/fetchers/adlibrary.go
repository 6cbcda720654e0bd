package fetchers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/farhapartex/adlibrary-proxy/internal/logger"
	"github.com/farhapartex/adlibrary-proxy/internal/models"
)

const (
	// DefaultEndpoint is the ad library search endpoint.
	DefaultEndpoint = "https://www.facebook.com/ads/library/async/search_ads/"

	// DefaultPageDelay is the fixed pause between two pages of one search.
	DefaultPageDelay = time.Second

	// hijackPrefix precedes every JSON payload the endpoint returns.
	hijackPrefix = "for (;;);"

	excerptLength = 500
)

// AdLibraryFetcher pages through the ad library search endpoint.
type AdLibraryFetcher struct {
	endpoint  string
	pageDelay time.Duration
	client    *http.Client
	logger    logger.Logger
}

// NewAdLibraryFetcher creates a fetcher. A negative pageDelay is treated as zero.
func NewAdLibraryFetcher(endpoint string, pageDelay, timeout time.Duration, log logger.Logger) *AdLibraryFetcher {
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	if pageDelay < 0 {
		pageDelay = 0
	}
	if log == nil {
		log = logger.NewNop()
	}
	return &AdLibraryFetcher{
		endpoint:  endpoint,
		pageDelay: pageDelay,
		client: &http.Client{
			Timeout: timeout,
		},
		logger: log,
	}
}

// Name returns the endpoint name
func (f *AdLibraryFetcher) Name() string {
	return "adlibrary"
}

// FetchAll follows the cursor chain for req and returns every raw result
// entry seen. It stops when a page has no results, when a page carries no
// forward cursor, or when a page cannot be decoded. Records gathered before
// a failure are returned alongside the error.
func (f *AdLibraryFetcher) FetchAll(
	ctx context.Context,
	req *models.SearchRequest,
	headers http.Header,
	form url.Values,
	label string,
) ([]models.RawRecord, error) {
	results := make([]models.RawRecord, 0)
	log := f.logger.With(logger.String("item", label))
	observe := pageObserverFrom(ctx)

	for page := 1; ; page++ {
		body, statusCode, err := f.doRequest(ctx, req, headers, form)
		if err != nil {
			log.Error("Search request failed", logger.Int("page", page), logger.Error(err))
			return results, &models.NetworkError{Label: label, Page: page, Err: err}
		}

		if statusCode == http.StatusOK {
			log.Info("Fetched search page", logger.Int("page", page), logger.Int("status", statusCode))
		} else {
			log.Warn("Search page returned non-200 status", logger.Int("page", page), logger.Int("status", statusCode))
		}

		result, err := decodePage(body)
		if err != nil {
			excerpt := TruncateString(string(body), excerptLength)
			log.Error("Failed to decode search page",
				logger.Int("page", page),
				logger.Error(err),
				logger.String("body_excerpt", excerpt),
			)
			observe(PageReport{Label: label, Page: page, StatusCode: statusCode})
			return results, &models.DecodeError{Label: label, Page: page, Excerpt: excerpt, Err: err}
		}
		observe(PageReport{Label: label, Page: page, StatusCode: statusCode, Results: len(result.Results)})

		if len(result.Results) == 0 {
			log.Debug("Search exhausted", logger.Int("page", page))
			return results, nil
		}
		results = append(results, result.Results...)

		if result.Terminal() {
			log.Debug("Reached terminal page", logger.Int("page", page), logger.Int("records", len(results)))
			return results, nil
		}

		req.Advance(result.ForwardCursor, result.CollationToken)

		if err := f.wait(ctx); err != nil {
			return results, err
		}
	}
}

// doRequest posts the current parameter set and returns the body with the
// anti-hijacking prefix removed.
func (f *AdLibraryFetcher) doRequest(ctx context.Context, req *models.SearchRequest, headers http.Header, form url.Values) ([]byte, int, error) {
	u, err := url.Parse(f.endpoint)
	if err != nil {
		return nil, 0, fmt.Errorf("invalid endpoint: %w", err)
	}
	u.RawQuery = req.Params().Encode()

	var encoded string
	if form != nil {
		encoded = form.Encode()
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, u.String(), strings.NewReader(encoded))
	if err != nil {
		return nil, 0, fmt.Errorf("failed to create request: %w", err)
	}
	for key, values := range headers {
		for _, v := range values {
			httpReq.Header.Add(key, v)
		}
	}
	if httpReq.Header.Get("Content-Type") == "" {
		httpReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}

	resp, err := f.client.Do(httpReq)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("failed to read response body: %w", err)
	}

	return bytes.TrimPrefix(body, []byte(hijackPrefix)), resp.StatusCode, nil
}

// wait pauses for the fixed page delay unless ctx ends first.
func (f *AdLibraryFetcher) wait(ctx context.Context) error {
	if f.pageDelay == 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(f.pageDelay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// SearchResponse is the envelope the endpoint wraps each page in.
type SearchResponse struct {
	Payload *SearchPayload `json:"payload"`
}

// SearchPayload holds one page of results and the cursor state.
type SearchPayload struct {
	Results        []models.RawRecord `json:"results"`
	ForwardCursor  string             `json:"forwardCursor"`
	CollationToken string             `json:"collationToken"`
}

func decodePage(body []byte) (*models.Page, error) {
	var resp SearchResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	if resp.Payload == nil {
		return &models.Page{}, nil
	}
	return &models.Page{
		Results:        resp.Payload.Results,
		ForwardCursor:  resp.Payload.ForwardCursor,
		CollationToken: resp.Payload.CollationToken,
	}, nil
}
