package handlers

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/farhapartex/adlibrary-proxy/internal/config"
	"github.com/farhapartex/adlibrary-proxy/internal/fetchers"
	"github.com/farhapartex/adlibrary-proxy/internal/formbody"
	"github.com/farhapartex/adlibrary-proxy/internal/logger"
	"github.com/farhapartex/adlibrary-proxy/internal/models"
	"github.com/farhapartex/adlibrary-proxy/internal/normalize"
	"github.com/farhapartex/adlibrary-proxy/internal/query"
	"github.com/google/uuid"
)

// BatchRequest is one batch of keywords or page ids sharing the same filters.
type BatchRequest struct {
	Mode    models.SearchMode
	Items   []string
	Filters query.Filters
	Session models.Session
	Form    url.Values
}

// BatchResult holds the normalized records of a batch and the outcome of
// every item that was attempted.
type BatchResult struct {
	RunID    string
	Records  []models.CanonicalRecord
	Items    []*models.ItemResult
	Duration time.Duration
}

// Failed returns the items that ended with an error.
func (r *BatchResult) Failed() []*models.ItemResult {
	failed := make([]*models.ItemResult, 0)
	for _, item := range r.Items {
		if !item.OK() {
			failed = append(failed, item)
		}
	}
	return failed
}

// BatchHandler runs batches against the search endpoint, one item at a time
type BatchHandler struct {
	fetcher fetchers.Fetcher
	logger  logger.Logger
}

// NewBatchHandler creates a batch handler backed by the ad library fetcher
func NewBatchHandler(cfg *config.Config, log logger.Logger) *BatchHandler {
	fetcher := fetchers.NewAdLibraryFetcher(
		cfg.AdLibrary.Endpoint,
		cfg.Performance.PageDelay,
		cfg.Performance.HTTPTimeout,
		log,
	)
	return NewBatchHandlerWithFetcher(fetcher, log)
}

// NewBatchHandlerWithFetcher creates a batch handler around any Fetcher
func NewBatchHandlerWithFetcher(fetcher fetchers.Fetcher, log logger.Logger) *BatchHandler {
	if log == nil {
		log = logger.NewNop()
	}
	return &BatchHandler{
		fetcher: fetcher,
		logger:  log,
	}
}

// Run processes the items in order. A failing item is recorded and the batch
// moves on; records gathered before an item failed are kept. Once ctx is done
// no further items are started. The accumulated raw results are normalized
// once at the end.
func (h *BatchHandler) Run(ctx context.Context, req BatchRequest) *BatchResult {
	startTime := time.Now()
	runID := uuid.NewString()
	log := h.logger.With(
		logger.String("run_id", runID),
		logger.String("mode", string(req.Mode)),
	)

	log.Info("Starting batch",
		logger.Int("items", len(req.Items)),
		logger.String("status", req.Filters.Status),
		logger.String("country", req.Filters.Country),
		logger.Strings("form_keys", formbody.Keys(req.Form)),
	)

	headers := fetchers.SessionHeaders(req.Session)
	raw := make([]models.RawRecord, 0)
	results := make([]*models.ItemResult, 0, len(req.Items))

	for i, item := range req.Items {
		if err := ctx.Err(); err != nil {
			log.Warn("Batch stopped before all items ran",
				logger.Int("completed", i),
				logger.Int("remaining", len(req.Items)-i),
				logger.Error(err),
			)
			break
		}

		records, result := h.runItem(ctx, req, headers, item)
		raw = append(raw, records...)
		results = append(results, result)

		if result.Error != nil {
			log.Error("Item failed",
				logger.String("item", item),
				logger.Int("records", result.RawCount),
				logger.Ints("status_codes", result.StatusCodes),
				logger.Error(result.Error),
			)
			continue
		}

		log.Info("Item completed",
			logger.String("item", item),
			logger.Int("records", result.RawCount),
			logger.Int("pages", result.Pages),
			logger.Duration("duration", result.Duration),
		)
	}

	records := normalize.Normalize(raw)
	batch := &BatchResult{
		RunID:    runID,
		Records:  records,
		Items:    results,
		Duration: time.Since(startTime),
	}

	log.Info("Batch completed",
		logger.Int("records", len(records)),
		logger.Int("items_attempted", len(results)),
		logger.Int("items_failed", len(batch.Failed())),
		logger.Duration("duration", batch.Duration),
	)

	return batch
}

// runItem builds and paginates the search for a single item
func (h *BatchHandler) runItem(ctx context.Context, req BatchRequest, headers http.Header, item string) ([]models.RawRecord, *models.ItemResult) {
	startTime := time.Now()
	result := models.NewItemResult(item)

	searchReq, err := query.Build(req.Mode, req.Filters, item)
	if err != nil {
		result.Error = err
		result.Duration = time.Since(startTime)
		return nil, result
	}

	itemCtx := fetchers.WithPageObserver(ctx, func(p fetchers.PageReport) {
		result.Pages++
		result.StatusCodes = append(result.StatusCodes, p.StatusCode)
	})

	records, err := h.fetcher.FetchAll(itemCtx, searchReq, headers, req.Form, item)
	result.RawCount = len(records)
	result.Error = err
	result.Duration = time.Since(startTime)

	return records, result
}

// SplitItems turns comma separated input into trimmed, non-empty items
func SplitItems(input string) []string {
	items := make([]string, 0)
	for _, part := range strings.Split(input, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			items = append(items, trimmed)
		}
	}
	return items
}

// DefaultFilters returns the filters configured for the service
func DefaultFilters(cfg *config.Config) query.Filters {
	return query.Filters{
		SessionID: cfg.AdLibrary.SessionID,
		Status:    query.StatusBoth,
		Country:   cfg.AdLibrary.Country,
		Version:   cfg.AdLibrary.Version,
		PageSize:  cfg.Performance.PageSize,
	}
}

// DefaultSession returns the session configured for the service
func DefaultSession(cfg *config.Config) models.Session {
	return models.Session{
		Cookie:    cfg.AdLibrary.Cookie,
		LSD:       cfg.AdLibrary.LSD,
		ASBDID:    cfg.AdLibrary.ASBDID,
		UserAgent: cfg.AdLibrary.UserAgent,
	}
}
