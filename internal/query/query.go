// Package query builds the parameter set for the first page of a search.
package query

import (
	"strings"
	"time"

	"github.com/farhapartex/adlibrary-proxy/internal/models"
)

// DefaultPageSize is the number of results requested per page.
const DefaultPageSize = 30

// StatusBoth is the user-facing status meaning active and inactive ads.
const StatusBoth = "Both"

// Filters are the options shared by every item in a batch.
type Filters struct {
	SessionID string
	Status    string
	Country   string
	StartDate time.Time
	EndDate   time.Time
	Version   string
	PageSize  int
}

// Build returns the request for the first page of a search. The value is the
// keyword in keyword mode and the page identifier in page mode.
func Build(mode models.SearchMode, filters Filters, value string) (*models.SearchRequest, error) {
	value = strings.TrimSpace(value)

	req := &models.SearchRequest{
		Mode:      mode,
		Status:    statusWireValue(filters.Status),
		Country:   filters.Country,
		StartDate: filters.StartDate,
		EndDate:   filters.EndDate,
		SessionID: filters.SessionID,
		Version:   filters.Version,
		PageSize:  filters.PageSize,
	}
	if req.PageSize <= 0 {
		req.PageSize = DefaultPageSize
	}

	switch mode {
	case models.ModeKeyword:
		if value == "" {
			return nil, &models.ValidationError{Field: "query", Message: "query is required for keyword search"}
		}
		req.Query = value
	case models.ModePageID:
		if value == "" {
			return nil, &models.ValidationError{Field: "page_id", Message: "page id is required for page search"}
		}
		req.PageID = value
	default:
		return nil, &models.ValidationError{Field: "mode", Message: "must be keyword or page"}
	}

	return req, nil
}

func statusWireValue(status string) string {
	if status == StatusBoth {
		return "ALL"
	}
	return strings.ToUpper(status)
}
