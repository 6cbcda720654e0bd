package models

import (
	"net/url"
	"strconv"
	"strings"
	"time"
)

// SearchMode selects what the query value means.
type SearchMode string

const (
	ModeKeyword SearchMode = "keyword"
	ModePageID  SearchMode = "page"
)

// DateLayout is the wire and export format for dates.
const DateLayout = "2006-01-02"

// ParseSearchMode maps user-facing mode names onto a SearchMode.
func ParseSearchMode(s string) (SearchMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "keyword", "keywords":
		return ModeKeyword, nil
	case "page", "page_id", "pageid", "page ids", "page_ids":
		return ModePageID, nil
	default:
		return "", &ValidationError{Field: "mode", Message: "must be keyword or page, got " + strconv.Quote(s)}
	}
}

// SearchRequest is the parameter set for one search chain. The filter fields
// are fixed once built; only the cursor fields move, through Advance.
type SearchRequest struct {
	Mode      SearchMode
	Query     string
	PageID    string
	Status    string
	Country   string
	StartDate time.Time
	EndDate   time.Time
	SessionID string
	Version   string
	PageSize  int

	ForwardCursor  string
	CollationToken string
}

// Value returns the query or page identifier, whichever the mode uses.
func (r *SearchRequest) Value() string {
	if r.Mode == ModePageID {
		return r.PageID
	}
	return r.Query
}

// Advance threads the cursor state returned by the previous page.
func (r *SearchRequest) Advance(forwardCursor, collationToken string) {
	r.ForwardCursor = forwardCursor
	r.CollationToken = collationToken
}

// Params renders the query string for the current position in the chain.
// Cursor keys appear only once a forward cursor has been received.
func (r *SearchRequest) Params() url.Values {
	v := url.Values{}
	switch r.Mode {
	case ModeKeyword:
		v.Set("q", r.Query)
		v.Set("search_type", "keyword_exact_phrase")
	case ModePageID:
		v.Set("view_all_page_id", r.PageID)
		v.Set("search_type", "page")
	}
	v.Set("session_id", r.SessionID)
	v.Set("count", strconv.Itoa(r.PageSize))
	v.Set("active_status", r.Status)
	v.Set("ad_type", "all")
	v.Set("country[0]", r.Country)
	v.Set("media_type", "all")
	v.Set("start_date", r.StartDate.Format(DateLayout))
	v.Set("end_date", r.EndDate.Format(DateLayout))
	v.Set("v", r.Version)

	if r.ForwardCursor != "" {
		v.Set("forward_cursor", r.ForwardCursor)
		if r.CollationToken != "" {
			v.Set("collation_token", r.CollationToken)
		}
	}
	return v
}

// Session carries the opaque credential values sent with every request.
// None of them are validated here.
type Session struct {
	Cookie    string
	LSD       string
	ASBDID    string
	UserAgent string
}
