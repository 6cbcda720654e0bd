package fetchers_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/farhapartex/adlibrary-proxy/internal/fetchers"
	"github.com/farhapartex/adlibrary-proxy/internal/logger"
	"github.com/farhapartex/adlibrary-proxy/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// capturedRequest is what the fake endpoint saw for one page.
type capturedRequest struct {
	query  url.Values
	body   string
	header http.Header
}

// fakeEndpoint serves the given bodies in order and records each request.
type fakeEndpoint struct {
	mu       sync.Mutex
	bodies   []string
	status   int
	requests []capturedRequest
}

func (e *fakeEndpoint) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	e.mu.Lock()
	defer e.mu.Unlock()

	body, _ := io.ReadAll(r.Body)
	e.requests = append(e.requests, capturedRequest{
		query:  r.URL.Query(),
		body:   string(body),
		header: r.Header.Clone(),
	})

	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	idx := len(e.requests) - 1
	if idx >= len(e.bodies) {
		_, _ = w.Write([]byte(`for (;;);{"payload":{"results":[]}}`))
		return
	}
	if e.status != 0 {
		w.WriteHeader(e.status)
	}
	_, _ = w.Write([]byte(e.bodies[idx]))
}

func newFetcher(t *testing.T, e *fakeEndpoint) *fetchers.AdLibraryFetcher {
	t.Helper()
	srv := httptest.NewServer(e)
	t.Cleanup(srv.Close)
	return fetchers.NewAdLibraryFetcher(srv.URL+"/ads/library/async/search_ads/", 0, 5*time.Second, logger.NewNop())
}

func newRequest() *models.SearchRequest {
	return &models.SearchRequest{
		Mode:      models.ModeKeyword,
		Query:     "shoes",
		Status:    "ALL",
		Country:   "US",
		StartDate: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC),
		SessionID: "s1",
		Version:   "2c4a00",
		PageSize:  30,
	}
}

func TestFetchAll_ThreadsCursorForward(t *testing.T) {
	e := &fakeEndpoint{bodies: []string{
		`for (;;);{"payload":{"results":[{"adid":"1"},{"adid":"2"}],"forwardCursor":"c1","collationToken":"t1"}}`,
		`for (;;);{"payload":{"results":[{"adid":"3"}],"forwardCursor":"c2","collationToken":"t2"}}`,
		`for (;;);{"payload":{"results":[{"adid":"4"}]}}`,
	}}
	f := newFetcher(t, e)

	form := url.Values{"lsd": {"abc"}, "__a": {"1"}}
	headers := fetchers.SessionHeaders(models.Session{Cookie: "c_user=1", LSD: "abc"})

	records, err := f.FetchAll(context.Background(), newRequest(), headers, form, "shoes")
	require.NoError(t, err)
	require.Len(t, records, 4)
	assert.Equal(t, "4", records[3].Ad["adid"])

	require.Len(t, e.requests, 3)

	first := e.requests[0].query
	assert.False(t, first.Has("forward_cursor"))
	assert.False(t, first.Has("collation_token"))
	assert.Equal(t, "shoes", first.Get("q"))

	assert.Equal(t, "c1", e.requests[1].query.Get("forward_cursor"))
	assert.Equal(t, "t1", e.requests[1].query.Get("collation_token"))
	assert.Equal(t, "c2", e.requests[2].query.Get("forward_cursor"))
	assert.Equal(t, "t2", e.requests[2].query.Get("collation_token"))

	for _, r := range e.requests {
		assert.Equal(t, "__a=1&lsd=abc", r.body)
		assert.Equal(t, "c_user=1", r.header.Get("Cookie"))
		assert.Equal(t, "abc", r.header.Get("X-Fb-Lsd"))
		assert.Equal(t, "application/x-www-form-urlencoded", r.header.Get("Content-Type"))
	}
}

func TestFetchAll_StopsOnEmptyResults(t *testing.T) {
	e := &fakeEndpoint{bodies: []string{
		`for (;;);{"payload":{"results":[{"adid":"1"}],"forwardCursor":"c1"}}`,
		`for (;;);{"payload":{"results":[],"forwardCursor":"c2"}}`,
	}}
	f := newFetcher(t, e)

	records, err := f.FetchAll(context.Background(), newRequest(), nil, nil, "shoes")
	require.NoError(t, err)
	assert.Len(t, records, 1)
	assert.Len(t, e.requests, 2)
}

func TestFetchAll_StopsOnMissingPayload(t *testing.T) {
	e := &fakeEndpoint{bodies: []string{`for (;;);{"error":1357001}`}}
	f := newFetcher(t, e)

	records, err := f.FetchAll(context.Background(), newRequest(), nil, nil, "shoes")
	require.NoError(t, err)
	assert.Empty(t, records)
	assert.Len(t, e.requests, 1)
}

func TestFetchAll_StopsWithoutCursor(t *testing.T) {
	e := &fakeEndpoint{bodies: []string{
		`for (;;);{"payload":{"results":[{"adid":"1"}],"forwardCursor":null,"collationToken":"t1"}}`,
	}}
	f := newFetcher(t, e)

	records, err := f.FetchAll(context.Background(), newRequest(), nil, nil, "shoes")
	require.NoError(t, err)
	assert.Len(t, records, 1)
	assert.Len(t, e.requests, 1)
}

func TestFetchAll_DecodeFailureKeepsPartialResults(t *testing.T) {
	e := &fakeEndpoint{bodies: []string{
		`for (;;);{"payload":{"results":[{"adid":"1"},{"adid":"2"}],"forwardCursor":"c1"}}`,
		`for (;;);<html>login required</html>`,
	}}
	f := newFetcher(t, e)

	records, err := f.FetchAll(context.Background(), newRequest(), nil, nil, "shoes")
	require.Error(t, err)
	assert.True(t, errors.Is(err, models.ErrDecodeFailure))
	assert.Len(t, records, 2)

	var decodeErr *models.DecodeError
	require.ErrorAs(t, err, &decodeErr)
	assert.Equal(t, 2, decodeErr.Page)
	assert.Equal(t, "shoes", decodeErr.Label)
	assert.Contains(t, decodeErr.Excerpt, "login required")
}

func TestFetchAll_NonOKStatusStillParsed(t *testing.T) {
	e := &fakeEndpoint{
		status: http.StatusInternalServerError,
		bodies: []string{`for (;;);{"payload":{"results":[{"adid":"9"}]}}`},
	}
	f := newFetcher(t, e)

	var reports []fetchers.PageReport
	ctx := fetchers.WithPageObserver(context.Background(), func(r fetchers.PageReport) {
		reports = append(reports, r)
	})

	records, err := f.FetchAll(ctx, newRequest(), nil, nil, "shoes")
	require.NoError(t, err)
	assert.Len(t, records, 1)
	require.Len(t, reports, 1)
	assert.Equal(t, http.StatusInternalServerError, reports[0].StatusCode)
	assert.Equal(t, 1, reports[0].Results)
}

func TestFetchAll_NetworkFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	endpoint := srv.URL
	srv.Close()

	f := fetchers.NewAdLibraryFetcher(endpoint, 0, time.Second, logger.NewNop())
	records, err := f.FetchAll(context.Background(), newRequest(), nil, nil, "shoes")
	require.Error(t, err)
	assert.True(t, errors.Is(err, models.ErrNetworkFailure))
	assert.Empty(t, records)
}

func TestFetchAll_WaitsBetweenPages(t *testing.T) {
	e := &fakeEndpoint{bodies: []string{
		`for (;;);{"payload":{"results":[{"adid":"1"}],"forwardCursor":"c1"}}`,
		`for (;;);{"payload":{"results":[{"adid":"2"}]}}`,
	}}
	srv := httptest.NewServer(e)
	defer srv.Close()

	delay := 50 * time.Millisecond
	f := fetchers.NewAdLibraryFetcher(srv.URL, delay, time.Second, logger.NewNop())

	start := time.Now()
	records, err := f.FetchAll(context.Background(), newRequest(), nil, nil, "shoes")
	require.NoError(t, err)
	assert.Len(t, records, 2)
	assert.GreaterOrEqual(t, time.Since(start), delay)
}

func TestFetchAll_ContextCancelledDuringDelay(t *testing.T) {
	e := &fakeEndpoint{bodies: []string{
		`for (;;);{"payload":{"results":[{"adid":"1"}],"forwardCursor":"c1"}}`,
	}}
	srv := httptest.NewServer(e)
	defer srv.Close()

	f := fetchers.NewAdLibraryFetcher(srv.URL, time.Hour, time.Second, logger.NewNop())

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	records, err := f.FetchAll(ctx, newRequest(), nil, nil, "shoes")
	require.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Len(t, records, 1)
}

func TestFetchAll_GroupedEntries(t *testing.T) {
	e := &fakeEndpoint{bodies: []string{
		`for (;;);{"payload":{"results":[[{"adid":"1"},{"adid":"2"}],{"adid":"3"}]}}`,
	}}
	f := newFetcher(t, e)

	records, err := f.FetchAll(context.Background(), newRequest(), nil, nil, "shoes")
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.True(t, records[0].IsGroup())
	assert.Len(t, records[0].Group, 2)
	assert.False(t, records[1].IsGroup())
}

func TestSessionHeaders(t *testing.T) {
	h := fetchers.SessionHeaders(models.Session{Cookie: "a=b", ASBDID: "129477"})
	assert.Equal(t, "a=b", h.Get("Cookie"))
	assert.Equal(t, "129477", h.Get("X-Asbd-Id"))
	assert.Equal(t, fetchers.DefaultUserAgent, h.Get("User-Agent"))
	assert.Empty(t, h.Get("X-Fb-Lsd"))
}

func TestTruncateString(t *testing.T) {
	assert.Equal(t, "short", fetchers.TruncateString("short", 10))
	assert.Equal(t, "abcdefg...", fetchers.TruncateString("abcdefghijklmnop", 10))
}
