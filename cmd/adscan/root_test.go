package main

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/farhapartex/adlibrary-proxy/internal/config"
	"github.com/farhapartex/adlibrary-proxy/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestBuildBatchRequest(t *testing.T) {
	dir := t.TempDir()
	formPath := filepath.Join(dir, "body.json")
	require.NoError(t, os.WriteFile(formPath, []byte(`{"lsd": "tok", "__a": 1}`), 0o600))

	cfg := &config.Config{
		AdLibrary:   config.AdLibraryConfig{SessionID: "s", Country: "US", Version: "v", Cookie: "c"},
		Performance: config.PerformanceConfig{PageSize: 30},
	}
	opts := &options{
		mode:       "page",
		items:      "1, 2,,3",
		status:     "Active",
		country:    "CA",
		start:      "2024-01-01",
		end:        "2024-01-31",
		formFile:   formPath,
		formFormat: "json",
	}

	req, err := buildBatchRequest(cfg, opts)
	require.NoError(t, err)

	assert.Equal(t, models.ModePageID, req.Mode)
	assert.Equal(t, []string{"1", "2", "3"}, req.Items)
	assert.Equal(t, "Active", req.Filters.Status)
	assert.Equal(t, "CA", req.Filters.Country)
	assert.Equal(t, "2024-01-31", req.Filters.EndDate.Format(models.DateLayout))
	assert.Equal(t, "tok", req.Form.Get("lsd"))
	assert.Equal(t, "c", req.Session.Cookie)
}

func TestBuildBatchRequest_Errors(t *testing.T) {
	cfg := &config.Config{}

	_, err := buildBatchRequest(cfg, &options{mode: "nope", items: "a", start: "2024-01-01", end: "2024-01-02"})
	assert.Error(t, err)

	_, err = buildBatchRequest(cfg, &options{mode: "keyword", items: " , ", start: "2024-01-01", end: "2024-01-02"})
	assert.Error(t, err)

	_, err = buildBatchRequest(cfg, &options{mode: "keyword", items: "a", start: "yesterday", end: "2024-01-02"})
	assert.Error(t, err)

	_, err = buildBatchRequest(cfg, &options{mode: "keyword", items: "a", start: "2024-01-01", end: "2024-01-02", formFormat: "xml"})
	assert.Error(t, err)
}

func TestRootCmd_RunsBatchAndExports(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`for (;;);{"payload":{"results":[
			{"adid":"1","pageName":"Shop","collationCount":3,"endDate":1709856000,
			 "snapshot":{"link_url":"https://x.com/p?sqs=k1","title":"Sale","creation_time":1709251200}}
		]}}`))
	}))
	defer upstream.Close()

	t.Setenv("AD_LIBRARY_ENDPOINT", upstream.URL)
	t.Setenv("PAGE_DELAY_MS", "0")
	t.Setenv("LOG_LEVEL", "error")

	outPath := filepath.Join(t.TempDir(), "ads.xlsx")

	var stdout bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&stdout)
	cmd.SetArgs([]string{"--mode", "keyword", "--items", "shoes", "--start", "2024-03-01", "--end", "2024-03-31", "--out", outPath})

	require.NoError(t, cmd.Execute())

	assert.Contains(t, stdout.String(), "shoes")
	assert.Contains(t, stdout.String(), "x.com")
	assert.Contains(t, stdout.String(), "Wrote 1 records")

	f, err := excelize.OpenFile(outPath)
	require.NoError(t, err)
	defer f.Close()

	title, err := f.GetCellValue("Ads", "C2")
	require.NoError(t, err)
	assert.Equal(t, "Sale", title)

	days, err := f.GetCellValue("Ads", "E2")
	require.NoError(t, err)
	assert.Equal(t, "7", days)
}
