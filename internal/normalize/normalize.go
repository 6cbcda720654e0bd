// Package normalize flattens raw ad library results into canonical records.
package normalize

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/farhapartex/adlibrary-proxy/internal/models"
)

// Normalize converts raw entries into canonical records. Groups are expanded
// depth first in place, so output order follows input order. It never fails:
// missing or malformed fields fall back to their defaults.
//
// Children of a group report only their own fields; group-level metadata is
// not copied onto them.
func Normalize(raw []models.RawRecord) []models.CanonicalRecord {
	out := make([]models.CanonicalRecord, 0, len(raw))
	for _, r := range raw {
		out = appendRecord(out, r)
	}
	return out
}

func appendRecord(out []models.CanonicalRecord, r models.RawRecord) []models.CanonicalRecord {
	if r.IsGroup() {
		for _, child := range r.Group {
			out = appendRecord(out, child)
		}
		return out
	}
	return append(out, Single(r.Ad))
}

// Single normalizes one ad.
func Single(ad map[string]any) models.CanonicalRecord {
	snapshot := mapField(ad, "snapshot")
	c := selectContent(snapshot)

	linkURL := c.LinkURL()
	body := c.Body()

	return models.CanonicalRecord{
		AdID:             stringField(ad, "adid"),
		PageID:           stringField(ad, "pageID"),
		PageName:         stringField(ad, "pageName"),
		LinkURL:          linkURL,
		Body:             body,
		BodyText:         plainText(body),
		CTAText:          c.CTAText(),
		Title:            c.Title(),
		OriginalImageURL: c.ImageURL(),
		OriginalVideoURL: c.VideoURL(),
		Caption:          stringField(snapshot, "caption"),
		CreationTime:     epochDate(valueOf(snapshot, "creation_time")),
		EndDate:          epochDate(valueOf(ad, "endDate")),
		CollationCount:   intField(ad, "collationCount"),
		DisplayFormat:    stringField(snapshot, "display_format"),
		LinkDescription:  c.LinkDescription(),
		Domain:           Domain(linkURL),
		Keywords:         QueryValue(linkURL, "sqs"),
		Atxt:             QueryValue(linkURL, "atxt"),
	}
}

// VariantOf reports which snapshot shape an ad uses.
func VariantOf(ad map[string]any) Variant {
	return selectContent(mapField(ad, "snapshot")).Variant()
}

// Domain returns the host of rawURL, or "" when it cannot be parsed.
func Domain(rawURL string) string {
	if rawURL == "" {
		return ""
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return u.Host
}

// QueryValue returns the first value of key in rawURL's query string.
func QueryValue(rawURL, key string) string {
	if rawURL == "" {
		return ""
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	// Malformed pairs are skipped; the well-formed ones are still returned.
	values, _ := url.ParseQuery(u.RawQuery)
	return values.Get(key)
}

func valueOf(m map[string]any, key string) any {
	if m == nil {
		return nil
	}
	return m[key]
}

// plainText strips markup from an ad body.
func plainText(markup string) string {
	if !strings.ContainsAny(markup, "<&") {
		return markup
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		return markup
	}
	return strings.TrimSpace(doc.Text())
}
