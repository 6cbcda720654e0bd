package fetchers

import (
	"net/http"

	"github.com/farhapartex/adlibrary-proxy/internal/models"
)

// DefaultUserAgent is sent when the session does not name one.
const DefaultUserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36"

// SessionHeaders builds the browser-like header set for a session. The
// cookie and tokens are passed through untouched.
func SessionHeaders(s models.Session) http.Header {
	h := http.Header{}
	h.Set("Accept", "*/*")
	h.Set("Accept-Language", "en-US,en;q=0.9")
	h.Set("Cache-Control", "no-cache")
	h.Set("Content-Type", "application/x-www-form-urlencoded")
	h.Set("Origin", "https://www.facebook.com")
	h.Set("Pragma", "no-cache")
	h.Set("Referer", "https://www.facebook.com/ads/library/")
	h.Set("Sec-Fetch-Dest", "empty")
	h.Set("Sec-Fetch-Mode", "cors")
	h.Set("Sec-Fetch-Site", "same-origin")

	ua := s.UserAgent
	if ua == "" {
		ua = DefaultUserAgent
	}
	h.Set("User-Agent", ua)

	if s.Cookie != "" {
		h.Set("Cookie", s.Cookie)
	}
	if s.LSD != "" {
		h.Set("X-Fb-Lsd", s.LSD)
	}
	if s.ASBDID != "" {
		h.Set("X-Asbd-Id", s.ASBDID)
	}
	return h
}
