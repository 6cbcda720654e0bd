// Package formbody turns the user-supplied request body into form values.
package formbody

import (
	"encoding/json"
	"fmt"
	"net/url"
	"sort"
	"strings"

	"github.com/mitchellh/mapstructure"
)

// Format names how the form text is encoded.
type Format string

const (
	FormatJSON       Format = "json"
	FormatURLEncoded Format = "urlencoded"
)

// ParseFormat accepts "json", "urlencoded" and "url-encoded" in any case.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "json", "":
		return FormatJSON, nil
	case "urlencoded", "url-encoded", "form":
		return FormatURLEncoded, nil
	default:
		return "", fmt.Errorf("unknown form format %q", s)
	}
}

// Parse decodes text in the given format. Empty text yields empty values.
func Parse(format Format, text string) (url.Values, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return url.Values{}, nil
	}

	switch format {
	case FormatJSON:
		var raw map[string]any
		if err := json.Unmarshal([]byte(text), &raw); err != nil {
			return nil, fmt.Errorf("invalid JSON form body: %w", err)
		}
		return FromMap(raw)
	case FormatURLEncoded:
		parsed, err := url.ParseQuery(text)
		if err != nil {
			return nil, fmt.Errorf("invalid URL-encoded form body: %w", err)
		}
		// Later duplicates win, matching a plain key/value mapping.
		values := url.Values{}
		for key, vals := range parsed {
			values.Set(key, vals[len(vals)-1])
		}
		return values, nil
	default:
		return nil, fmt.Errorf("unknown form format %q", format)
	}
}

// FromMap converts a decoded mapping into form values. Scalar values are
// weakly converted to strings; nested values are rejected.
func FromMap(raw map[string]any) (url.Values, error) {
	flat := make(map[string]string, len(raw))
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           &flat,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create decoder: %w", err)
	}
	if err := decoder.Decode(raw); err != nil {
		return nil, fmt.Errorf("form body values must be scalars: %w", err)
	}

	values := url.Values{}
	for key, v := range flat {
		values.Set(key, v)
	}
	return values, nil
}

// Keys returns the sorted field names, for logging without leaking values.
func Keys(values url.Values) []string {
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
