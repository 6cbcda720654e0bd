package models

import (
	"bytes"
	"encoding/json"
)

// RawRecord is one entry of a page's result list: either a single ad or a
// collated group of entries.
type RawRecord struct {
	Ad    map[string]any
	Group []RawRecord
}

// IsGroup reports whether the entry is a collated group.
func (r RawRecord) IsGroup() bool {
	return r.Group != nil
}

// UnmarshalJSON decodes arrays as groups and objects as ads. Numbers are kept
// as json.Number. Any other JSON value becomes an empty ad.
func (r *RawRecord) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		*r = RawRecord{}
		return nil
	}

	switch trimmed[0] {
	case '[':
		group := make([]RawRecord, 0)
		if err := json.Unmarshal(trimmed, &group); err != nil {
			return err
		}
		*r = RawRecord{Group: group}
	case '{':
		dec := json.NewDecoder(bytes.NewReader(trimmed))
		dec.UseNumber()
		var ad map[string]any
		if err := dec.Decode(&ad); err != nil {
			return err
		}
		*r = RawRecord{Ad: ad}
	default:
		*r = RawRecord{}
	}
	return nil
}

// Page is one decoded search response.
type Page struct {
	Results        []RawRecord
	ForwardCursor  string
	CollationToken string
}

// Terminal reports whether the page ends the cursor chain.
func (p *Page) Terminal() bool {
	return p.ForwardCursor == ""
}
