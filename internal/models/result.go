package models

import "time"

// CanonicalRecord is the flat, normalized form of one ad.
// Every field carries a safe default; empty dates mean the value was absent
// or could not be parsed.
type CanonicalRecord struct {
	AdID             string `json:"adid"`
	PageID           string `json:"pageid"`
	PageName         string `json:"pagename"`
	LinkURL          string `json:"link_url"`
	Body             string `json:"body"`
	BodyText         string `json:"body_text"`
	CTAText          string `json:"cta_text"`
	Title            string `json:"title"`
	OriginalImageURL string `json:"original_image_url"`
	OriginalVideoURL string `json:"original_video_url"`
	Caption          string `json:"caption"`
	CreationTime     string `json:"creation_time,omitempty"`
	EndDate          string `json:"end_date,omitempty"`
	CollationCount   int    `json:"collationCount"`
	DisplayFormat    string `json:"display_format"`
	LinkDescription  string `json:"link_description"`
	Domain           string `json:"domain"`
	Keywords         string `json:"keywords"`
	Atxt             string `json:"atxt"`
}

// ItemResult is the outcome of paginating one batch item.
type ItemResult struct {
	Item        string
	RawCount    int
	Pages       int
	StatusCodes []int
	Error       error
	Duration    time.Duration
}

func NewItemResult(item string) *ItemResult {
	return &ItemResult{
		Item:        item,
		StatusCodes: make([]int, 0),
	}
}

// OK reports whether the item finished without error.
func (r *ItemResult) OK() bool {
	return r.Error == nil
}
