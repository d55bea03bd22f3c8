// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package pagination parses page/limit query parameters and builds the
// "meta" block of list responses.
package pagination

import (
	"net/http"
	"strconv"
)

const (
	DefaultPage  = 1
	DefaultLimit = 20
	MaxLimit     = 100
)

// Params is a 1-indexed page request.
type Params struct {
	Page  int
	Limit int
}

// Offset returns the SQL OFFSET for the page.
func (p Params) Offset() int {
	if p.Page <= 1 {
		return 0
	}
	return (p.Page - 1) * p.Limit
}

// Window returns the [start, end) bounds of the page within a collection of
// total items. Pages past the end yield an empty window.
func (p Params) Window(total int) (int, int) {
	start := min(p.Offset(), total)
	return start, min(start+p.Limit, total)
}

// Meta is serialised next to "data" in paginated responses.
type Meta struct {
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	Total      int `json:"total"`
	TotalPages int `json:"total_pages"`
}

// NewMeta derives TotalPages from total and limit.
func NewMeta(page, limit, total int) Meta {
	meta := Meta{Page: page, Limit: limit, Total: total}
	if limit > 0 {
		meta.TotalPages = (total + limit - 1) / limit
	}
	return meta
}

/*
FromRequest reads "page" and "limit" from the query string.

Description: Missing or unparsable values fall back to the defaults. A page
below 1 becomes [DefaultPage]; a limit outside 1..[MaxLimit] becomes
[DefaultLimit].
*/
func FromRequest(request *http.Request) Params {
	query := request.URL.Query()

	page := queryInt(query.Get("page"), DefaultPage)
	if page < 1 {
		page = DefaultPage
	}

	limit := queryInt(query.Get("limit"), DefaultLimit)
	if limit < 1 || limit > MaxLimit {
		limit = DefaultLimit
	}

	return Params{Page: page, Limit: limit}
}

func queryInt(raw string, fallback int) int {
	value, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return value
}
