// Copyright (c) 2026 Quill. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package convert turns loosely typed text (query parameters, comma lists)
into Go values without surfacing parse errors.

Use it only where a malformed value and a missing one deserve the same
fallback.
*/
package convert

import (
	"strconv"
	"strings"
)

// IntOr parses raw as an int, returning fallback when raw is empty or invalid.
func IntOr(raw string, fallback int) int {
	if raw == "" {
		return fallback
	}

	if v, err := strconv.Atoi(raw); err == nil {
		return v
	}

	return fallback
}

// List splits a comma-separated value, trimming entries and dropping empty ones.
func List(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
