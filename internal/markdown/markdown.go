// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package markdown converts post bodies from Markdown to sanitized
// HTML.
package markdown

import (
	"bytes"
	"fmt"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

// Both values are safe for concurrent use once constructed.
var (
	engine = goldmark.New(
		goldmark.WithExtensions(extension.GFM),
	)
	policy = bluemonday.UGCPolicy()
)

// ToHTML renders Markdown to HTML and sanitizes the result with the
// UGC policy. Author input is treated as untrusted.
func ToHTML(source string) (string, error) {
	var buf bytes.Buffer
	if err := engine.Convert([]byte(source), &buf); err != nil {
		return "", fmt.Errorf("rendering markdown: %w", err)
	}
	return policy.Sanitize(buf.String()), nil
}
