// Package types provides type definitions for structured data used throughout the doc-auditor system.
//
//nolint:revive // types is a standard Go package name pattern
package types

import "fmt"

// PageFragment is a unit of extracted PDF text with position and font metadata.
// Fragments are produced once per document by the extractor and are read-only
// input to every auditor; pages are 1-indexed.
type PageFragment struct {
	ID       string      `json:"id"`
	Page     int         `json:"page"`
	Text     string      `json:"text"`
	BBox     *[4]float64 `json:"bbox,omitempty"`      // [x0, y0, x1, y1]
	FontSize *float64    `json:"font_size,omitempty"` // Points
	FontName *string     `json:"font_name,omitempty"`
}

// PageColors carries the hex colors observed on a single page, split by the
// drawing operation that produced them. Auxiliary extractor output consumed
// by the color palette auditor.
type PageColors struct {
	Page   int      `json:"page"`
	Text   []string `json:"text,omitempty"`
	Fill   []string `json:"fill,omitempty"`
	Stroke []string `json:"stroke,omitempty"`
}

// FragmentID builds a stable fragment identifier from page and span index.
// Stable across repeated extractions of the same document.
func FragmentID(page, index int) string {
	return fmt.Sprintf("p%d-f%d", page, index)
}
