package audit

import (
	"github.com/jonathan/doc-auditor/internal/types"
)

// frag builds a minimal text fragment for auditor tests.
func frag(page, index int, text string) types.PageFragment {
	return types.PageFragment{
		ID:   types.FragmentID(page, index),
		Page: page,
		Text: text,
	}
}

// styledFrag adds position and font metadata for typography and format tests.
func styledFrag(page, index int, text string, bbox [4]float64, fontSize float64, fontName string) types.PageFragment {
	f := frag(page, index, text)
	f.BBox = &bbox
	f.FontSize = types.FloatPtr(fontSize)
	if fontName != "" {
		f.FontName = types.StrPtr(fontName)
	}
	return f
}

// inputWith wraps fragments in an Input with the given policy.
func inputWith(policy types.Policy, fragments ...types.PageFragment) *Input {
	pages := 0
	for _, f := range fragments {
		if f.Page > pages {
			pages = f.Page
		}
	}
	return &Input{Fragments: fragments, Policy: &policy, TotalPages: pages}
}
