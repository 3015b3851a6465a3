package extraction

import (
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/jonathan/doc-auditor/internal/types"
)

// scanPageColors tokenizes the page's content streams and records every
// color-setting operator. Colors set between BT/ET are attributed to text;
// outside they are vector fill or stroke colors. Unsupported stream filters
// make this a best-effort pass: a page with no readable content stream
// simply reports no colors.
func scanPageColors(pageNum int, page pdf.Page) *types.PageColors {
	content := readContentStreams(page)
	if len(content) == 0 {
		return nil
	}

	colors := &types.PageColors{Page: pageNum}
	seen := map[*[]string]map[string]bool{}
	add := func(bucket *[]string, hex string) {
		if seen[bucket] == nil {
			seen[bucket] = map[string]bool{}
		}
		if seen[bucket][hex] {
			return
		}
		seen[bucket][hex] = true
		*bucket = append(*bucket, hex)
	}

	var stack []float64
	inText := false
	for _, tok := range strings.Fields(string(content)) {
		if n, err := strconv.ParseFloat(tok, 64); err == nil {
			stack = append(stack, n)
			continue
		}
		switch tok {
		case "BT":
			inText = true
		case "ET":
			inText = false
		case "rg", "RG":
			if r, g, b, ok := popRGB(stack); ok {
				target := fillBucket(colors, inText, tok == "RG")
				add(target, rgbToHex(r, g, b))
			}
		case "g", "G":
			if v, ok := popN(stack, 1); ok {
				target := fillBucket(colors, inText, tok == "G")
				add(target, rgbToHex(v[0], v[0], v[0]))
			}
		case "k", "K":
			if v, ok := popN(stack, 4); ok {
				r, g, b := cmykToRGB(v[0], v[1], v[2], v[3])
				target := fillBucket(colors, inText, tok == "K")
				add(target, rgbToHex(r, g, b))
			}
		}
		stack = stack[:0]
	}

	if len(colors.Text) == 0 && len(colors.Fill) == 0 && len(colors.Stroke) == 0 {
		return nil
	}
	return colors
}

func fillBucket(colors *types.PageColors, inText, stroking bool) *[]string {
	switch {
	case inText:
		return &colors.Text
	case stroking:
		return &colors.Stroke
	default:
		return &colors.Fill
	}
}

func popRGB(stack []float64) (r, g, b float64, ok bool) {
	v, ok := popN(stack, 3)
	if !ok {
		return 0, 0, 0, false
	}
	return v[0], v[1], v[2], true
}

func popN(stack []float64, n int) ([]float64, bool) {
	if len(stack) < n {
		return nil, false
	}
	return stack[len(stack)-n:], true
}

// rgbToHex converts unit-range components to an uppercase #RRGGBB string.
func rgbToHex(r, g, b float64) string {
	return fmt.Sprintf("#%02X%02X%02X", clamp255(r), clamp255(g), clamp255(b))
}

func clamp255(v float64) int {
	scaled := int(math.Round(v * 255))
	if scaled < 0 {
		return 0
	}
	if scaled > 255 {
		return 255
	}
	return scaled
}

func cmykToRGB(c, m, y, k float64) (r, g, b float64) {
	r = (1 - c) * (1 - k)
	g = (1 - m) * (1 - k)
	b = (1 - y) * (1 - k)
	return r, g, b
}

// readContentStreams concatenates the decoded content stream(s) of a page.
// Filter support comes from the parser; anything it cannot decode panics and
// is caught by the page-level recovery in extractPage.
func readContentStreams(page pdf.Page) []byte {
	contents := page.V.Key("Contents")
	switch contents.Kind() {
	case pdf.Stream:
		return readStream(contents)
	case pdf.Array:
		var combined []byte
		for i := 0; i < contents.Len(); i++ {
			combined = append(combined, readStream(contents.Index(i))...)
			combined = append(combined, '\n')
		}
		return combined
	default:
		return nil
	}
}

func readStream(v pdf.Value) []byte {
	if v.Kind() != pdf.Stream {
		return nil
	}
	reader := v.Reader()
	defer func() { _ = reader.Close() }()
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil
	}
	return data
}
