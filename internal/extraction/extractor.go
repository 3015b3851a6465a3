package extraction

import (
	"bytes"
	"fmt"
	"image"
	"math"
	"sort"

	"github.com/ledongthuc/pdf"

	"github.com/jonathan/doc-auditor/internal/types"
)

// lineTolerance is the vertical distance (points) within which two text
// spans are considered part of the same line.
const lineTolerance = 2.0

// EmbeddedImage is a raster image recovered from the document. Page 0 means
// the owning page could not be determined.
type EmbeddedImage struct {
	Page  int
	Image image.Image
}

// Result is the full extractor output for one document.
type Result struct {
	Fragments    []types.PageFragment
	Colors       []types.PageColors
	Images       []EmbeddedImage
	TotalPages   int
	SkippedPages []int
}

// Extract walks every page of the PDF and returns positioned text fragments,
// per-page draw colors, and best-effort embedded raster images. A byte
// stream that is not a valid PDF is a fatal error; a single page that fails
// to parse is skipped and recorded in SkippedPages.
func Extract(pdfBytes []byte) (*Result, error) {
	reader, err := pdf.NewReader(bytes.NewReader(pdfBytes), int64(len(pdfBytes)))
	if err != nil {
		return nil, &InvalidPDFError{Message: "failed to open document", Cause: err}
	}

	result := &Result{TotalPages: reader.NumPage()}
	if result.TotalPages == 0 {
		return nil, &InvalidPDFError{Message: "document has no pages"}
	}

	for pageNum := 1; pageNum <= result.TotalPages; pageNum++ {
		fragments, colors, err := extractPage(reader, pageNum)
		if err != nil {
			// Partial-data failure: skip the page, keep going.
			result.SkippedPages = append(result.SkippedPages, pageNum)
			continue
		}
		result.Fragments = append(result.Fragments, fragments...)
		if colors != nil {
			result.Colors = append(result.Colors, *colors)
		}
	}

	if len(result.Fragments) == 0 && len(result.SkippedPages) == result.TotalPages {
		return nil, &EmptyDocumentError{TotalPages: result.TotalPages}
	}

	result.Images = scanEmbeddedImages(pdfBytes)
	return result, nil
}

// extractPage parses a single page. The underlying parser panics on some
// malformed content streams, so the recovery here is what turns a bad page
// into a skip instead of a dead run.
func extractPage(reader *pdf.Reader, pageNum int) (fragments []types.PageFragment, colors *types.PageColors, err error) {
	defer func() {
		if r := recover(); r != nil {
			fragments, colors = nil, nil
			err = fmt.Errorf("page %d: content stream parse panic: %v", pageNum, r)
		}
	}()

	page := reader.Page(pageNum)
	if page.V.IsNull() {
		return nil, nil, fmt.Errorf("page %d: null page object", pageNum)
	}

	fragments = buildFragments(pageNum, page.Content().Text)
	colors = scanPageColors(pageNum, page)
	return fragments, colors, nil
}

// buildFragments groups raw text spans into line-level fragments: spans on
// the same baseline with the same font and size merge left to right.
func buildFragments(pageNum int, texts []pdf.Text) []types.PageFragment {
	if len(texts) == 0 {
		return nil
	}

	sorted := make([]pdf.Text, len(texts))
	copy(sorted, texts)
	sort.SliceStable(sorted, func(i, j int) bool {
		if math.Abs(sorted[i].Y-sorted[j].Y) > lineTolerance {
			return sorted[i].Y > sorted[j].Y // PDF origin is bottom-left; read top-down
		}
		return sorted[i].X < sorted[j].X
	})

	var fragments []types.PageFragment
	var run []pdf.Text
	flush := func() {
		if len(run) == 0 {
			return
		}
		fragments = append(fragments, mergeRun(pageNum, len(fragments), run))
		run = run[:0]
	}

	for _, t := range sorted {
		if t.S == "" {
			continue
		}
		if len(run) > 0 {
			prev := run[len(run)-1]
			sameLine := math.Abs(prev.Y-t.Y) <= lineTolerance
			sameStyle := prev.Font == t.Font && prev.FontSize == t.FontSize
			if !sameLine || !sameStyle {
				flush()
			}
		}
		run = append(run, t)
	}
	flush()

	return fragments
}

func mergeRun(pageNum, index int, run []pdf.Text) types.PageFragment {
	var text bytes.Buffer
	x0, y0 := run[0].X, run[0].Y
	x1, y1 := run[0].X+run[0].W, run[0].Y+run[0].FontSize
	for _, t := range run {
		text.WriteString(t.S)
		x0 = math.Min(x0, t.X)
		x1 = math.Max(x1, t.X+t.W)
		y0 = math.Min(y0, t.Y)
		y1 = math.Max(y1, t.Y+t.FontSize)
	}

	bbox := [4]float64{x0, y0, x1, y1}
	font := run[0].Font
	size := run[0].FontSize
	return types.PageFragment{
		ID:       types.FragmentID(pageNum, index),
		Page:     pageNum,
		Text:     text.String(),
		BBox:     &bbox,
		FontSize: &size,
		FontName: &font,
	}
}
