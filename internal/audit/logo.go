package audit

import (
	"context"
	"fmt"
	"image"
	"math"
	"path/filepath"

	xdraw "golang.org/x/image/draw"

	"github.com/jonathan/doc-auditor/internal/types"
)

// defaultLogoConfidence is the minimum normalized cross-correlation score
// for a reference logo to count as present.
const defaultLogoConfidence = 0.8

// matchScales are the template scales tried against each page image, to
// absorb resolution differences between the reference asset and the
// document's embedded raster.
var matchScales = []float64{0.5, 0.75, 1.0, 1.25, 1.5}

// maxMatchDimension bounds the page-image size fed to the correlation loop;
// larger images are downscaled proportionally first.
const maxMatchDimension = 256

// LogoAuditor verifies brand-mark presence via multi-scale normalized
// cross-correlation against the policy's reference images.
type LogoAuditor struct{}

// NewLogoAuditor creates the logo auditor.
func NewLogoAuditor() *LogoAuditor {
	return &LogoAuditor{}
}

// Name implements Auditor.
func (a *LogoAuditor) Name() string {
	return NameLogo
}

// Run matches every reference against every available page image. A match
// at or above the confidence threshold on an expected page passes; absence
// is a high-severity finding and presence on the wrong page a medium one.
func (a *LogoAuditor) Run(ctx context.Context, in *Input) (*Result, error) {
	references := in.Policy.Logo.References
	if len(references) == 0 {
		return &Result{Summary: map[string]any{"references": 0}}, nil
	}

	confidence := in.Policy.Logo.Confidence
	if confidence == 0 {
		confidence = defaultLogoConfidence
	}
	expected := in.Policy.Logo.ExpectedPages

	var findings []types.Finding
	scores := map[string]float64{}

	for _, ref := range references {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if ref.Image == nil {
			return nil, fmt.Errorf("logo reference %s has no decoded image", ref.Path)
		}

		best := a.bestMatch(ctx, ref.Image, in.Images)
		refName := referenceName(ref.Path)
		scores[refName] = best.score

		switch {
		case best.score >= confidence && pageSatisfies(best.page, expected):
			// Present where expected.
		case best.score >= confidence:
			f := types.NewFinding(
				types.CategoryLogo,
				"logo_placement",
				fmt.Sprintf("logo %s found on page %d, expected on page(s) %v", refName, best.page, expected),
				types.SeverityMedium,
				types.Location{Page: maxInt(best.page, 1)},
			)
			f.Suggestion = "Move the logo to the expected cover/footer position."
			f.Evidence = []types.Evidence{{Kind: types.EvidenceImage, Data: map[string]any{
				"reference":      refName,
				"score":          best.score,
				"matched_page":   best.page,
				"expected_pages": expected,
			}}}
			findings = append(findings, f)
		default:
			f := types.NewFinding(
				types.CategoryLogo,
				"logo_missing",
				fmt.Sprintf("logo %s not found in document (best score %.2f, threshold %.2f)", refName, best.score, confidence),
				types.SeverityHigh,
				types.Location{Page: firstExpectedPage(expected)},
			)
			f.Suggestion = "Place the brand logo on the cover page."
			f.Evidence = []types.Evidence{{Kind: types.EvidenceImage, Data: map[string]any{
				"reference":  refName,
				"best_score": best.score,
				"threshold":  confidence,
			}}}
			findings = append(findings, f)
		}
	}

	return &Result{
		Findings: findings,
		Summary: map[string]any{
			"references":  len(references),
			"best_scores": scores,
			"page_images": len(in.Images),
		},
	}, nil
}

type match struct {
	score float64
	page  int
}

func (a *LogoAuditor) bestMatch(ctx context.Context, reference image.Image, pages []PageImage) match {
	best := match{}
	refGray := toGray(reference)

	for _, page := range pages {
		if ctx.Err() != nil {
			return best
		}
		pageGray := downscale(toGray(page.Image), maxMatchDimension)

		for _, scale := range matchScales {
			w := int(float64(refGray.Bounds().Dx()) * scale)
			h := int(float64(refGray.Bounds().Dy()) * scale)
			if w < 4 || h < 4 || w > pageGray.Bounds().Dx() || h > pageGray.Bounds().Dy() {
				continue
			}
			template := resizeGray(refGray, w, h)
			score := maxNormalizedCrossCorrelation(pageGray, template)
			if score > best.score {
				best = match{score: score, page: page.Page}
			}
		}
	}
	return best
}

// pageSatisfies treats unknown pages (0) as satisfying any expectation:
// embedded-image extraction cannot always attribute a page, and a placement
// complaint needs positive evidence of the wrong page.
func pageSatisfies(page int, expected []int) bool {
	if len(expected) == 0 || page == 0 {
		return true
	}
	for _, p := range expected {
		if p == page {
			return true
		}
	}
	return false
}

func firstExpectedPage(expected []int) int {
	if len(expected) > 0 && expected[0] > 0 {
		return expected[0]
	}
	return 1
}

func referenceName(path string) string {
	if path == "" {
		return "reference"
	}
	return filepath.Base(path)
}

func toGray(img image.Image) *image.Gray {
	if gray, ok := img.(*image.Gray); ok {
		return gray
	}
	bounds := img.Bounds()
	gray := image.NewGray(bounds)
	xdraw.Draw(gray, bounds, img, bounds.Min, xdraw.Src)
	return gray
}

func downscale(img *image.Gray, maxDim int) *image.Gray {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w <= maxDim && h <= maxDim {
		return img
	}
	factor := float64(maxDim) / float64(maxInt(w, h))
	return resizeGray(img, int(float64(w)*factor), int(float64(h)*factor))
}

func resizeGray(img *image.Gray, w, h int) *image.Gray {
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}
	out := image.NewGray(image.Rect(0, 0, w, h))
	xdraw.ApproxBiLinear.Scale(out, out.Bounds(), img, img.Bounds(), xdraw.Src, nil)
	return out
}

// maxNormalizedCrossCorrelation slides the template over the image and
// returns the highest mean-subtracted NCC score, in [-1, 1]. A flat
// (zero-variance) window never matches.
func maxNormalizedCrossCorrelation(img, template *image.Gray) float64 {
	iw, ih := img.Bounds().Dx(), img.Bounds().Dy()
	tw, th := template.Bounds().Dx(), template.Bounds().Dy()
	if tw > iw || th > ih || tw == 0 || th == 0 {
		return 0
	}

	tMean := grayMean(template, 0, 0, tw, th)
	tDiff := make([]float64, tw*th)
	tNorm := 0.0
	for y := 0; y < th; y++ {
		for x := 0; x < tw; x++ {
			d := float64(template.GrayAt(x, y).Y) - tMean
			tDiff[y*tw+x] = d
			tNorm += d * d
		}
	}
	if tNorm == 0 {
		return 0
	}

	// Stride 2 keeps the search tractable; logo placement does not need
	// pixel-exact registration at these resolutions.
	const stride = 2
	best := 0.0
	for oy := 0; oy+th <= ih; oy += stride {
		for ox := 0; ox+tw <= iw; ox += stride {
			wMean := grayMean(img, ox, oy, tw, th)
			num, wNorm := 0.0, 0.0
			for y := 0; y < th; y++ {
				for x := 0; x < tw; x++ {
					d := float64(img.GrayAt(ox+x, oy+y).Y) - wMean
					num += d * tDiff[y*tw+x]
					wNorm += d * d
				}
			}
			if wNorm == 0 {
				continue
			}
			score := num / math.Sqrt(wNorm*tNorm)
			if score > best {
				best = score
			}
		}
	}
	return best
}

func grayMean(img *image.Gray, ox, oy, w, h int) float64 {
	sum := 0.0
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			sum += float64(img.GrayAt(ox+x, oy+y).Y)
		}
	}
	return sum / float64(w*h)
}
