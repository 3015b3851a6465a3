package audit

import (
	"context"
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/doc-auditor/internal/types"
)

// markImage draws a deterministic high-variance pattern, usable both as a
// reference logo and as the region embedded into a page.
func markImage(w, h int) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetGray(x, y, color.Gray{Y: uint8((x*31 + y*17) % 251)})
		}
	}
	return img
}

// pageWithMark embeds the mark into a larger blank page image at (ox, oy).
func pageWithMark(mark *image.Gray, pageW, pageH, ox, oy int) *image.Gray {
	page := image.NewGray(image.Rect(0, 0, pageW, pageH))
	bounds := mark.Bounds()
	for y := 0; y < bounds.Dy(); y++ {
		for x := 0; x < bounds.Dx(); x++ {
			page.SetGray(ox+x, oy+y, mark.GrayAt(x, y))
		}
	}
	return page
}

func logoPolicy(reference image.Image, confidence float64, expectedPages []int) types.Policy {
	return types.Policy{
		ID: "test",
		Logo: types.LogoPolicy{
			References:    []types.LogoReference{{Path: "assets/brand.png", Image: reference}},
			Confidence:    confidence,
			ExpectedPages: expectedPages,
		},
	}
}

func TestLogo_PresentOnExpectedPage(t *testing.T) {
	mark := markImage(16, 16)
	in := inputWith(logoPolicy(mark, 0.8, []int{1}))
	in.Images = []PageImage{{Page: 1, Image: pageWithMark(mark, 64, 64, 10, 10)}}

	result, err := NewLogoAuditor().Run(context.Background(), in)
	require.NoError(t, err)

	assert.Empty(t, result.Findings)
	scores := result.Summary["best_scores"].(map[string]float64)
	assert.GreaterOrEqual(t, scores["brand.png"], 0.8)
}

func TestLogo_Missing(t *testing.T) {
	mark := markImage(16, 16)
	in := inputWith(logoPolicy(mark, 0.8, []int{1}))
	// A flat page has zero variance everywhere, so nothing can match.
	in.Images = []PageImage{{Page: 1, Image: image.NewGray(image.Rect(0, 0, 64, 64))}}

	result, err := NewLogoAuditor().Run(context.Background(), in)
	require.NoError(t, err)

	require.Len(t, result.Findings, 1)
	finding := result.Findings[0]
	assert.Equal(t, "logo_missing", finding.Rule)
	assert.Equal(t, types.SeverityHigh, finding.Severity)
	assert.Equal(t, types.CategoryLogo, finding.Category)
	assert.Equal(t, 1, finding.Location.Page)
}

func TestLogo_WrongPage(t *testing.T) {
	mark := markImage(16, 16)
	in := inputWith(logoPolicy(mark, 0.8, []int{1}))
	in.Images = []PageImage{{Page: 3, Image: pageWithMark(mark, 64, 64, 10, 10)}}

	result, err := NewLogoAuditor().Run(context.Background(), in)
	require.NoError(t, err)

	require.Len(t, result.Findings, 1)
	finding := result.Findings[0]
	assert.Equal(t, "logo_placement", finding.Rule)
	assert.Equal(t, types.SeverityMedium, finding.Severity)
	assert.Equal(t, 3, finding.Location.Page)
}

func TestLogo_UnknownPageSatisfiesExpectation(t *testing.T) {
	mark := markImage(16, 16)
	in := inputWith(logoPolicy(mark, 0.8, []int{1}))
	// Page 0 means extraction could not attribute the image to a page.
	in.Images = []PageImage{{Page: 0, Image: pageWithMark(mark, 64, 64, 10, 10)}}

	result, err := NewLogoAuditor().Run(context.Background(), in)
	require.NoError(t, err)
	assert.Empty(t, result.Findings, "a placement complaint needs positive wrong-page evidence")
}

func TestLogo_NoReferencesIsNoop(t *testing.T) {
	in := inputWith(types.Policy{ID: "test"})
	result, err := NewLogoAuditor().Run(context.Background(), in)
	require.NoError(t, err)

	assert.Empty(t, result.Findings)
	assert.Equal(t, 0, result.Summary["references"])
}

func TestLogo_UndecodedReferenceIsError(t *testing.T) {
	policy := types.Policy{
		ID:   "test",
		Logo: types.LogoPolicy{References: []types.LogoReference{{Path: "assets/broken.png"}}},
	}
	in := inputWith(policy)

	_, err := NewLogoAuditor().Run(context.Background(), in)
	assert.Error(t, err)
}

func TestPageSatisfies(t *testing.T) {
	assert.True(t, pageSatisfies(1, nil))
	assert.True(t, pageSatisfies(0, []int{1}))
	assert.True(t, pageSatisfies(2, []int{1, 2}))
	assert.False(t, pageSatisfies(3, []int{1, 2}))
}
