package audit

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/jonathan/doc-auditor/internal/types"
)

// MaxRGBDistance is the Euclidean distance between black and white in 8-bit
// RGB space, sqrt(3 * 255^2). Policy tolerances are bounded by it.
const MaxRGBDistance = 441.6729559300637

// ParseHexColor parses #RGB or #RRGGBB into 8-bit channels.
func ParseHexColor(s string) (rgb [3]int, err error) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "#")
	switch len(s) {
	case 3:
		expanded := make([]byte, 6)
		for i := 0; i < 3; i++ {
			expanded[2*i], expanded[2*i+1] = s[i], s[i]
		}
		s = string(expanded)
	case 6:
	default:
		return rgb, fmt.Errorf("invalid hex color %q", s)
	}

	for i := 0; i < 3; i++ {
		var v int
		if _, err := fmt.Sscanf(s[2*i:2*i+2], "%02x", &v); err != nil {
			return rgb, fmt.Errorf("invalid hex color %q: %w", s, err)
		}
		rgb[i] = v
	}
	return rgb, nil
}

// ColorDistance is the Euclidean RGB distance between two hex colors,
// in [0, MaxRGBDistance]. Symmetric by construction.
func ColorDistance(a, b string) (float64, error) {
	ca, err := ParseHexColor(a)
	if err != nil {
		return 0, err
	}
	cb, err := ParseHexColor(b)
	if err != nil {
		return 0, err
	}

	sum := 0.0
	for i := 0; i < 3; i++ {
		d := float64(ca[i] - cb[i])
		sum += d * d
	}
	return math.Sqrt(sum), nil
}

// ColorPaletteAuditor compares every unique color drawn in the document
// against the policy's allowed palette.
type ColorPaletteAuditor struct{}

// NewColorPaletteAuditor creates the color palette auditor.
func NewColorPaletteAuditor() *ColorPaletteAuditor {
	return &ColorPaletteAuditor{}
}

// Name implements Auditor.
func (a *ColorPaletteAuditor) Name() string {
	return NameColorPalette
}

// Run flags each unique color whose minimum distance to the palette exceeds
// the tolerance, with the closest allowed color as the suggested
// replacement.
func (a *ColorPaletteAuditor) Run(ctx context.Context, in *Input) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	allowed := in.Policy.ColorPalette.AllowedColors
	tolerance := in.Policy.ColorPalette.Tolerance
	severity := in.Policy.ColorPalette.Severity
	if !severity.Valid() {
		severity = types.SeverityMedium
	}

	observed := collectUniqueColors(in.Colors)
	if len(observed) == 0 || len(allowed) == 0 {
		// No colors detected (or nothing to compare against) is full
		// compliance, not a divide-by-zero.
		return &Result{Summary: map[string]any{
			"total_unique_colors": len(observed),
			"unauthorized_count":  0,
			"compliance_rate":     1.0,
		}}, nil
	}

	var findings []types.Finding
	unauthorized := 0
	for _, obs := range observed {
		closest, minDist, err := closestAllowedColor(obs.hex, allowed)
		if err != nil {
			return nil, err
		}
		if minDist <= tolerance {
			continue
		}
		unauthorized++

		f := types.NewFinding(
			types.CategoryFormat,
			"unauthorized_color",
			fmt.Sprintf("color %s is not in the allowed palette (closest %s at distance %.2f, tolerance %.2f)",
				obs.hex, closest, minDist, tolerance),
			severity,
			types.Location{Page: obs.firstPage},
		)
		f.Suggestion = fmt.Sprintf("Replace %s with the palette color %s.", obs.hex, closest)
		f.Evidence = []types.Evidence{{Kind: types.EvidenceMetric, Data: map[string]any{
			"unauthorized_color":    obs.hex,
			"suggested_replacement": closest,
			"distance":              minDist,
			"tolerance":             tolerance,
			"sources":               obs.sources,
		}}}
		findings = append(findings, f)
	}

	return &Result{
		Findings: findings,
		Summary: map[string]any{
			"total_unique_colors": len(observed),
			"unauthorized_count":  unauthorized,
			"compliance_rate":     1.0 - float64(unauthorized)/float64(len(observed)),
		},
	}, nil
}

type observedColor struct {
	hex       string
	firstPage int
	sources   []string
}

// collectUniqueColors flattens per-page color buckets into a deterministic
// unique list, keeping the first page each color was seen on.
func collectUniqueColors(pages []types.PageColors) []observedColor {
	byHex := map[string]*observedColor{}
	record := func(page int, source string, hexes []string) {
		for _, hex := range hexes {
			normalized := strings.ToUpper(hex)
			obs, ok := byHex[normalized]
			if !ok {
				obs = &observedColor{hex: normalized, firstPage: page}
				byHex[normalized] = obs
			}
			if !containsString(obs.sources, source) {
				obs.sources = append(obs.sources, source)
			}
			if page < obs.firstPage {
				obs.firstPage = page
			}
		}
	}

	for _, pc := range pages {
		record(pc.Page, "text", pc.Text)
		record(pc.Page, "fill", pc.Fill)
		record(pc.Page, "stroke", pc.Stroke)
	}

	out := make([]observedColor, 0, len(byHex))
	for _, obs := range byHex {
		out = append(out, *obs)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].hex < out[j].hex })
	return out
}

func closestAllowedColor(hex string, allowed []string) (string, float64, error) {
	closest, minDist := "", math.MaxFloat64
	for _, candidate := range allowed {
		dist, err := ColorDistance(hex, candidate)
		if err != nil {
			return "", 0, fmt.Errorf("allowed palette: %w", err)
		}
		if dist < minDist {
			closest, minDist = strings.ToUpper(candidate), dist
		}
	}
	return closest, minDist, nil
}

func containsString(haystack []string, needle string) bool {
	for _, s := range haystack {
		if s == needle {
			return true
		}
	}
	return false
}
