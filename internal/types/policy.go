package types

import "image"

// Policy is the resolved, client-specific configuration governing every
// auditor threshold. Resolved once per audit run and never mutated while the
// run is in flight.
type Policy struct {
	ID         string   `yaml:"id" json:"id" validate:"required"`
	ClientName string   `yaml:"name" json:"client_name" validate:"required"`
	// Keywords drive "auto" policy detection against header fragments.
	Keywords []string `yaml:"keywords,omitempty" json:"keywords,omitempty"`

	Disclaimers  DisclaimerPolicy `yaml:"disclaimers" json:"disclaimers"`
	Typography   TypographyPolicy `yaml:"typography" json:"typography"`
	ColorPalette ColorPolicy      `yaml:"color_palette" json:"color_palette"`
	Logo         LogoPolicy       `yaml:"logo" json:"logo"`
	Grammar      GrammarPolicy    `yaml:"grammar" json:"grammar"`

	// Auditors toggles individual auditors by name. Missing entries default
	// to enabled; caller overrides win over policy values.
	Auditors map[string]bool `yaml:"auditors,omitempty" json:"auditors,omitempty"`
}

// DisclaimerPolicy lists the legal texts a document must carry.
type DisclaimerPolicy struct {
	Templates []string `yaml:"templates" json:"templates"`
	// Threshold is the minimum token-set similarity for a template to count
	// as present. Zero falls back to the documented default of 0.8.
	Threshold float64 `yaml:"threshold,omitempty" json:"threshold,omitempty" validate:"gte=0,lte=1"`
	// AbsentSeverity applies when no template matched; PartialSeverity when
	// some did. Empty values fall back to critical and high respectively.
	AbsentSeverity  Severity `yaml:"absent_severity,omitempty" json:"absent_severity,omitempty"`
	PartialSeverity Severity `yaml:"partial_severity,omitempty" json:"partial_severity,omitempty"`
}

// TypographyPolicy bounds heading structure, fonts, and line spacing.
type TypographyPolicy struct {
	MinLineSpacing   float64  `yaml:"min_line_spacing,omitempty" json:"min_line_spacing,omitempty" validate:"gte=0"`
	MaxLineSpacing   float64  `yaml:"max_line_spacing,omitempty" json:"max_line_spacing,omitempty" validate:"gte=0"`
	MaxHeadingLevels int      `yaml:"max_heading_levels,omitempty" json:"max_heading_levels,omitempty" validate:"gte=0"`
	AllowedFonts     []string `yaml:"allowed_fonts,omitempty" json:"allowed_fonts,omitempty"`
	AllowedFontSizes []float64 `yaml:"allowed_font_sizes,omitempty" json:"allowed_font_sizes,omitempty"`
}

// ColorPolicy is the allowed palette plus the RGB distance tolerance.
// Tolerance is a Euclidean distance in 8-bit RGB space, so it is bounded by
// the black-to-white distance of sqrt(3*255^2) = 441.67.
type ColorPolicy struct {
	AllowedColors []string `yaml:"allowed_colors" json:"allowed_colors" validate:"dive,hexcolor"`
	Tolerance     float64  `yaml:"tolerance" json:"tolerance" validate:"gte=0,lte=441.68"`
	Severity      Severity `yaml:"severity,omitempty" json:"severity,omitempty"`
}

// LogoReference is one brand mark the logo auditor matches against. The
// decoded image is filled at catalog load and never serialized.
type LogoReference struct {
	Path  string      `yaml:"path" json:"path"`
	Image image.Image `yaml:"-" json:"-"`
}

// LogoPolicy configures template matching of brand marks.
type LogoPolicy struct {
	References []LogoReference `yaml:"references,omitempty" json:"references,omitempty"`
	// Confidence is the minimum normalized cross-correlation score for a
	// match. Zero falls back to 0.8.
	Confidence float64 `yaml:"confidence,omitempty" json:"confidence,omitempty" validate:"gte=0,lte=1"`
	// ExpectedPages lists the pages the logo must appear on (1-indexed).
	// Empty means any page satisfies presence.
	ExpectedPages []int `yaml:"expected_pages,omitempty" json:"expected_pages,omitempty"`
}

// GrammarPolicy configures the external language check.
type GrammarPolicy struct {
	Language string `yaml:"language,omitempty" json:"language,omitempty"`
}

// AuditorEnabled reports whether the named auditor is enabled under this
// policy, applying the enabled-by-default rule for missing entries.
func (p *Policy) AuditorEnabled(name string) bool {
	if p.Auditors == nil {
		return true
	}
	enabled, ok := p.Auditors[name]
	if !ok {
		return true
	}
	return enabled
}
