package policy

import (
	"fmt"
	"image"
	_ "image/jpeg" // logo reference decoding
	_ "image/png"
	"os"
	"path/filepath"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/jonathan/doc-auditor/internal/types"
)

// DefaultPolicyID is the catalog entry "auto" detection falls back to when
// no client matches.
const DefaultPolicyID = "standard"

// catalogFile is the on-disk YAML shape.
type catalogFile struct {
	Policies []types.Policy `yaml:"policies"`
}

// Catalog is the immutable set of policies loaded once at process start.
// It is never mutated after LoadCatalog returns; concurrent reads are safe.
type Catalog struct {
	policies map[string]*types.Policy
	order    []string
}

// LoadCatalog reads and validates a YAML policy catalog. Logo reference
// images are decoded eagerly, relative to the catalog file's directory, so a
// broken reference fails at startup instead of mid-run.
func LoadCatalog(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &CatalogError{Path: path, Message: "failed to read catalog file", Cause: err}
	}

	var file catalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, &CatalogError{Path: path, Message: "failed to parse catalog YAML", Cause: err}
	}
	if len(file.Policies) == 0 {
		return nil, &CatalogError{Path: path, Message: "catalog contains no policies"}
	}

	validate := validator.New()
	catalog := &Catalog{policies: make(map[string]*types.Policy, len(file.Policies))}
	baseDir := filepath.Dir(path)

	for i := range file.Policies {
		p := file.Policies[i]
		if err := validate.Struct(p); err != nil {
			return nil, &CatalogError{Path: path, Message: fmt.Sprintf("policy %q failed validation", p.ID), Cause: err}
		}
		if _, exists := catalog.policies[p.ID]; exists {
			return nil, &CatalogError{Path: path, Message: fmt.Sprintf("duplicate policy id %q", p.ID)}
		}
		if err := loadLogoReferences(&p, baseDir); err != nil {
			return nil, &CatalogError{Path: path, Message: fmt.Sprintf("policy %q logo references", p.ID), Cause: err}
		}
		catalog.policies[p.ID] = &p
		catalog.order = append(catalog.order, p.ID)
	}

	return catalog, nil
}

// DefaultCatalog returns a catalog holding only the built-in standard
// policy. Used when no catalog file is configured.
func DefaultCatalog() *Catalog {
	return NewCatalog(*builtinStandardPolicy())
}

// NewCatalog builds a catalog from already-constructed policies. Used by
// tests and by callers that resolve policies from an upstream service.
func NewCatalog(policies ...types.Policy) *Catalog {
	catalog := &Catalog{policies: make(map[string]*types.Policy, len(policies))}
	for i := range policies {
		p := policies[i]
		catalog.policies[p.ID] = &p
		catalog.order = append(catalog.order, p.ID)
	}
	return catalog
}

// Get returns the policy for an explicit id.
func (c *Catalog) Get(id string) (*types.Policy, error) {
	p, ok := c.policies[id]
	if !ok {
		return nil, &NotFoundError{ID: id}
	}
	return p, nil
}

// Default returns the standard fallback policy. A catalog without a
// "standard" entry gets the built-in one.
func (c *Catalog) Default() *types.Policy {
	if p, ok := c.policies[DefaultPolicyID]; ok {
		return p
	}
	return builtinStandardPolicy()
}

// IDs returns policy ids in catalog order.
func (c *Catalog) IDs() []string {
	ids := make([]string, len(c.order))
	copy(ids, c.order)
	return ids
}

// Policies returns all policies in catalog order.
func (c *Catalog) Policies() []*types.Policy {
	out := make([]*types.Policy, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, c.policies[id])
	}
	return out
}

func loadLogoReferences(p *types.Policy, baseDir string) error {
	for i := range p.Logo.References {
		ref := &p.Logo.References[i]
		if ref.Path == "" {
			return fmt.Errorf("reference %d has no path", i)
		}
		path := ref.Path
		if !filepath.IsAbs(path) {
			path = filepath.Join(baseDir, path)
		}
		file, err := os.Open(path)
		if err != nil {
			return fmt.Errorf("failed to open logo reference %s: %w", ref.Path, err)
		}
		img, _, err := image.Decode(file)
		_ = file.Close()
		if err != nil {
			return fmt.Errorf("failed to decode logo reference %s: %w", ref.Path, err)
		}
		ref.Image = img
	}
	return nil
}

// builtinStandardPolicy is the conservative policy used when the catalog has
// no explicit "standard" entry. Thresholds match the documented defaults.
func builtinStandardPolicy() *types.Policy {
	return &types.Policy{
		ID:         DefaultPolicyID,
		ClientName: "Standard",
		Disclaimers: types.DisclaimerPolicy{
			Threshold: 0.8,
		},
		Typography: types.TypographyPolicy{
			MinLineSpacing:   1.0,
			MaxLineSpacing:   2.0,
			MaxHeadingLevels: 4,
		},
		ColorPalette: types.ColorPolicy{
			Tolerance: 10.0,
			Severity:  types.SeverityMedium,
		},
		Logo: types.LogoPolicy{
			Confidence: 0.8,
		},
		Grammar: types.GrammarPolicy{
			Language: "en-US",
		},
	}
}
