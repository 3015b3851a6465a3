package policy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/doc-auditor/internal/types"
)

func testResolver() *Resolver {
	return NewResolver(NewCatalog(
		types.Policy{ID: "414-std", ClientName: "Banque 414", Keywords: []string{"b414"}},
		types.Policy{ID: "acme", ClientName: "Acme Capital"},
		types.Policy{ID: DefaultPolicyID, ClientName: "Standard"},
	))
}

func TestResolve_ExplicitID(t *testing.T) {
	p, err := testResolver().Resolve("acme", nil)
	require.NoError(t, err)
	assert.Equal(t, "acme", p.ID)
}

func TestResolve_ExplicitUnknownIsFatal(t *testing.T) {
	_, err := testResolver().Resolve("ghost", nil)
	require.Error(t, err)

	var notFound *NotFoundError
	assert.ErrorAs(t, err, &notFound)
}

func TestResolve_AutoDetectsClientName(t *testing.T) {
	meta := &Metadata{
		HeaderFragments: []types.PageFragment{
			{Page: 1, Text: "Prepared by BANQUE 414 Asset Management"},
		},
	}

	p, err := testResolver().Resolve(AutoPolicyID, meta)
	require.NoError(t, err)
	assert.Equal(t, "414-std", p.ID)
}

func TestResolve_AutoDetectsKeyword(t *testing.T) {
	meta := &Metadata{Title: "B414 Fund Factsheet"}

	p, err := testResolver().Resolve(AutoPolicyID, meta)
	require.NoError(t, err)
	assert.Equal(t, "414-std", p.ID)
}

func TestResolve_AutoIgnoresDeepPages(t *testing.T) {
	meta := &Metadata{
		HeaderFragments: []types.PageFragment{
			{Page: 7, Text: "Footnote mentioning Acme Capital"},
		},
	}

	p, err := testResolver().Resolve(AutoPolicyID, meta)
	require.NoError(t, err)
	assert.Equal(t, DefaultPolicyID, p.ID, "client names past the header pages do not count")
}

func TestResolve_AutoFallsBackToStandard(t *testing.T) {
	meta := &Metadata{Title: "Anonymous newsletter"}

	p, err := testResolver().Resolve(AutoPolicyID, meta)
	require.NoError(t, err)
	assert.Equal(t, DefaultPolicyID, p.ID)
}

func TestResolve_EmptyIDMeansAuto(t *testing.T) {
	p, err := testResolver().Resolve("", &Metadata{Author: "Acme Capital Communications"})
	require.NoError(t, err)
	assert.Equal(t, "acme", p.ID)
}
