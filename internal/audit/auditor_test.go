package audit

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/doc-auditor/internal/types"
)

type namedAuditor string

func (n namedAuditor) Name() string { return string(n) }

func (n namedAuditor) Run(context.Context, *Input) (*Result, error) {
	return &Result{}, nil
}

func TestRegistry_RegistrationOrder(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(namedAuditor("b")))
	require.NoError(t, r.Register(namedAuditor("a")))
	require.NoError(t, r.Register(namedAuditor("c")))

	assert.Equal(t, []string{"b", "a", "c"}, r.Names())

	got, ok := r.Get("a")
	require.True(t, ok)
	assert.Equal(t, "a", got.Name())

	_, ok = r.Get("missing")
	assert.False(t, ok)
}

func TestRegistry_RejectsDuplicatesAndEmptyNames(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(namedAuditor("a")))
	assert.Error(t, r.Register(namedAuditor("a")))
	assert.Error(t, r.Register(namedAuditor("")))
}

func enabledNames(auditors []Auditor) []string {
	names := make([]string, len(auditors))
	for i, a := range auditors {
		names[i] = a.Name()
	}
	return names
}

func TestRegistry_EnabledDefaultsToAll(t *testing.T) {
	r := NewRegistry()
	r.MustRegister(namedAuditor("a"))
	r.MustRegister(namedAuditor("b"))

	assert.Equal(t, []string{"a", "b"}, enabledNames(r.Enabled(&types.Policy{ID: "p"}, nil)))
	assert.Equal(t, []string{"a", "b"}, enabledNames(r.Enabled(nil, nil)))
}

func TestRegistry_PolicyDisables(t *testing.T) {
	r := NewRegistry()
	r.MustRegister(namedAuditor("a"))
	r.MustRegister(namedAuditor("b"))

	policy := &types.Policy{ID: "p", Auditors: map[string]bool{"a": false}}
	assert.Equal(t, []string{"b"}, enabledNames(r.Enabled(policy, nil)))
}

func TestRegistry_OverridesWinOverPolicy(t *testing.T) {
	r := NewRegistry()
	r.MustRegister(namedAuditor("a"))
	r.MustRegister(namedAuditor("b"))

	policy := &types.Policy{ID: "p", Auditors: map[string]bool{"a": false, "b": true}}
	overrides := map[string]bool{"a": true, "b": false}
	assert.Equal(t, []string{"a"}, enabledNames(r.Enabled(policy, overrides)))
}

func TestPageHelpers(t *testing.T) {
	fragments := []types.PageFragment{
		frag(2, 0, "second page"),
		frag(1, 0, "first"),
		frag(1, 1, "page"),
	}

	assert.Equal(t, []int{1, 2}, pagesOf(fragments))
	assert.Equal(t, "first\npage", pageText(fragments, 1))
	assert.Len(t, fragmentsOnPage(fragments, 1), 2)
	assert.Empty(t, fragmentsOnPage(fragments, 9))
}

func TestSnippet(t *testing.T) {
	assert.Equal(t, "short", snippet("  short  "))

	long := make([]byte, 300)
	for i := range long {
		long[i] = 'x'
	}
	out := snippet(string(long))
	assert.Len(t, out, 120)
	assert.Equal(t, "...", out[117:])
}
