package rag

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/54b3r/refubot-go/internal/catalog"
)

func newTestFactory(t *testing.T) *Factory {
	t.Helper()
	tree, err := catalog.Parse([]byte(`
categories:
  - key: inverter
    label: Inverter
    children:
      - key: traction_inverter
        label: Traction Inverter
        children:
          - {key: 80kva, label: 80 kVA, source: 'Data\Traction inverter 80kva.pdf'}
          - {key: 160kva, label: 160 kVA}
  - key: OBC
    label: On-Board Charger
    source: 'Data\OBC overview.pdf'
`))
	require.NoError(t, err)
	return NewFactory(tree, 0)
}

func TestFactory_Build(t *testing.T) {
	t.Parallel()

	f := newTestFactory(t)

	tests := []struct {
		name       string
		path       string
		wantFilter Filter
	}{
		{name: "empty path", path: ""},
		{name: "category without source", path: "inverter.traction_inverter"},
		{name: "leaf without source", path: "inverter.traction_inverter.160kva"},
		{
			name:       "leaf with source",
			path:       "inverter.traction_inverter.80kva",
			wantFilter: Filter{SourceKey: `Data\Traction inverter 80kva.pdf`},
		},
		{
			name:       "inner node with source",
			path:       "OBC",
			wantFilter: Filter{SourceKey: `Data\OBC overview.pdf`},
		},
		{name: "unknown path", path: "unknown.path"},
		{name: "trailing unknown segment", path: "inverter.traction_inverter.80kva.extra"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			cfg := f.Build(tc.path)
			assert.Equal(t, DefaultTopK, cfg.TopK)
			assert.Equal(t, tc.wantFilter, cfg.Filter)
		})
	}
}

func TestFactory_NilTree(t *testing.T) {
	t.Parallel()

	assert.Equal(t, SearchConfig{TopK: 7}, NewFactory(nil, 7).Build("inverter"))
}

func TestBuildFilter(t *testing.T) {
	t.Parallel()

	assert.Nil(t, buildFilter(nil))

	got := buildFilter(Filter{"source": "a.pdf", "lang": "en"})
	require.Len(t, got.GetMust(), 2)
	first := got.GetMust()[0].GetField()
	assert.Equal(t, "lang", first.GetKey())
	assert.Equal(t, "en", first.GetMatch().GetKeyword())
}
