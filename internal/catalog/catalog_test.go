package catalog

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const smallTree = `
greeting: "Pick one:"
categories:
  - key: inverter
    label: Inverter
    children:
      - key: traction_inverter
        label: Traction Inverter
        children:
          - {key: 80kva, label: 80 kVA, source: 'Data\Traction inverter 80kva.pdf'}
          - {key: 160kva, label: 160 kVA}
      - key: combi_inverter
        label: Combi Inverter
  - key: Customize
    label: Customize Product
`

func mustParse(t *testing.T, doc string) *Tree {
	t.Helper()
	tree, err := Parse([]byte(doc))
	require.NoError(t, err)
	return tree
}

func TestDefault_Loads(t *testing.T) {
	t.Parallel()

	tree, err := Default()
	require.NoError(t, err)

	roots := tree.RootCategories()
	require.Len(t, roots, 5)
	assert.Equal(t, Option{Label: "Inverter", Path: "inverter"}, roots[0])
	assert.Equal(t, Option{Label: "Customize Product", Path: "Customize"}, roots[4])
	assert.Contains(t, tree.Greeting(), "REFU Ai")
	assert.Len(t, tree.Sources(), 25)
}

func TestDefault_KnownSource(t *testing.T) {
	t.Parallel()

	tree, err := Default()
	require.NoError(t, err)

	res := tree.Resolve("inverter.aux_inverter.single_inverter.17kva")
	assert.Equal(t, `Data\Auxiliary inverter.single inerter.17k.pdf`, res.Source)
	assert.Equal(t, "Inverter - Auxiliary Inverter - Single Inverter - 17 kVA", res.Label())
	assert.Empty(t, res.Children)
}

func TestResolve(t *testing.T) {
	t.Parallel()
	tree := mustParse(t, smallTree)

	tests := []struct {
		name         string
		path         string
		wantPath     string
		wantLabel    string
		wantLeaf     string
		wantSource   string
		wantChildren []Option
		wantNested   bool
	}{
		{
			name:     "root",
			path:     "",
			wantPath: "",
			wantChildren: []Option{
				{Label: "Inverter", Path: "inverter"},
				{Label: "Customize Product", Path: "Customize"},
			},
			wantNested: true,
		},
		{
			name:      "first level",
			path:      "inverter",
			wantPath:  "inverter",
			wantLabel: "Inverter",
			wantLeaf:  "Inverter",
			wantChildren: []Option{
				{Label: "Traction Inverter", Path: "inverter.traction_inverter"},
				{Label: "Combi Inverter", Path: "inverter.combi_inverter"},
			},
			wantNested: true,
		},
		{
			name:      "second level",
			path:      "inverter.traction_inverter",
			wantPath:  "inverter.traction_inverter",
			wantLabel: "Inverter - Traction Inverter",
			wantLeaf:  "Traction Inverter",
			wantChildren: []Option{
				{Label: "80 kVA", Path: "inverter.traction_inverter.80kva"},
				{Label: "160 kVA", Path: "inverter.traction_inverter.160kva"},
			},
		},
		{
			name:         "leaf with source",
			path:         "inverter.traction_inverter.80kva",
			wantPath:     "inverter.traction_inverter.80kva",
			wantLabel:    "Inverter - Traction Inverter - 80 kVA",
			wantLeaf:     "80 kVA",
			wantSource:   `Data\Traction inverter 80kva.pdf`,
			wantChildren: []Option{},
		},
		{
			name:         "unknown first segment",
			path:         "nope",
			wantPath:     "",
			wantChildren: []Option{{Label: "Inverter", Path: "inverter"}, {Label: "Customize Product", Path: "Customize"}},
			wantNested:   true,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			res := tree.Resolve(tc.path)
			assert.Equal(t, tc.wantPath, res.Path)
			assert.Equal(t, tc.wantLabel, res.Label())
			assert.Equal(t, tc.wantLeaf, res.Leaf())
			assert.Equal(t, tc.wantSource, res.Source)
			assert.Equal(t, tc.wantChildren, res.Children)
			assert.Equal(t, tc.wantNested, res.HasNestedChildren())
		})
	}
}

func TestResolve_TruncatesAtUnknownSegment(t *testing.T) {
	t.Parallel()
	tree := mustParse(t, smallTree)

	paths := []struct {
		full      string
		truncated string
	}{
		{"inverter.bogus", "inverter"},
		{"inverter.traction_inverter.bogus.80kva", "inverter.traction_inverter"},
		{"inverter.traction_inverter.80kva.extra", "inverter.traction_inverter.80kva"},
		{"bogus.inverter", ""},
		{"inverter..traction_inverter", "inverter"},
	}

	for _, p := range paths {
		assert.Equal(t, tree.Resolve(p.truncated), tree.Resolve(p.full), "path %q", p.full)
	}
}

func TestLabelOf(t *testing.T) {
	t.Parallel()
	tree := mustParse(t, smallTree)

	assert.Equal(t, "", tree.LabelOf(""))
	assert.Equal(t, "", tree.LabelOf("unknown.path"))
	assert.Equal(t, "Inverter - Combi Inverter", tree.LabelOf("inverter.combi_inverter"))
	assert.Equal(t, "Inverter", tree.LabelOf("inverter.unknown"))
}

func TestSources(t *testing.T) {
	t.Parallel()
	tree := mustParse(t, smallTree)

	assert.Equal(t, []SourceRef{{
		Path:   "inverter.traction_inverter.80kva",
		Label:  "Inverter - Traction Inverter - 80 kVA",
		Source: `Data\Traction inverter 80kva.pdf`,
	}}, tree.Sources())
}

func TestParse_Invalid(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		doc     string
		wantErr string
	}{
		{"empty document", "greeting: hi\n", "no categories"},
		{"not yaml", "categories: [", "failed to parse"},
		{"missing label", "categories:\n  - key: a\n", "invalid category"},
		{"missing key", "categories:\n  - label: A\n", "invalid category"},
		{"dotted key", "categories:\n  - {key: a.b, label: A}\n", "invalid category"},
		{
			"duplicate sibling",
			"categories:\n  - {key: a, label: A}\n  - {key: a, label: B}\n",
			"duplicate key",
		},
		{
			"duplicate nested sibling",
			"categories:\n  - key: a\n    label: A\n    children:\n      - {key: x, label: X}\n      - {key: x, label: Y}\n",
			`under "a"`,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			_, err := Parse([]byte(tc.doc))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.wantErr)
		})
	}
}

func TestParse_DefaultGreeting(t *testing.T) {
	t.Parallel()

	tree := mustParse(t, "categories:\n  - {key: a, label: A}\n")
	assert.Equal(t, DefaultGreeting, tree.Greeting())
}

func TestLoad(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "catalog.yaml")
	require.NoError(t, os.WriteFile(path, []byte(smallTree), 0o600))

	tree, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "Pick one:", tree.Greeting())

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}
