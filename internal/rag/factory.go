package rag

import (
	"github.com/54b3r/refubot-go/internal/catalog"
)

// Factory derives the search configuration for a request from its category
// path. It does not check that any indexed passage matches the filter; an
// empty result is handled downstream.
type Factory struct {
	// tree resolves category paths to document sources.
	tree *catalog.Tree
	// topK is the result count of every configuration built.
	topK int
}

// NewFactory returns a Factory over tree. topK <= 0 selects [DefaultTopK].
func NewFactory(tree *catalog.Tree, topK int) *Factory {
	if topK <= 0 {
		topK = DefaultTopK
	}
	return &Factory{tree: tree, topK: topK}
}

// Build returns a configuration filtered on the document source of the
// category at path. The filter is applied only when every segment of path
// resolves and the resolved category carries a source; any other path,
// including the empty one, yields an unscoped search.
func (f *Factory) Build(path string) SearchConfig {
	cfg := SearchConfig{TopK: f.topK}
	if path == "" || f.tree == nil {
		return cfg
	}

	res := f.tree.Resolve(path)
	if res.Path != path || res.Source == "" {
		return cfg
	}
	cfg.Filter = Filter{SourceKey: res.Source}
	return cfg
}
