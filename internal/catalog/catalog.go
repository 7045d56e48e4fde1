// Package catalog holds the product category taxonomy behind the chat
// navigation buttons. Each node carries a display label, an optional
// document-source identifier used to scope retrieval to one datasheet, and
// its ordered children.
//
// The taxonomy is a declarative YAML asset. A default tree is embedded in the
// binary; an operator may point REFUBOT_CATALOG at an alternate file.
// A Tree is read-only after it has been loaded and is safe for concurrent use.
package catalog

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// PathSeparator delimits the keys of a dotted category path.
const PathSeparator = "."

// labelSeparator joins the labels of a resolved path for display.
const labelSeparator = " - "

// DefaultGreeting is used when the taxonomy file does not define one.
const DefaultGreeting = "Hello! How can I assist you today? Please select a category to explore:"

//go:embed default.yaml
var defaultYAML []byte

// validate checks the struct tags on Node. validator caches struct metadata,
// so a single package-level instance is shared.
var validate = validator.New()

// Node is one category in the taxonomy.
type Node struct {
	// Key is the path segment identifying this node among its siblings.
	Key string `yaml:"key" validate:"required,excludesall=."`
	// Label is the human-readable button text.
	Label string `yaml:"label" validate:"required"`
	// Source is the document-source identifier stored with every indexed
	// passage of this node's datasheet. Empty when no datasheet exists.
	Source string `yaml:"source,omitempty"`
	// Children are the sub-categories, in display order.
	Children []*Node `yaml:"children,omitempty"`
}

// Option is a selectable button: its label and the full dotted path it
// navigates to.
type Option struct {
	// Label is the button text.
	Label string
	// Path is the full dotted path of the option.
	Path string
}

// SourceRef ties a document-source identifier to the category that owns it.
type SourceRef struct {
	// Path is the full dotted path of the category.
	Path string
	// Label is the " - "-joined label path of the category.
	Label string
	// Source is the document-source identifier.
	Source string
}

// Tree is an immutable category taxonomy.
type Tree struct {
	// greeting is the welcome text shown above the root buttons.
	greeting string
	// roots are the top-level categories in display order.
	roots []*Node
}

// file mirrors the on-disk YAML layout.
type file struct {
	Greeting   string  `yaml:"greeting"`
	Categories []*Node `yaml:"categories"`
}

// Default returns the taxonomy embedded in the binary.
func Default() (*Tree, error) {
	return Parse(defaultYAML)
}

// Load reads a taxonomy from a YAML file. An empty path returns [Default].
func Load(path string) (*Tree, error) {
	if path == "" {
		return Default()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("catalog: failed to read %s: %w", path, err)
	}
	t, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("catalog: %s: %w", path, err)
	}
	return t, nil
}

// Parse decodes and validates a YAML taxonomy document.
func Parse(data []byte) (*Tree, error) {
	var f file
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("catalog: failed to parse taxonomy: %w", err)
	}
	if len(f.Categories) == 0 {
		return nil, fmt.Errorf("catalog: taxonomy defines no categories")
	}
	if err := validateLevel(f.Categories, ""); err != nil {
		return nil, err
	}

	greeting := strings.TrimSpace(f.Greeting)
	if greeting == "" {
		greeting = DefaultGreeting
	}
	return &Tree{greeting: greeting, roots: f.Categories}, nil
}

// validateLevel checks every node of one sibling group and recurses into
// their children. Sibling keys must be unique.
func validateLevel(nodes []*Node, parent string) error {
	seen := make(map[string]bool, len(nodes))
	for i, n := range nodes {
		if n == nil {
			return fmt.Errorf("catalog: empty category at index %d under %q", i, parent)
		}
		if err := validate.Struct(n); err != nil {
			return fmt.Errorf("catalog: invalid category %q under %q: %w", n.Key, parent, err)
		}
		if seen[n.Key] {
			return fmt.Errorf("catalog: duplicate key %q under %q", n.Key, parent)
		}
		seen[n.Key] = true
		if err := validateLevel(n.Children, joinPath(parent, n.Key)); err != nil {
			return err
		}
	}
	return nil
}

// Greeting returns the welcome text shown with the root categories.
func (t *Tree) Greeting() string { return t.greeting }

// RootCategories returns the top-level categories in display order.
func (t *Tree) RootCategories() []Option {
	return options(t.roots, "")
}

// Resolution is the outcome of walking a dotted path through the tree.
type Resolution struct {
	// Path is the prefix of the requested path that resolved. It equals the
	// requested path when every segment exists.
	Path string
	// Labels holds the label of every resolved node, root first.
	Labels []string
	// Children are the options one level below the resolved prefix.
	Children []Option
	// Source is the document-source identifier of the deepest resolved node.
	Source string
	// nested reports whether any child has children of its own.
	nested bool
}

// Label returns the " - "-joined label path, or "" at the root.
func (r Resolution) Label() string {
	return strings.Join(r.Labels, labelSeparator)
}

// Leaf returns the label of the deepest resolved node, or "" at the root.
func (r Resolution) Leaf() string {
	if len(r.Labels) == 0 {
		return ""
	}
	return r.Labels[len(r.Labels)-1]
}

// HasNestedChildren reports whether navigation can continue at least two
// levels below the resolved prefix.
func (r Resolution) HasNestedChildren() bool { return r.nested }

// Resolve walks path segment by segment. Traversal stops at the first
// segment that is not a child of the current node; whatever prefix resolved
// is returned and the remainder is ignored. An empty path resolves to the
// root level with no label and no source.
func (t *Tree) Resolve(path string) Resolution {
	var (
		res      Resolution
		resolved []string
		level    = t.roots
	)

	for _, seg := range splitPath(path) {
		n := find(level, seg)
		if n == nil {
			break
		}
		resolved = append(resolved, seg)
		res.Labels = append(res.Labels, n.Label)
		res.Source = n.Source
		level = n.Children
	}

	res.Path = strings.Join(resolved, PathSeparator)
	res.Children = options(level, res.Path)
	for _, n := range level {
		if len(n.Children) > 0 {
			res.nested = true
			break
		}
	}
	return res
}

// LabelOf returns the " - "-joined labels along the resolved prefix of path.
// It is empty when path is empty or its first segment is unknown.
func (t *Tree) LabelOf(path string) string {
	return t.Resolve(path).Label()
}

// Sources lists every category that carries a document-source identifier,
// in depth-first display order.
func (t *Tree) Sources() []SourceRef {
	var refs []SourceRef
	var walk func(nodes []*Node, parent string, labels []string)
	walk = func(nodes []*Node, parent string, labels []string) {
		for _, n := range nodes {
			p := joinPath(parent, n.Key)
			l := append(append([]string(nil), labels...), n.Label)
			if n.Source != "" {
				refs = append(refs, SourceRef{
					Path:   p,
					Label:  strings.Join(l, labelSeparator),
					Source: n.Source,
				})
			}
			walk(n.Children, p, l)
		}
	}
	walk(t.roots, "", nil)
	return refs
}

// splitPath splits a dotted path into segments. An empty path has none.
func splitPath(path string) []string {
	if path == "" {
		return nil
	}
	return strings.Split(path, PathSeparator)
}

// find returns the node with the given key, or nil.
func find(nodes []*Node, key string) *Node {
	for _, n := range nodes {
		if n.Key == key {
			return n
		}
	}
	return nil
}

// options converts a sibling group into options whose paths extend parent.
func options(nodes []*Node, parent string) []Option {
	out := make([]Option, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, Option{Label: n.Label, Path: joinPath(parent, n.Key)})
	}
	return out
}

// joinPath appends key to a dotted parent path.
func joinPath(parent, key string) string {
	if parent == "" {
		return key
	}
	return parent + PathSeparator + key
}
