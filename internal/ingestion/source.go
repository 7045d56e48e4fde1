package ingestion

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/54b3r/refubot-go/internal/catalog"
)

// Source is one datasheet to index.
type Source struct {
	// ID is the document-source identifier from the catalog, stored with
	// every passage and matched by category-scoped searches.
	ID string
	// Path is the file on disk.
	Path string
	// Category is the dotted catalog path of the owning category.
	Category string
	// Label is the " - "-joined label path of the owning category.
	Label string
}

// ResolveSources maps every source identifier in tree to a file under root.
// Identifiers may use either slash; they are interpreted relative to root.
// Identifiers whose file does not exist are returned in missing rather than
// failing the whole run.
func ResolveSources(tree *catalog.Tree, root string) (sources []Source, missing []string, err error) {
	for _, ref := range tree.Sources() {
		rel := strings.ReplaceAll(ref.Source, `\`, "/")
		path := filepath.Join(root, filepath.FromSlash(rel))

		info, statErr := os.Stat(path)
		switch {
		case errors.Is(statErr, fs.ErrNotExist):
			missing = append(missing, ref.Source)
			continue
		case statErr != nil:
			return nil, nil, fmt.Errorf("ingestion: stat %s: %w", path, statErr)
		case info.IsDir():
			return nil, nil, fmt.Errorf("ingestion: %s is a directory", path)
		}

		sources = append(sources, Source{
			ID:       ref.Source,
			Path:     path,
			Category: ref.Path,
			Label:    ref.Label,
		})
	}
	return sources, missing, nil
}

// Select keeps the sources whose ID or category path is in keys, preserving
// catalog order. An empty keys list selects every source. A key matching no
// source is an error.
func Select(sources []Source, keys []string) ([]Source, error) {
	if len(keys) == 0 {
		return sources, nil
	}

	matched := make(map[string]bool, len(keys))
	var out []Source
	for _, s := range sources {
		hit := false
		for _, k := range keys {
			if k == s.ID || k == s.Category {
				matched[k] = true
				hit = true
			}
		}
		if hit {
			out = append(out, s)
		}
	}
	for _, k := range keys {
		if !matched[k] {
			return nil, fmt.Errorf("ingestion: no resolvable source matches %q", k)
		}
	}
	return slices.Clip(out), nil
}
