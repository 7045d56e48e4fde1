package ingestion

import (
	"path/filepath"
	"strconv"
	"strings"
)

// Metadata holds the payload fields stored with every passage of a source,
// besides its text and document-source identifier.
type Metadata struct {
	// Category is the dotted catalog path owning the source.
	Category string
	// Product is the " - "-joined label path of that category.
	Product string
	// Family is the label of the top-level category (e.g. "Inverter").
	Family string
	// FileType is the lowercased file extension without the dot.
	FileType string
}

// InferMetadata derives the payload fields of src. Fields that cannot be
// derived are left empty and omitted from the payload.
func InferMetadata(src Source) Metadata {
	m := Metadata{
		Category: src.Category,
		Product:  src.Label,
		FileType: strings.TrimPrefix(strings.ToLower(filepath.Ext(src.Path)), "."),
	}
	m.Family, _, _ = strings.Cut(src.Label, " - ")
	return m
}

// Payload returns the metadata of the passage at index.
func (m Metadata) Payload(index int) map[string]string {
	out := map[string]string{"chunk_index": strconv.Itoa(index)}
	for k, v := range map[string]string{
		"category":  m.Category,
		"product":   m.Product,
		"family":    m.Family,
		"file_type": m.FileType,
	} {
		if v != "" {
			out[k] = v
		}
	}
	return out
}
