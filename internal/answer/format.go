package answer

import (
	"html"
	"strings"

	"github.com/54b3r/refubot-go/internal/catalog"
)

// coolingGraphDir is the URL prefix of the cooling performance images.
const coolingGraphDir = "/static/cooling_graphs/"

// CoolingGraph is the payload that points the client at a product's cooling
// performance image.
type CoolingGraph struct {
	// Type is always "cooling_graph".
	Type string `json:"type"`
	// ModelName is the category path of the product.
	ModelName string `json:"modelName"`
	// CoolingImageURL is the image location under the static tree.
	CoolingImageURL string `json:"coolingImageUrl"`
}

// NewCoolingGraph builds the payload for path.
func NewCoolingGraph(path string) *CoolingGraph {
	return &CoolingGraph{
		Type:            "cooling_graph",
		ModelName:       path,
		CoolingImageURL: coolingGraphDir + strings.ReplaceAll(path, catalog.PathSeparator, "_") + ".png",
	}
}

// FormatParagraphs splits text on blank lines and wraps every non-empty
// paragraph in <p></p>. Paragraph text is HTML-escaped.
func FormatParagraphs(text string) string {
	var sb strings.Builder
	for _, p := range strings.Split(text, "\n\n") {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		sb.WriteString("<p>")
		sb.WriteString(html.EscapeString(p))
		sb.WriteString("</p>")
	}
	return sb.String()
}
