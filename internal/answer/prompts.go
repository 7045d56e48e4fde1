package answer

import "strings"

// productPrefix marks a request for the description of a catalog product.
// The remainder of the message is the product's category path.
const productPrefix = "Tell me about "

// productTemplate asks for a structured summary of one product.
const productTemplate = "Context: {context}\n\n" +
	"Provide detailed information about {input} including its specifications and applications " +
	"in structure way in less words don't provide missing information"

// generalTemplate answers a free-text question from the retrieved context.
const generalTemplate = "Context: {context}\n\n" +
	"Question: {input}\n\n" +
	"Provide a helpful and accurate response based on the context provided, " +
	"don't provide missing information if question is not related to provide context " +
	"then don't give answer and user say good morning or any type of greeting text answer that question."

// coolingFollowUp is appended to thermal answers about a selected product.
const coolingFollowUp = "\n\nWould you like to see the cooling performance graph for this model?"

// affirmatives accept the cooling graph offer. Matched after lowercasing
// and trimming.
var affirmatives = map[string]bool{
	"yes":        true,
	"yes please": true,
	"show graph": true,
}

// thermalKeywords trigger the cooling graph offer.
var thermalKeywords = []string{"cooling", "temperature", "thermal"}

func isAffirmative(msg string) bool {
	return affirmatives[strings.ToLower(strings.TrimSpace(msg))]
}

func mentionsThermal(msg string) bool {
	lower := strings.ToLower(msg)
	for _, kw := range thermalKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// renderFixed renders tpl with an empty context. The result is the part of
// the prompt that passage trimming cannot shrink.
func renderFixed(tpl, input string) string {
	return strings.NewReplacer("{context}", "", "{input}", input).Replace(tpl)
}
