package ingestion

import (
	"strings"
	"unicode/utf8"
)

// separators are tried in order; text is split on the coarsest one that
// yields pieces no longer than the chunk size. "" splits on runes.
var separators = []string{"\n\n", "\n", " ", ""}

// Chunk splits text into passages of at most size bytes, each starting with
// up to overlap bytes repeated from the end of the previous passage.
// Paragraph, line and word boundaries are preferred over mid-word cuts.
// Passages are trimmed; empty ones are dropped.
func Chunk(text string, size, overlap int) []string {
	text = strings.TrimSpace(text)
	if text == "" || size <= 0 {
		return nil
	}
	return merge(split(text, size, separators), size, overlap)
}

// split breaks text into pieces no longer than size. Each piece keeps its
// trailing separator so that merging restores the original spacing.
func split(text string, size int, seps []string) []string {
	if len(text) <= size {
		return []string{text}
	}
	sep, rest := seps[0], seps[1:]
	if sep == "" {
		return splitRunes(text, size)
	}
	if !strings.Contains(text, sep) {
		return split(text, size, rest)
	}

	parts := strings.Split(text, sep)
	out := make([]string, 0, len(parts))
	for i, part := range parts {
		if i < len(parts)-1 {
			part += sep
		}
		if part == "" {
			continue
		}
		if len(part) <= size {
			out = append(out, part)
			continue
		}
		out = append(out, split(part, size, rest)...)
	}
	return out
}

// splitRunes cuts text into pieces of at most size bytes on rune boundaries.
func splitRunes(text string, size int) []string {
	var out []string
	for len(text) > 0 {
		end := min(size, len(text))
		for end > 0 && end < len(text) && !utf8.RuneStart(text[end]) {
			end--
		}
		if end == 0 {
			_, end = utf8.DecodeRuneInString(text)
		}
		out = append(out, text[:end])
		text = text[end:]
	}
	return out
}

// merge packs pieces into passages. When a passage is full, trailing pieces
// totalling at most overlap bytes are carried into the next one.
func merge(pieces []string, size, overlap int) []string {
	var (
		chunks []string
		cur    []string
		curLen int
	)
	flush := func() {
		if c := strings.TrimSpace(strings.Join(cur, "")); c != "" {
			chunks = append(chunks, c)
		}
	}

	for _, p := range pieces {
		if len(cur) > 0 && curLen+len(p) > size {
			flush()
			for len(cur) > 0 && (curLen > overlap || curLen+len(p) > size) {
				curLen -= len(cur[0])
				cur = cur[1:]
			}
		}
		cur = append(cur, p)
		curLen += len(p)
	}
	if len(cur) > 0 {
		flush()
	}
	return chunks
}
