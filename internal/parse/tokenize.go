// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package parse

import (
	"bytes"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"

	"github.com/pdiddy/journal-scout/pkg/types"
)

// maxTokenLevel is the deepest heading that starts a section.
const maxTokenLevel = 3

// headingToken marks one section boundary in the source.
type headingToken struct {
	level     int
	text      string
	lineStart int // offset of the heading line
	bodyStart int // offset just past the heading line
}

// tokenize returns the top-level ATX headings of level 1 to 3 in document
// order. Headings inside code blocks, block quotes and lists are not
// section boundaries, and neither are setext headings.
func tokenize(md goldmark.Markdown, src []byte) []headingToken {
	doc := md.Parser().Parse(text.NewReader(src))

	var tokens []headingToken
	for n := doc.FirstChild(); n != nil; n = n.NextSibling() {
		h, ok := n.(*ast.Heading)
		if !ok || h.Level > maxTokenLevel || h.Lines().Len() == 0 {
			continue
		}
		seg := h.Lines().At(0)

		lineStart := seg.Start
		for lineStart > 0 && src[lineStart-1] != '\n' {
			lineStart--
		}
		if atxLevel(src[lineStart:seg.Start]) != h.Level {
			continue
		}

		bodyStart := len(src)
		if i := bytes.IndexByte(src[seg.Stop:], '\n'); i >= 0 {
			bodyStart = seg.Stop + i + 1
		}

		tokens = append(tokens, headingToken{
			level:     h.Level,
			text:      strings.TrimSpace(string(seg.Value(src))),
			lineStart: lineStart,
			bodyStart: bodyStart,
		})
	}
	return tokens
}

// sections slices src into one section per token. A body runs from the
// end of its heading line to the start of the next heading line.
func sections(src []byte, tokens []headingToken) []types.Section {
	out := make([]types.Section, 0, len(tokens))
	for i, tok := range tokens {
		end := len(src)
		if i+1 < len(tokens) {
			end = tokens[i+1].lineStart
		}
		body := ""
		if tok.bodyStart < end {
			body = strings.TrimSpace(string(src[tok.bodyStart:end]))
		}
		out = append(out, types.Section{
			Heading: tok.text,
			Body:    body,
			Level:   tok.level,
		})
	}
	return out
}

// atxLevel returns the number of opening '#' characters of an ATX heading
// prefix (up to three spaces of indent, 1-6 hashes, then whitespace or
// end of prefix), or 0 when prefix is not one.
func atxLevel(prefix []byte) int {
	i := 0
	for i < len(prefix) && i < 3 && prefix[i] == ' ' {
		i++
	}
	level := 0
	for i < len(prefix) && prefix[i] == '#' {
		level++
		i++
	}
	if level == 0 || level > 6 {
		return 0
	}
	if i < len(prefix) && prefix[i] != ' ' && prefix[i] != '\t' {
		return 0
	}
	return level
}
