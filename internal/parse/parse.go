// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package parse turns persisted scout reports into report metadata and a
// list of opportunity candidates.
//
// Markdown reports are split into sections on level 1-3 headings and
// walked in order: a stop heading ("Pattern Summary", "Bottom Line") ends
// extraction, meta headings are skipped, and any other section with a
// body longer than 20 characters becomes a candidate. JSON reports are
// read through ordered chains of alternate field names (chains.yaml), so
// producers that name their fields differently still parse.
//
// Only undecodable input fails: malformed JSON, or markdown with no
// headings at all. Every narrower gap degrades to a default.
package parse

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/yuin/goldmark"
	"go.uber.org/zap"

	"github.com/pdiddy/journal-scout/pkg/types"
)

var (
	// ErrNoHeadings is returned for markdown without any level 1-3 heading.
	ErrNoHeadings = errors.New("markdown report has no headings")

	// ErrMalformedJSON is returned when a JSON report does not decode to
	// a single object.
	ErrMalformedJSON = errors.New("malformed JSON report")
)

// DefaultTitle is used for markdown reports without a level-1 heading.
const DefaultTitle = "Scout Report"

// Options configures a Parser.
type Options struct {
	// Now supplies the date used in generated JSON report titles.
	Now    func() time.Time
	Logger *zap.Logger
}

// Parser extracts opportunities from reports. It is safe for concurrent use.
type Parser struct {
	md     goldmark.Markdown
	chains *chains
	now    func() time.Time
	log    *zap.Logger
}

// New returns a Parser.
func New(opts Options) *Parser {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &Parser{
		md:     goldmark.New(),
		chains: defaultChains,
		now:    opts.Now,
		log:    opts.Logger,
	}
}

// ParseFile reads path and parses it in the format its extension selects.
func (p *Parser) ParseFile(path string) (*types.ParsedReport, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading report: %w", err)
	}
	rep, err := p.Parse(string(data), types.FormatForPath(path))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return rep, nil
}

// Parse extracts report metadata and opportunities from raw.
func (p *Parser) Parse(raw string, format types.ReportFormat) (*types.ParsedReport, error) {
	var (
		rep *types.ParsedReport
		err error
	)
	switch format {
	case types.FormatJSON:
		rep, err = p.parseJSON(raw)
	case types.FormatMarkdown, "":
		rep, err = p.parseMarkdown(raw)
	default:
		return nil, fmt.Errorf("unknown report format %q", format)
	}
	if err != nil {
		return nil, err
	}
	p.log.Debug("report parsed",
		zap.String("format", string(format)),
		zap.String("title", rep.Title),
		zap.String("source_type", string(rep.SourceType)),
		zap.Int("sections", len(rep.Sections)),
		zap.Int("opportunities", len(rep.Opportunities)))
	return rep, nil
}

func (p *Parser) parseMarkdown(raw string) (*types.ParsedReport, error) {
	src := []byte(strings.ReplaceAll(raw, "\r\n", "\n"))

	tokens := tokenize(p.md, src)
	if len(tokens) == 0 {
		return nil, ErrNoHeadings
	}

	title := DefaultTitle
	for _, t := range tokens {
		if t.level == 1 && t.text != "" {
			title = t.text
			break
		}
	}

	secs := sections(src, tokens)
	source := classifySource(raw)

	return &types.ParsedReport{
		ReportDocument: types.ReportDocument{
			Title:             title,
			RawContent:        raw,
			SourceType:        source,
			DeclaredItemCount: declaredItemCount(raw),
			Sections:          secs,
		},
		Content:       raw,
		Opportunities: extractOpportunities(secs, source),
	}, nil
}

func (p *Parser) parseJSON(raw string) (*types.ParsedReport, error) {
	dec := json.NewDecoder(strings.NewReader(raw))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedJSON, err)
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, fmt.Errorf("%w: trailing data after object", ErrMalformedJSON)
	}
	doc, ok := v.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: top level is not an object", ErrMalformedJSON)
	}

	rc := p.chains.report

	title, ok := rc.title.text(doc)
	if !ok {
		title = "Scout Analysis - " + p.now().Format("2006-01-02")
	}

	source := types.SourceTwitter
	if s, ok := rc.source.text(doc); ok {
		if st := types.SourceType(strings.ToLower(s)); st.Valid() {
			source = st
		}
	}

	var count *int
	if n, ok := rc.itemCount.integer(doc); ok {
		count = &n
	}

	content, ok := rc.content.text(doc)
	if !ok {
		content = indentJSON(raw)
	}

	var opps []types.OpportunityCandidate
	if items, ok := rc.items.list(doc); ok {
		for i, it := range items {
			obj, ok := it.(map[string]any)
			if !ok {
				p.log.Debug("skipping non-object report item", zap.Int("index", i))
				continue
			}
			opps = append(opps, p.jsonItem(obj, source))
		}
	}

	return &types.ParsedReport{
		ReportDocument: types.ReportDocument{
			Title:             title,
			RawContent:        raw,
			SourceType:        source,
			DeclaredItemCount: count,
		},
		Content:       content,
		Opportunities: opps,
	}, nil
}

func (p *Parser) jsonItem(obj map[string]any, source types.SourceType) types.OpportunityCandidate {
	ic := p.chains.item

	title, ok := ic.title.text(obj)
	if !ok {
		title = "Untitled"
	}
	desc, _ := ic.description.text(obj)

	priority := types.PriorityBacklog
	if v, ok := ic.priority.text(obj); ok {
		priority = ClassifyExplicit(v)
	} else if d, ok := ic.difficulty.text(obj); ok && strings.EqualFold(d, "easy") {
		priority = types.PriorityBuildNow
	}

	return types.OpportunityCandidate{
		Title:       title,
		Description: desc,
		SourceType:  source,
		Priority:    priority,
	}
}

func indentJSON(raw string) string {
	var buf bytes.Buffer
	if err := json.Indent(&buf, []byte(strings.TrimSpace(raw)), "", "  "); err != nil {
		return raw
	}
	return buf.String()
}
