// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package parse

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"go.yaml.in/yaml/v3"
)

//go:embed chains.yaml
var chainsYAML []byte

const chainsVersion = 1

type chainFile struct {
	Version int `yaml:"version"`
	Report  struct {
		Title     []string `yaml:"title"`
		Source    []string `yaml:"source"`
		ItemCount []string `yaml:"item_count"`
		Content   []string `yaml:"content"`
		Items     []string `yaml:"items"`
	} `yaml:"report"`
	Item struct {
		Title       []string `yaml:"title"`
		Description []string `yaml:"description"`
		Priority    []string `yaml:"priority"`
		Difficulty  []string `yaml:"difficulty"`
	} `yaml:"item"`
}

// accessor reads one field of a decoded JSON object.
type accessor func(obj map[string]any) (any, bool)

// fieldChain is an ordered list of accessors; the first present value wins.
type fieldChain []accessor

type reportChains struct {
	title, source, itemCount, content, items fieldChain
}

type itemChains struct {
	title, description, priority, difficulty fieldChain
}

type chains struct {
	report reportChains
	item   itemChains
}

var defaultChains = mustLoadChains(chainsYAML)

func mustLoadChains(data []byte) *chains {
	c, err := loadChains(data)
	if err != nil {
		panic(fmt.Sprintf("parse: embedded field chains: %v", err))
	}
	return c
}

func loadChains(data []byte) (*chains, error) {
	var f chainFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("decoding field chains: %w", err)
	}
	if f.Version != chainsVersion {
		return nil, fmt.Errorf("unsupported field chain version %d", f.Version)
	}

	var c chains
	for _, b := range []struct {
		name  string
		names []string
		dst   *fieldChain
	}{
		{"report.title", f.Report.Title, &c.report.title},
		{"report.source", f.Report.Source, &c.report.source},
		{"report.item_count", f.Report.ItemCount, &c.report.itemCount},
		{"report.content", f.Report.Content, &c.report.content},
		{"report.items", f.Report.Items, &c.report.items},
		{"item.title", f.Item.Title, &c.item.title},
		{"item.description", f.Item.Description, &c.item.description},
		{"item.priority", f.Item.Priority, &c.item.priority},
		{"item.difficulty", f.Item.Difficulty, &c.item.difficulty},
	} {
		if len(b.names) == 0 {
			return nil, fmt.Errorf("field chain %s is empty", b.name)
		}
		*b.dst = compileChain(b.names)
	}
	return &c, nil
}

func compileChain(names []string) fieldChain {
	chain := make(fieldChain, 0, len(names))
	for _, n := range names {
		chain = append(chain, fieldAccessor(strings.Split(n, ".")))
	}
	return chain
}

func fieldAccessor(path []string) accessor {
	return func(obj map[string]any) (any, bool) {
		var cur any = obj
		for _, key := range path {
			m, ok := cur.(map[string]any)
			if !ok {
				return nil, false
			}
			if cur, ok = m[key]; !ok {
				return nil, false
			}
		}
		return cur, true
	}
}

// first returns the first value in the chain that is present, non-null
// and accepted.
func (c fieldChain) first(obj map[string]any, accept func(any) bool) (any, bool) {
	for _, get := range c {
		if v, ok := get(obj); ok && v != nil && accept(v) {
			return v, true
		}
	}
	return nil, false
}

// text returns the first non-empty scalar value as text.
func (c fieldChain) text(obj map[string]any) (string, bool) {
	v, ok := c.first(obj, func(v any) bool {
		s, ok := scalarString(v)
		return ok && s != ""
	})
	if !ok {
		return "", false
	}
	s, _ := scalarString(v)
	return s, true
}

// integer returns the first value that reads as an integer.
func (c fieldChain) integer(obj map[string]any) (int, bool) {
	v, ok := c.first(obj, func(v any) bool {
		_, ok := intValue(v)
		return ok
	})
	if !ok {
		return 0, false
	}
	n, _ := intValue(v)
	return n, true
}

// list returns the first non-empty array.
func (c fieldChain) list(obj map[string]any) ([]any, bool) {
	v, ok := c.first(obj, func(v any) bool {
		l, ok := v.([]any)
		return ok && len(l) > 0
	})
	if !ok {
		return nil, false
	}
	return v.([]any), true
}

func scalarString(v any) (string, bool) {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t), true
	case json.Number:
		return t.String(), true
	case bool:
		return strconv.FormatBool(t), true
	}
	return "", false
}

func intValue(v any) (int, bool) {
	switch t := v.(type) {
	case json.Number:
		if n, err := t.Int64(); err == nil {
			return int(n), true
		}
		if f, err := t.Float64(); err == nil && f == float64(int(f)) {
			return int(f), true
		}
	case string:
		if n, err := strconv.Atoi(strings.TrimSpace(t)); err == nil {
			return n, true
		}
	}
	return 0, false
}
