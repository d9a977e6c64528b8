// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package collect

import (
	"context"
	_ "embed"
	"fmt"
	"os"
	"strings"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/journal-scout/pkg/types"
)

//go:embed default_queries.yaml
var defaultQueries []byte

// QuerySet is the on-disk list of query groups. Groups are collected and
// rendered in file order.
type QuerySet struct {
	Version int          `yaml:"version"`
	Groups  []QueryGroup `yaml:"groups"`
}

// QueryGroup is one report category and the source its queries run against.
type QueryGroup struct {
	Category types.Category `yaml:"category"`
	Source   types.Source   `yaml:"source"`
	Queries  []string       `yaml:"queries"`
}

// DefaultQuerySet returns the built-in health and business query groups.
func DefaultQuerySet() (*QuerySet, error) {
	return parseQuerySet(defaultQueries)
}

// LoadQuerySet reads a query set from path. An empty path returns the
// default set.
func LoadQuerySet(path string) (*QuerySet, error) {
	if path == "" {
		return DefaultQuerySet()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading query set: %w", err)
	}
	qs, err := parseQuerySet(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return qs, nil
}

func parseQuerySet(data []byte) (*QuerySet, error) {
	var qs QuerySet
	if err := yaml.Unmarshal(data, &qs); err != nil {
		return nil, fmt.Errorf("parsing query set: %w", err)
	}
	if err := qs.validate(); err != nil {
		return nil, err
	}
	return &qs, nil
}

func (qs *QuerySet) validate() error {
	if len(qs.Groups) == 0 {
		return fmt.Errorf("query set has no groups")
	}
	for i := range qs.Groups {
		g := &qs.Groups[i]
		if g.Category == "" {
			return fmt.Errorf("group %d: category is required", i)
		}
		if !g.Category.Valid() {
			return fmt.Errorf("group %d: unknown category %q", i, g.Category)
		}
		if !g.Source.Valid() {
			return fmt.Errorf("group %q: unknown source %q", g.Category, g.Source)
		}
		queries := g.Queries[:0]
		for _, q := range g.Queries {
			if q = strings.TrimSpace(q); q != "" {
				queries = append(queries, q)
			}
		}
		if len(queries) == 0 {
			return fmt.Errorf("group %q: no queries", g.Category)
		}
		g.Queries = queries
	}
	return nil
}

// CollectGroup collects one query group and stamps every paper with the
// group's category.
func (c *Collector) CollectGroup(ctx context.Context, g QueryGroup, lookbackDays int) (Result, error) {
	res, err := c.Collect(ctx, g.Queries, lookbackDays, g.Source)
	for i := range res.Papers {
		res.Papers[i].Category = g.Category
	}
	return res, err
}
