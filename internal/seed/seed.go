// Package seed loads clause library and template fixtures from YAML.
package seed

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"

	"github.com/contractmanage/internal/contracts"
	"github.com/contractmanage/pkg/models"
)

// Fixture is the root of a seed file.
type Fixture struct {
	Clauses   []Clause   `yaml:"clauses"`
	Templates []Template `yaml:"templates"`
}

type Clause struct {
	ID       int64  `yaml:"id"`
	Category string `yaml:"category"`
	Title    string `yaml:"title"`
	Content  string `yaml:"content"`
}

type Template struct {
	ID       int64     `yaml:"id"`
	Elements []Element `yaml:"elements"`
}

// Element is one template element config. Type and Source are stored as
// written; they are interpreted at instantiation time.
type Element struct {
	ID         int64   `yaml:"id"`
	Order      int     `yaml:"order"`
	Type       string  `yaml:"type"`
	Source     string  `yaml:"source"`
	Content    *string `yaml:"content"`
	Attributes *string `yaml:"attributes"`
	Clause     *int64  `yaml:"clause"`
}

// Stats counts the rows written by Apply.
type Stats struct {
	Clauses int
	Configs int
}

// Parse decodes a fixture. Unknown keys are rejected.
func Parse(r io.Reader) (*Fixture, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var f Fixture
	if err := dec.Decode(&f); err != nil {
		if err == io.EOF {
			return &f, nil
		}
		return nil, fmt.Errorf("decode seed fixture: %w", err)
	}
	if err := f.validate(); err != nil {
		return nil, err
	}
	return &f, nil
}

// ParseFile reads and decodes the fixture at path.
func ParseFile(path string) (*Fixture, error) {
	fh, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open seed fixture: %w", err)
	}
	defer fh.Close()
	return Parse(fh)
}

func (f *Fixture) validate() error {
	clauseIDs := make(map[int64]bool)
	for i, c := range f.Clauses {
		if strings.TrimSpace(c.Title) == "" {
			return fmt.Errorf("clause #%d: title is required", i+1)
		}
		if c.Category != "" {
			if _, ok := models.ParseClauseCategory(c.Category); !ok {
				return fmt.Errorf("clause #%d: unknown category %q", i+1, c.Category)
			}
		}
		if c.ID != 0 {
			if clauseIDs[c.ID] {
				return fmt.Errorf("clause #%d: id %d is used twice", i+1, c.ID)
			}
			clauseIDs[c.ID] = true
		}
	}
	configIDs := make(map[int64]bool)
	for i, t := range f.Templates {
		if t.ID <= 0 {
			return fmt.Errorf("template #%d: id must be positive", i+1)
		}
		if len(t.Elements) == 0 {
			return fmt.Errorf("template %d: no elements", t.ID)
		}
		for _, el := range t.Elements {
			if el.ID == 0 {
				continue
			}
			if configIDs[el.ID] {
				return fmt.Errorf("template %d: element id %d is used twice", t.ID, el.ID)
			}
			configIDs[el.ID] = true
		}
	}
	return nil
}

// Apply writes every clause and template config in a single transaction.
func Apply(ctx context.Context, store contracts.Store, f *Fixture) (Stats, error) {
	var stats Stats
	err := store.InTx(ctx, func(q contracts.Queries) error {
		for _, c := range f.Clauses {
			cat := models.CategoryOthers
			if c.Category != "" {
				cat, _ = models.ParseClauseCategory(c.Category)
			}
			clause := models.Clause{ClauseID: c.ID, Category: cat, Title: c.Title, Content: c.Content}
			if err := q.InsertClause(ctx, &clause); err != nil {
				return fmt.Errorf("insert clause %q: %w", c.Title, err)
			}
			stats.Clauses++
		}
		for _, t := range f.Templates {
			for _, el := range t.Elements {
				cfg := models.TemplateElementConfig{
					ConfigID:          el.ID,
					TemplateID:        t.ID,
					OrderIndex:        el.Order,
					ElementType:       el.Type,
					ContentSource:     el.Source,
					StaticContent:     el.Content,
					SourceClauseID:    el.Clause,
					DefaultAttributes: el.Attributes,
				}
				if err := q.InsertTemplateConfig(ctx, &cfg); err != nil {
					return fmt.Errorf("insert template %d config (order %d): %w", t.ID, el.Order, err)
				}
				stats.Configs++
			}
		}
		return nil
	})
	if err != nil {
		return Stats{}, err
	}

	log.Info().Int("clauses", stats.Clauses).Int("configs", stats.Configs).Msg("seed fixture applied")
	return stats, nil
}
