// Package instantiate materializes template element configs into contract
// elements. It is stateless and safe for concurrent use.
package instantiate

import (
	"cmp"
	"context"
	"fmt"
	"slices"

	"github.com/rs/zerolog/log"

	"github.com/contractmanage/pkg/elementtype"
	"github.com/contractmanage/pkg/models"
)

// Warning reasons.
const (
	ReasonUnknownElementType = "unknown_element_type"
	ReasonDanglingClause     = "dangling_clause_reference"
	ReasonNoContentSource    = "no_content_source"
)

// Warning flags a config that produced a degraded element. Degraded elements
// are still materialized.
type Warning struct {
	ConfigID   int64  `json:"configId"`
	OrderIndex int    `json:"orderIndex"`
	Reason     string `json:"reason"`
	Detail     string `json:"detail,omitempty"`
}

// Result holds the elements in document order plus any warnings.
type Result struct {
	Elements []models.ContractElement
	Warnings []Warning
}

type Engine struct {
	content ContentResolver
}

func NewEngine(clauses ClauseLookup) *Engine {
	return &Engine{content: NewContentResolver(clauses)}
}

// Sorted returns a copy of configs stably sorted by OrderIndex. Ties keep
// their input order.
func Sorted(configs []models.TemplateElementConfig) []models.TemplateElementConfig {
	out := slices.Clone(configs)
	slices.SortStableFunc(out, func(a, b models.TemplateElementConfig) int {
		return cmp.Compare(a.OrderIndex, b.OrderIndex)
	})
	return out
}

// Instantiate builds one element per config, bound to contractID, in
// ascending OrderIndex order. The input slice is not modified.
func (e *Engine) Instantiate(ctx context.Context, configs []models.TemplateElementConfig, contractID int64) (Result, error) {
	sorted := Sorted(configs)
	res := Result{Elements: make([]models.ContractElement, 0, len(sorted))}

	for _, cfg := range sorted {
		el := models.ContractElement{
			ContractID: contractID,
			Attributes: cfg.DefaultAttributes,
			OrderIndex: cfg.OrderIndex,
		}

		if typ, ok := elementtype.Resolve(cfg.ElementType); ok {
			el.ElementType = typ
		} else {
			res.Warnings = append(res.Warnings, Warning{
				ConfigID:   cfg.ConfigID,
				OrderIndex: cfg.OrderIndex,
				Reason:     ReasonUnknownElementType,
				Detail:     cfg.ElementType,
			})
		}

		resolved, err := e.content.Resolve(ctx, cfg)
		if err != nil {
			return Result{}, fmt.Errorf("config %d: %w", cfg.ConfigID, err)
		}
		el.Content = resolved.Content
		el.SourceClauseID = resolved.SourceClauseID

		switch {
		case resolved.Dangling:
			res.Warnings = append(res.Warnings, Warning{
				ConfigID:   cfg.ConfigID,
				OrderIndex: cfg.OrderIndex,
				Reason:     ReasonDanglingClause,
				Detail:     fmt.Sprintf("clause %d", *resolved.SourceClauseID),
			})
		case cfg.Source() == nil:
			res.Warnings = append(res.Warnings, Warning{
				ConfigID:   cfg.ConfigID,
				OrderIndex: cfg.OrderIndex,
				Reason:     ReasonNoContentSource,
				Detail:     cfg.ContentSource,
			})
		}

		log.Debug().
			Int64("config_id", cfg.ConfigID).
			Int("order_index", cfg.OrderIndex).
			Str("element_type", string(el.ElementType)).
			Bool("has_content", el.Content != nil).
			Msg("materialized template element")

		res.Elements = append(res.Elements, el)
	}

	for _, w := range res.Warnings {
		log.Warn().
			Int64("contract_id", contractID).
			Int64("config_id", w.ConfigID).
			Int("order_index", w.OrderIndex).
			Str("reason", w.Reason).
			Str("detail", w.Detail).
			Msg("degraded template element")
	}

	return res, nil
}
