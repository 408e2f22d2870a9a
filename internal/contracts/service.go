// Package contracts owns contract creation and deletion as atomic units of
// work, plus element management and clause library reads on top of a Store.
package contracts

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/contractmanage/internal/instantiate"
	"github.com/contractmanage/pkg/elementtype"
	"github.com/contractmanage/pkg/models"
)

type Service struct {
	store Store
	now   func() time.Time
}

type Option func(*Service)

// WithClock overrides the time source used to stamp contracts.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func NewService(store Store, opts ...Option) *Service {
	s := &Service{store: store, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Created is the result of CreateFromTemplate: the persisted contract, its
// elements in document order, and one warning per degraded element.
type Created struct {
	models.ContractWithElements
	Warnings []instantiate.Warning `json:"warnings,omitempty"`
}

// CreateFromTemplate instantiates every element config of templateID into a
// new contract. The contract and all of its elements are written in one
// transaction; a template without configs fails with KindEmptyTemplate
// before anything is written.
func (s *Service) CreateFromTemplate(ctx context.Context, templateID int64, details models.Contract) (*Created, error) {
	if templateID <= 0 {
		return nil, invalidInput(ResourceTemplate, fmt.Sprintf("template id must be positive, got %d", templateID))
	}
	if strings.TrimSpace(details.ContractName) == "" {
		return nil, invalidInput(ResourceContract, "contract name is required")
	}

	configs, err := s.store.ListTemplateConfigs(ctx, templateID)
	if err != nil {
		return nil, persistence(ResourceTemplate, "list template configs", err)
	}
	if len(configs) == 0 {
		return nil, &Error{
			Kind:     KindEmptyTemplate,
			Resource: ResourceTemplate,
			ID:       templateID,
			Msg:      fmt.Sprintf("template %d has no element configs", templateID),
		}
	}

	now := s.now().UTC()
	contract := models.Contract{
		ContractName: details.ContractName,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	var res instantiate.Result
	err = s.store.InTx(ctx, func(q Queries) error {
		if err := q.InsertContract(ctx, &contract); err != nil {
			return persistence(ResourceContract, "insert contract", err)
		}

		var err error
		res, err = instantiate.NewEngine(clauseFinder{q: q}).Instantiate(ctx, configs, contract.ContractID)
		if err != nil {
			return persistence(ResourceClause, "resolve clause", err)
		}

		// Insert in document order; element ids then follow orderIndex.
		for i := range res.Elements {
			if err := q.InsertElement(ctx, &res.Elements[i]); err != nil {
				return persistence(ResourceElement, "insert element", err)
			}
		}
		return nil
	})
	if err != nil {
		log.Error().Err(err).Int64("template_id", templateID).Msg("contract creation from template rolled back")
		return nil, persistence(ResourceContract, "commit", err)
	}

	log.Info().
		Int64("template_id", templateID).
		Int64("contract_id", contract.ContractID).
		Int("elements", len(res.Elements)).
		Int("warnings", len(res.Warnings)).
		Msg("contract created from template")

	return &Created{
		ContractWithElements: models.ContractWithElements{Contract: contract, Elements: res.Elements},
		Warnings:             res.Warnings,
	}, nil
}

// CreatePlain persists a contract with no elements.
func (s *Service) CreatePlain(ctx context.Context, details models.Contract) (*models.Contract, error) {
	if strings.TrimSpace(details.ContractName) == "" {
		return nil, invalidInput(ResourceContract, "contract name is required")
	}
	now := s.now().UTC()
	contract := models.Contract{ContractName: details.ContractName, CreatedAt: now, UpdatedAt: now}
	if err := s.store.InsertContract(ctx, &contract); err != nil {
		return nil, persistence(ResourceContract, "insert contract", err)
	}
	log.Info().Int64("contract_id", contract.ContractID).Msg("contract created")
	return &contract, nil
}

// DeleteContract removes a contract and all of its elements in one
// transaction, elements first.
func (s *Service) DeleteContract(ctx context.Context, id int64) error {
	var removed int64
	err := s.store.InTx(ctx, func(q Queries) error {
		if _, err := q.GetContract(ctx, id); err != nil {
			return lookup(ResourceContract, id, "get contract", err)
		}
		n, err := q.DeleteElements(ctx, ElementFilter{ContractID: id})
		if err != nil {
			return persistence(ResourceElement, "delete elements", err)
		}
		removed = n
		if err := q.DeleteContract(ctx, id); err != nil {
			return lookup(ResourceContract, id, "delete contract", err)
		}
		return nil
	})
	if err != nil {
		return persistence(ResourceContract, "commit", err)
	}
	log.Info().Int64("contract_id", id).Int64("elements", removed).Msg("contract deleted")
	return nil
}

// GetContract returns a contract with its elements in document order.
func (s *Service) GetContract(ctx context.Context, id int64) (*models.ContractWithElements, error) {
	c, err := s.store.GetContract(ctx, id)
	if err != nil {
		return nil, lookup(ResourceContract, id, "get contract", err)
	}
	els, err := s.store.ListElements(ctx, ElementFilter{ContractID: id})
	if err != nil {
		return nil, persistence(ResourceElement, "list elements", err)
	}
	return &models.ContractWithElements{Contract: *c, Elements: els}, nil
}

func (s *Service) ListElements(ctx context.Context, contractID int64) ([]models.ContractElement, error) {
	return s.listElements(ctx, ElementFilter{ContractID: contractID})
}

// ListClauseElements returns only the CLAUSE elements of a contract.
func (s *Service) ListClauseElements(ctx context.Context, contractID int64) ([]models.ContractElement, error) {
	return s.listElements(ctx, ElementFilter{ContractID: contractID, ElementType: elementtype.Clause})
}

func (s *Service) listElements(ctx context.Context, f ElementFilter) ([]models.ContractElement, error) {
	if _, err := s.store.GetContract(ctx, f.ContractID); err != nil {
		return nil, lookup(ResourceContract, f.ContractID, "get contract", err)
	}
	els, err := s.store.ListElements(ctx, f)
	if err != nil {
		return nil, persistence(ResourceElement, "list elements", err)
	}
	return els, nil
}

func (s *Service) GetElement(ctx context.Context, id int64) (*models.ContractElement, error) {
	e, err := s.store.GetElement(ctx, id)
	if err != nil {
		return nil, lookup(ResourceElement, id, "get element", err)
	}
	return e, nil
}

// CreateElement adds a single element to an existing contract. A non-empty
// element type must resolve; it is stored in canonical form.
func (s *Service) CreateElement(ctx context.Context, e models.ContractElement) (*models.ContractElement, error) {
	if e.ContractID <= 0 {
		return nil, invalidInput(ResourceElement, "contractId is required")
	}
	typ, err := canonicalType(string(e.ElementType))
	if err != nil {
		return nil, err
	}
	e.ElementID = 0
	e.ElementType = typ

	err = s.store.InTx(ctx, func(q Queries) error {
		if _, err := q.GetContract(ctx, e.ContractID); err != nil {
			return lookup(ResourceContract, e.ContractID, "get contract", err)
		}
		if err := q.InsertElement(ctx, &e); err != nil {
			return persistence(ResourceElement, "insert element", err)
		}
		return nil
	})
	if err != nil {
		return nil, persistence(ResourceElement, "commit", err)
	}
	log.Info().Int64("contract_id", e.ContractID).Int64("element_id", e.ElementID).Msg("element created")
	return &e, nil
}

// ElementPatch carries the fields of an element update. Nil fields keep the
// stored value.
type ElementPatch struct {
	ContractID     *int64  `json:"contractId,omitempty"`
	ElementType    *string `json:"elementType,omitempty"`
	Content        *string `json:"content,omitempty"`
	Attributes     *string `json:"attributes,omitempty"`
	SourceClauseID *int64  `json:"sourceClauseId,omitempty"`
	OrderIndex     *int    `json:"orderIndex,omitempty"`
}

// UpdateElement merges patch into the stored element. The element id never
// changes; moving the element to another contract requires that contract
// to exist.
func (s *Service) UpdateElement(ctx context.Context, id int64, patch ElementPatch) (*models.ContractElement, error) {
	var updated models.ContractElement
	err := s.store.InTx(ctx, func(q Queries) error {
		cur, err := q.GetElement(ctx, id)
		if err != nil {
			return lookup(ResourceElement, id, "get element", err)
		}
		next := cur.Clone()

		if patch.ContractID != nil && *patch.ContractID != cur.ContractID {
			if _, err := q.GetContract(ctx, *patch.ContractID); err != nil {
				return lookup(ResourceContract, *patch.ContractID, "get contract", err)
			}
			next.ContractID = *patch.ContractID
		}
		if patch.ElementType != nil {
			typ, err := canonicalType(*patch.ElementType)
			if err != nil {
				return err
			}
			next.ElementType = typ
		}
		if patch.Content != nil {
			next.Content = patch.Content
		}
		if patch.Attributes != nil {
			next.Attributes = patch.Attributes
		}
		if patch.SourceClauseID != nil {
			next.SourceClauseID = patch.SourceClauseID
		}
		if patch.OrderIndex != nil {
			next.OrderIndex = *patch.OrderIndex
		}

		if err := q.UpdateElement(ctx, &next); err != nil {
			return lookup(ResourceElement, id, "update element", err)
		}
		updated = next
		return nil
	})
	if err != nil {
		return nil, persistence(ResourceElement, "commit", err)
	}
	log.Info().Int64("element_id", id).Msg("element updated")
	return &updated, nil
}

func (s *Service) DeleteElement(ctx context.Context, id int64) error {
	if err := s.store.DeleteElement(ctx, id); err != nil {
		return lookup(ResourceElement, id, "delete element", err)
	}
	log.Info().Int64("element_id", id).Msg("element deleted")
	return nil
}

// ListTemplateConfigs returns a template's element configs in instantiation
// order. A template without configs is reported as not found.
func (s *Service) ListTemplateConfigs(ctx context.Context, templateID int64) ([]models.TemplateElementConfig, error) {
	configs, err := s.store.ListTemplateConfigs(ctx, templateID)
	if err != nil {
		return nil, persistence(ResourceTemplate, "list template configs", err)
	}
	if len(configs) == 0 {
		return nil, notFound(ResourceTemplate, templateID)
	}
	return instantiate.Sorted(configs), nil
}

func (s *Service) GetClause(ctx context.Context, id int64) (*models.Clause, error) {
	c, err := s.store.GetClause(ctx, id)
	if err != nil {
		return nil, lookup(ResourceClause, id, "get clause", err)
	}
	return c, nil
}

func (s *Service) ListClauses(ctx context.Context) ([]models.Clause, error) {
	return s.listClauses(ctx, ClauseFilter{})
}

// ClausesByTitle matches a case-insensitive fragment of the clause title.
func (s *Service) ClausesByTitle(ctx context.Context, fragment string) ([]models.Clause, error) {
	return s.listClauses(ctx, ClauseFilter{TitleContains: strings.TrimSpace(fragment)})
}

func (s *Service) ClausesByCategory(ctx context.Context, category string) ([]models.Clause, error) {
	cat, ok := models.ParseClauseCategory(category)
	if !ok {
		return nil, invalidInput(ResourceClause, fmt.Sprintf("unknown clause category %q", category))
	}
	return s.listClauses(ctx, ClauseFilter{Category: cat})
}

// ClauseCategories lists every clause category in declaration order.
func (s *Service) ClauseCategories() []models.ClauseCategory {
	return append([]models.ClauseCategory(nil), models.ClauseCategories...)
}

func (s *Service) listClauses(ctx context.Context, f ClauseFilter) ([]models.Clause, error) {
	out, err := s.store.ListClauses(ctx, f)
	if err != nil {
		return nil, persistence(ResourceClause, "list clauses", err)
	}
	return out, nil
}

func canonicalType(raw string) (elementtype.Type, error) {
	if strings.TrimSpace(raw) == "" {
		return "", nil
	}
	typ, ok := elementtype.Resolve(raw)
	if !ok {
		return "", invalidInput(ResourceElement, fmt.Sprintf("unknown element type %q", raw))
	}
	return typ, nil
}
