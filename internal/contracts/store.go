package contracts

import (
	"context"
	"errors"

	"github.com/contractmanage/pkg/elementtype"
	"github.com/contractmanage/pkg/models"
)

// ElementFilter selects contract elements. Zero fields do not filter.
type ElementFilter struct {
	ContractID  int64
	ElementType elementtype.Type
}

// ClauseFilter selects clauses. Zero fields do not filter.
type ClauseFilter struct {
	// TitleContains matches a case-insensitive substring of the title.
	TitleContains string
	Category      models.ClauseCategory
}

// Queries is the persistence collaborator. Inserts assign generated ids back
// onto the passed value; reads return ErrNotFound for missing rows.
type Queries interface {
	InsertContract(ctx context.Context, c *models.Contract) error
	GetContract(ctx context.Context, id int64) (*models.Contract, error)
	DeleteContract(ctx context.Context, id int64) error

	InsertElement(ctx context.Context, e *models.ContractElement) error
	GetElement(ctx context.Context, id int64) (*models.ContractElement, error)
	UpdateElement(ctx context.Context, e *models.ContractElement) error
	DeleteElement(ctx context.Context, id int64) error
	// ListElements returns matches ordered by OrderIndex, then insertion order.
	ListElements(ctx context.Context, f ElementFilter) ([]models.ContractElement, error)
	DeleteElements(ctx context.Context, f ElementFilter) (int64, error)

	// InsertClause keeps a non-zero ClauseID, otherwise assigns one.
	InsertClause(ctx context.Context, c *models.Clause) error
	GetClause(ctx context.Context, id int64) (*models.Clause, error)
	ListClauses(ctx context.Context, f ClauseFilter) ([]models.Clause, error)

	// InsertTemplateConfig keeps a non-zero ConfigID, otherwise assigns one.
	InsertTemplateConfig(ctx context.Context, c *models.TemplateElementConfig) error
	ListTemplateConfigs(ctx context.Context, templateID int64) ([]models.TemplateElementConfig, error)
}

// Store is Queries plus a transaction boundary. InTx commits when fn returns
// nil and rolls back every write made through q otherwise.
type Store interface {
	Queries
	InTx(ctx context.Context, fn func(q Queries) error) error
}

// clauseFinder adapts Queries to instantiate.ClauseLookup.
type clauseFinder struct {
	q Queries
}

func (f clauseFinder) FindClause(ctx context.Context, id int64) (*models.Clause, error) {
	c, err := f.q.GetClause(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	return c, err
}
