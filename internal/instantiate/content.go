package instantiate

import (
	"context"
	"fmt"

	"github.com/contractmanage/pkg/models"
)

// ClauseLookup reads clauses from the clause library.
type ClauseLookup interface {
	// FindClause returns (nil, nil) when no clause has the given id.
	FindClause(ctx context.Context, id int64) (*models.Clause, error)
}

// Resolution is the content and attribution resolved for one config.
type Resolution struct {
	Content        *string
	SourceClauseID *int64
	// Dangling is set when a clause was referenced but does not exist.
	Dangling bool
}

// ContentResolver turns a config's content source into element text.
type ContentResolver struct {
	clauses ClauseLookup
}

func NewContentResolver(clauses ClauseLookup) ContentResolver {
	return ContentResolver{clauses: clauses}
}

// Resolve only touches the clause library for ClauseRef sources. A missing
// clause is not an error: content stays nil and the requested id is kept as
// attribution. Errors are returned only when the lookup itself fails.
func (r ContentResolver) Resolve(ctx context.Context, cfg models.TemplateElementConfig) (Resolution, error) {
	switch src := cfg.Source().(type) {
	case models.StaticText:
		return Resolution{Content: src.Text}, nil
	case models.ClauseRef:
		clause, err := r.clauses.FindClause(ctx, src.ClauseID)
		if err != nil {
			return Resolution{}, fmt.Errorf("lookup clause %d: %w", src.ClauseID, err)
		}
		if clause == nil {
			return Resolution{SourceClauseID: models.Int64Ptr(src.ClauseID), Dangling: true}, nil
		}
		return Resolution{
			Content:        models.StringPtr(clause.Content),
			SourceClauseID: models.Int64Ptr(clause.ClauseID),
		}, nil
	default:
		return Resolution{}, nil
	}
}
