package models

import (
	"time"

	"github.com/contractmanage/pkg/elementtype"
)

// Contract is the parent record of a materialized document. Its elements are
// not stored inline; they are obtained by filtering elements on ContractID.
type Contract struct {
	ContractID   int64     `json:"contractId" db:"contract_id"`
	ContractName string    `json:"contractName" db:"contract_name"`
	CreatedAt    time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt    time.Time `json:"updatedAt" db:"updated_at"`
}

// ContractElement is one ordered piece of a contract's content.
//
// Nil pointers mean "absent": a clause-sourced element whose clause vanished
// keeps SourceClauseID but has a nil Content.
type ContractElement struct {
	ElementID      int64            `json:"elementId" db:"element_id"`
	ContractID     int64            `json:"contractId" db:"contract_id"`
	ElementType    elementtype.Type `json:"elementType,omitempty" db:"element_type"`
	Content        *string          `json:"content,omitempty" db:"content"`
	Attributes     *string          `json:"attributes,omitempty" db:"attributes"`
	SourceClauseID *int64           `json:"sourceClauseId,omitempty" db:"source_clause_id"`
	OrderIndex     int              `json:"orderIndex" db:"order_index"`
}

// Clause is a reusable block of legal text from the clause library.
type Clause struct {
	ClauseID int64          `json:"clauseId" db:"clause_id"`
	Category ClauseCategory `json:"category,omitempty" db:"clause_category"`
	Title    string         `json:"title" db:"title"`
	Content  string         `json:"content" db:"content"`
}

// ContractWithElements is a contract together with its ordered elements.
type ContractWithElements struct {
	Contract
	Elements []ContractElement `json:"elements"`
}

// Clone returns a deep copy of e.
func (e ContractElement) Clone() ContractElement {
	cp := e
	cp.Content = cloneString(e.Content)
	cp.Attributes = cloneString(e.Attributes)
	if e.SourceClauseID != nil {
		id := *e.SourceClauseID
		cp.SourceClauseID = &id
	}
	return cp
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}

// StringPtr is a small helper for building optional text fields.
func StringPtr(s string) *string { return &s }

// Int64Ptr is a small helper for building optional id fields.
func Int64Ptr(v int64) *int64 { return &v }
