// Package elementtype holds the closed vocabulary of contract element kinds and
// the resolver that maps free-form template strings onto it.
package elementtype

import "strings"

// Type is a contract element kind. The zero value means "unresolved".
type Type string

const (
	Clause        Type = "CLAUSE"
	Header1       Type = "HEADER_1"
	Header2       Type = "HEADER_2"
	Header3       Type = "HEADER_3"
	Paragraph     Type = "PARAGRAPH"
	PartyInfo     Type = "PARTY_INFO"
	Table         Type = "TABLE"
	OrderedList   Type = "ORDERED_LIST"
	UnorderedList Type = "UNORDERED_LIST"
	FillableField Type = "FILLABLE_FIELD"
	Checkbox      Type = "CHECKBOX"
	Signature     Type = "SIGNATURE"
	Seal          Type = "SEAL"
	Image         Type = "IMAGE"
)

// All lists every element kind in declaration order.
var All = []Type{
	Clause, Header1, Header2, Header3, Paragraph, PartyInfo, Table,
	OrderedList, UnorderedList, FillableField, Checkbox, Signature, Seal, Image,
}

// aliases are legacy spellings still found in older templates.
var aliases = map[string]Type{
	"HEADER":   Header1,
	"HEADER_1": Header1,
	"HEADER_2": Header2,
	"HEADER_3": Header3,
}

var byName = func() map[string]Type {
	m := make(map[string]Type, len(All))
	for _, t := range All {
		m[string(t)] = t
	}
	return m
}()

// Resolve normalizes raw (trim + upper-case), applies the alias table and then
// falls back to an exact name match. Unknown or empty input yields ("", false).
func Resolve(raw string) (Type, bool) {
	key := strings.ToUpper(strings.TrimSpace(raw))
	if key == "" {
		return "", false
	}
	if t, ok := aliases[key]; ok {
		return t, true
	}
	t, ok := byName[key]
	return t, ok
}

// Valid reports whether t is a member of the vocabulary.
func (t Type) Valid() bool {
	_, ok := byName[string(t)]
	return ok
}

func (t Type) String() string { return string(t) }
