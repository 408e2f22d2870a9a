package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTemplateElementConfigSource(t *testing.T) {
	text := "Chapter 1"

	assert.Equal(t, StaticText{Text: &text}, TemplateElementConfig{ContentSource: SourceStatic, StaticContent: &text}.Source())
	assert.Equal(t, StaticText{}, TemplateElementConfig{ContentSource: SourceStatic}.Source())
	assert.Equal(t, ClauseRef{ClauseID: 100}, TemplateElementConfig{ContentSource: SourceClauseLibrary, SourceClauseID: Int64Ptr(100)}.Source())
	assert.Nil(t, TemplateElementConfig{ContentSource: SourceClauseLibrary}.Source())
	assert.Nil(t, TemplateElementConfig{ContentSource: "static", StaticContent: &text}.Source())
	assert.Nil(t, TemplateElementConfig{ContentSource: "UPLOAD", SourceClauseID: Int64Ptr(1)}.Source())
}

func TestParseClauseCategory(t *testing.T) {
	c, ok := ParseClauseCategory(" payment ")
	assert.True(t, ok)
	assert.Equal(t, CategoryPayment, c)

	_, ok = ParseClauseCategory("SHIPPING")
	assert.False(t, ok)
	assert.Len(t, ClauseCategories, 18)
}

func TestContractElementCloneIsDeep(t *testing.T) {
	e := ContractElement{Content: StringPtr("a"), Attributes: StringPtr("{}"), SourceClauseID: Int64Ptr(7)}
	cp := e.Clone()
	*cp.Content = "b"
	*cp.SourceClauseID = 8
	assert.Equal(t, "a", *e.Content)
	assert.Equal(t, int64(7), *e.SourceClauseID)
}
