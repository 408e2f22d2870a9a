package models

// Content source tags as stored on template element configs.
const (
	SourceStatic        = "STATIC"
	SourceClauseLibrary = "CLAUSE_LIBRARY"
)

// TemplateElementConfig describes one future element of a document built from
// a template. Rows are owned by template authoring and are read-only here.
type TemplateElementConfig struct {
	ConfigID          int64   `json:"configId" db:"config_id"`
	TemplateID        int64   `json:"templateId" db:"template_id"`
	OrderIndex        int     `json:"orderIndex" db:"order_index"`
	ElementType       string  `json:"elementType" db:"element_type"`
	ContentSource     string  `json:"contentSource" db:"content_source"`
	StaticContent     *string `json:"staticContent,omitempty" db:"static_content"`
	SourceClauseID    *int64  `json:"sourceClauseId,omitempty" db:"source_clause_id"`
	DefaultAttributes *string `json:"defaultAttributes,omitempty" db:"default_attributes"`
}

// ContentSource is where an element's text comes from: either StaticText or
// ClauseRef. A config with no usable source yields a nil ContentSource.
type ContentSource interface {
	contentSource()
}

// StaticText is inline text copied verbatim. Text may be nil.
type StaticText struct {
	Text *string
}

// ClauseRef points into the clause library.
type ClauseRef struct {
	ClauseID int64
}

func (StaticText) contentSource() {}
func (ClauseRef) contentSource()  {}

// Source maps the stored tag and optional fields onto a ContentSource. Tags
// are matched exactly; unknown tags and CLAUSE_LIBRARY without a clause id
// return nil.
func (c TemplateElementConfig) Source() ContentSource {
	switch c.ContentSource {
	case SourceStatic:
		return StaticText{Text: c.StaticContent}
	case SourceClauseLibrary:
		if c.SourceClauseID == nil {
			return nil
		}
		return ClauseRef{ClauseID: *c.SourceClauseID}
	default:
		return nil
	}
}
