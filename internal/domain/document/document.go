package document

// Indexed field names written next to the node properties.
const (
	FieldNodeIdentifier    = "cr_node_identifier"
	FieldPath              = "cr_path"
	FieldParentPath        = "cr_parent_path"
	FieldWorkspace         = "cr_workspace"
	FieldTypeAndSuperTypes = "cr_type_and_supertypes"
	FieldHidden            = "cr_hidden"
	FieldHiddenBefore      = "cr_hidden_before_datetime"
	FieldHiddenAfter       = "cr_hidden_after_datetime"
	FieldFulltext          = "cr_fulltext"
	FieldFulltextParts     = "cr_fulltext_parts"
)

// Document is one search-index entity addressed by index name and identifier.
type Document struct {
	index string
	id    string
	body  map[string]any
}

// New creates a document.
func New(index, id string, body map[string]any) Document {
	return Document{index: index, id: id, body: body}
}

// Index returns the index the document belongs to.
func (d Document) Index() string { return d.index }

// ID returns the document identifier.
func (d Document) ID() string { return d.id }

// Body returns the document source.
func (d Document) Body() map[string]any { return d.body }

// IsFulltextField reports whether name is one of the fields owned by fulltext aggregation.
func IsFulltextField(name string) bool {
	return name == FieldFulltext || name == FieldFulltextParts
}
