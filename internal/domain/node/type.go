package node

// Type is the node-type configuration relevant to indexing.
type Type struct {
	name           string
	superTypes     []string
	fulltextRoot   bool
	fulltextFields map[string]string
}

// NewType creates a node type. fulltextFields maps a property name to the
// fulltext bucket (e.g. "title" -> "h1") its value is indexed into.
func NewType(name string, superTypes []string, fulltextRoot bool, fulltextFields map[string]string) Type {
	return Type{
		name:           name,
		superTypes:     superTypes,
		fulltextRoot:   fulltextRoot,
		fulltextFields: fulltextFields,
	}
}

// Name returns the type name.
func (t Type) Name() string { return t.name }

// SuperTypes returns all declared supertypes.
func (t Type) SuperTypes() []string { return t.superTypes }

// IsFulltextRoot reports whether nodes of this type aggregate fulltext of their descendants.
func (t Type) IsFulltextRoot() bool { return t.fulltextRoot }

// FulltextFields returns the property -> bucket extraction config.
func (t Type) FulltextFields() map[string]string { return t.fulltextFields }

// NameAndSuperTypes returns the type name followed by its supertypes.
func (t Type) NameAndSuperTypes() []string {
	return append([]string{t.name}, t.superTypes...)
}
