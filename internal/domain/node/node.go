package node

import (
	"path"
	"strings"
	"time"
)

// RootPath is the path of the repository root node.
const RootPath = "/"

// Node is a content node as seen by the indexer (immutable value object).
type Node struct {
	identifier   string
	path         string
	workspace    *Workspace
	dimensions   Dimensions
	nodeType     Type
	hidden       bool
	removed      bool
	hiddenBefore *time.Time
	hiddenAfter  *time.Time
	properties   map[string]any
}

// Option configures optional node attributes.
type Option func(*Node)

// WithDimensions sets the dimension context.
func WithDimensions(d Dimensions) Option {
	return func(n *Node) { n.dimensions = d.Clone() }
}

// WithHidden marks the node as hidden.
func WithHidden(hidden bool) Option {
	return func(n *Node) { n.hidden = hidden }
}

// WithRemoved marks the node as removed.
func WithRemoved(removed bool) Option {
	return func(n *Node) { n.removed = removed }
}

// WithHiddenBefore hides the node until t.
func WithHiddenBefore(t time.Time) Option {
	return func(n *Node) { n.hiddenBefore = &t }
}

// WithHiddenAfter hides the node from t on.
func WithHiddenAfter(t time.Time) Option {
	return func(n *Node) { n.hiddenAfter = &t }
}

// WithProperties sets node properties. The map is copied.
func WithProperties(props map[string]any) Option {
	return func(n *Node) {
		n.properties = make(map[string]any, len(props))
		for k, v := range props {
			n.properties[k] = v
		}
	}
}

// New creates a node. The path is cleaned to an absolute form.
func New(identifier, p string, ws *Workspace, t Type, opts ...Option) *Node {
	n := &Node{
		identifier: identifier,
		path:       cleanPath(p),
		workspace:  ws,
		nodeType:   t,
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

func cleanPath(p string) string {
	if p == "" {
		return RootPath
	}
	return path.Clean("/" + strings.TrimPrefix(p, "/"))
}

// Identifier returns the workspace-independent node identifier.
func (n *Node) Identifier() string { return n.identifier }

// Path returns the absolute node path.
func (n *Node) Path() string { return n.path }

// Name returns the last path segment ("" for the root).
func (n *Node) Name() string {
	if n.IsRoot() {
		return ""
	}
	return path.Base(n.path)
}

// ParentPath returns the parent's path ("" for the root).
func (n *Node) ParentPath() string {
	if n.IsRoot() {
		return ""
	}
	return path.Dir(n.path)
}

// IsRoot reports whether the node is the repository root.
func (n *Node) IsRoot() bool { return n.path == RootPath }

// Workspace returns the workspace the node was read from.
func (n *Node) Workspace() *Workspace { return n.workspace }

// WorkspaceName returns the workspace name or "" when unset.
func (n *Node) WorkspaceName() string {
	if n.workspace == nil {
		return ""
	}
	return n.workspace.Name()
}

// Dimensions returns the dimension context.
func (n *Node) Dimensions() Dimensions { return n.dimensions }

// Type returns the node type.
func (n *Node) Type() Type { return n.nodeType }

// IsHidden reports the hidden flag.
func (n *Node) IsHidden() bool { return n.hidden }

// IsRemoved reports the removed flag.
func (n *Node) IsRemoved() bool { return n.removed }

// HiddenBefore returns the hidden-before timestamp or nil.
func (n *Node) HiddenBefore() *time.Time { return n.hiddenBefore }

// HiddenAfter returns the hidden-after timestamp or nil.
func (n *Node) HiddenAfter() *time.Time { return n.hiddenAfter }

// Properties returns the node properties.
func (n *Node) Properties() map[string]any { return n.properties }

// Property returns a single property value.
func (n *Node) Property(name string) (any, bool) {
	v, ok := n.properties[name]
	return v, ok
}
