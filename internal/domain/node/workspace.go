package node

// LiveWorkspace is the name of the workspace every other workspace eventually bases on.
const LiveWorkspace = "live"

// Workspace is a named layer in the content overlay. A workspace sees its own
// nodes first and falls back to its base workspace chain.
type Workspace struct {
	name string
	base *Workspace
}

// NewWorkspace creates a workspace on top of base (nil for a root workspace).
func NewWorkspace(name string, base *Workspace) *Workspace {
	return &Workspace{name: name, base: base}
}

// Name returns the workspace name.
func (w *Workspace) Name() string { return w.name }

// Base returns the base workspace or nil.
func (w *Workspace) Base() *Workspace { return w.base }

// BaseNames returns the names of all base workspaces, nearest first.
func (w *Workspace) BaseNames() []string {
	var names []string
	for b := w.base; b != nil; b = b.base {
		names = append(names, b.name)
	}
	return names
}

// Chain returns the workspace name followed by all base workspace names.
func (w *Workspace) Chain() []string {
	return append([]string{w.name}, w.BaseNames()...)
}

// Depth is 1 + the number of base workspaces: the number of overlay layers a
// query anchored in this workspace can see.
func (w *Workspace) Depth() int {
	if w == nil {
		return 1
	}
	return len(w.Chain())
}
