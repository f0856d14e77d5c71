package nodes

import (
	"context"
	"fmt"
	"io"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/kailas-cloud/crindex/internal/domain/node"
)

// Snapshot is a serialized content tree.
type Snapshot struct {
	Workspaces []WorkspaceEntry `yaml:"workspaces"`
	Types      []TypeEntry      `yaml:"types"`
	Nodes      []NodeEntry      `yaml:"nodes"`
}

// WorkspaceEntry is one workspace of a snapshot.
type WorkspaceEntry struct {
	Name string `yaml:"name"`
	Base string `yaml:"base"`
}

// TypeEntry is one node type of a snapshot.
type TypeEntry struct {
	Name           string            `yaml:"name"`
	SuperTypes     []string          `yaml:"super_types"`
	FulltextRoot   bool              `yaml:"fulltext_root"`
	FulltextFields map[string]string `yaml:"fulltext_fields"`
}

// NodeEntry is one node of a snapshot. Workspace defaults to live.
type NodeEntry struct {
	Identifier   string              `yaml:"identifier"`
	Path         string              `yaml:"path"`
	Workspace    string              `yaml:"workspace"`
	Type         string              `yaml:"type"`
	Dimensions   map[string][]string `yaml:"dimensions"`
	Hidden       bool                `yaml:"hidden"`
	Removed      bool                `yaml:"removed"`
	HiddenBefore *time.Time          `yaml:"hidden_before"`
	HiddenAfter  *time.Time          `yaml:"hidden_after"`
	Properties   map[string]any      `yaml:"properties"`
}

// DecodeSnapshot reads a YAML snapshot.
func DecodeSnapshot(r io.Reader) (Snapshot, error) {
	var s Snapshot
	if err := yaml.NewDecoder(r).Decode(&s); err != nil {
		return Snapshot{}, fmt.Errorf("decode snapshot: %w", err)
	}
	return s, nil
}

// Import upserts a snapshot. Workspaces and types are written before the
// nodes that reference them. It returns the number of nodes written.
func (r *Repo) Import(ctx context.Context, s Snapshot) (int, error) {
	for _, w := range s.Workspaces {
		if err := r.PutWorkspace(ctx, w.Name, w.Base); err != nil {
			return 0, err
		}
	}
	for _, t := range s.Types {
		if err := r.PutType(ctx, node.NewType(t.Name, t.SuperTypes, t.FulltextRoot, t.FulltextFields)); err != nil {
			return 0, err
		}
	}

	for i, e := range s.Nodes {
		if e.Identifier == "" || e.Path == "" {
			return i, fmt.Errorf("node %d: identifier and path are required", i)
		}
		wsName := e.Workspace
		if wsName == "" {
			wsName = node.LiveWorkspace
		}
		ws, err := r.Workspace(ctx, wsName)
		if err != nil {
			return i, err
		}
		nt, err := r.Type(ctx, e.Type)
		if err != nil {
			return i, err
		}

		opts := []node.Option{
			node.WithDimensions(node.Dimensions(e.Dimensions)),
			node.WithHidden(e.Hidden),
			node.WithRemoved(e.Removed),
			node.WithProperties(e.Properties),
		}
		if e.HiddenBefore != nil {
			opts = append(opts, node.WithHiddenBefore(*e.HiddenBefore))
		}
		if e.HiddenAfter != nil {
			opts = append(opts, node.WithHiddenAfter(*e.HiddenAfter))
		}
		if err := r.PutNode(ctx, node.New(e.Identifier, e.Path, ws, nt, opts...)); err != nil {
			return i, err
		}
	}
	return len(s.Nodes), nil
}
