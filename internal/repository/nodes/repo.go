package nodes

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/kailas-cloud/crindex/internal/domain"
	"github.com/kailas-cloud/crindex/internal/domain/node"
)

// maxWorkspaceDepth guards against base-workspace cycles.
const maxWorkspaceDepth = 32

const defaultCacheSize = 1024

// Repo is a SQLite-backed content tree with workspace overlay reads.
// A node is looked up in the requested workspace first, then in each base
// workspace in turn.
type Repo struct {
	db    *sql.DB
	nodes *lru.Cache[string, *node.Node]
	types *lru.Cache[string, node.Type]
}

// Open opens (and if needed creates) a content tree database.
// cacheSize bounds the node lookup memo; 0 uses the default.
func Open(path string, cacheSize int) (*Repo, error) {
	if cacheSize <= 0 {
		cacheSize = defaultCacheSize
	}
	db, err := openDB(path)
	if err != nil {
		return nil, err
	}
	nodes, err := lru.New[string, *node.Node](cacheSize)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create node cache: %w", err)
	}
	types, err := lru.New[string, node.Type](cacheSize)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create type cache: %w", err)
	}
	return &Repo{db: db, nodes: nodes, types: types}, nil
}

// Close closes the database.
func (r *Repo) Close() error { return r.db.Close() }

// Ping checks database availability.
func (r *Repo) Ping(ctx context.Context) error { return r.db.PingContext(ctx) }

// PutWorkspace creates or updates a workspace. base is "" for a root workspace.
func (r *Repo) PutWorkspace(ctx context.Context, name, base string) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO workspaces (name, base) VALUES (?, ?)
		 ON CONFLICT(name) DO UPDATE SET base = excluded.base`, name, base)
	if err != nil {
		return fmt.Errorf("put workspace %s: %w", name, err)
	}
	r.nodes.Purge()
	return nil
}

// PutType creates or updates a node type.
func (r *Repo) PutType(ctx context.Context, t node.Type) error {
	superTypes, err := json.Marshal(nonNilStrings(t.SuperTypes()))
	if err != nil {
		return fmt.Errorf("encode super types: %w", err)
	}
	fields, err := json.Marshal(nonNilMap(t.FulltextFields()))
	if err != nil {
		return fmt.Errorf("encode fulltext fields: %w", err)
	}
	_, err = r.db.ExecContext(ctx,
		`INSERT INTO node_types (name, super_types, fulltext_root, fulltext_fields) VALUES (?, ?, ?, ?)
		 ON CONFLICT(name) DO UPDATE SET super_types = excluded.super_types,
		 fulltext_root = excluded.fulltext_root, fulltext_fields = excluded.fulltext_fields`,
		t.Name(), string(superTypes), t.IsFulltextRoot(), string(fields))
	if err != nil {
		return fmt.Errorf("put node type %s: %w", t.Name(), err)
	}
	r.types.Remove(t.Name())
	r.nodes.Purge()
	return nil
}

// PutNode creates or updates a node in its workspace and dimension context.
func (r *Repo) PutNode(ctx context.Context, n *node.Node) error {
	if n.WorkspaceName() == "" {
		return fmt.Errorf("put node %s: workspace is required", n.Identifier())
	}
	dims, err := json.Marshal(n.Dimensions())
	if err != nil {
		return fmt.Errorf("encode dimensions: %w", err)
	}
	props, err := json.Marshal(nonNilProps(n.Properties()))
	if err != nil {
		return fmt.Errorf("encode properties: %w", err)
	}
	_, err = r.db.ExecContext(ctx,
		`INSERT INTO nodes (identifier, workspace, dimensions_hash, dimensions, path, node_type,
			hidden, removed, hidden_before, hidden_after, properties)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(identifier, workspace, dimensions_hash) DO UPDATE SET
			dimensions = excluded.dimensions, path = excluded.path, node_type = excluded.node_type,
			hidden = excluded.hidden, removed = excluded.removed, hidden_before = excluded.hidden_before,
			hidden_after = excluded.hidden_after, properties = excluded.properties`,
		n.Identifier(), n.WorkspaceName(), n.Dimensions().Hash(), string(dims), n.Path(), n.Type().Name(),
		n.IsHidden(), n.IsRemoved(), formatTime(n.HiddenBefore()), formatTime(n.HiddenAfter()), string(props))
	if err != nil {
		return fmt.Errorf("put node %s: %w", n.Identifier(), err)
	}
	r.nodes.Purge()
	return nil
}

// Workspace loads a workspace with its base chain.
func (r *Repo) Workspace(ctx context.Context, name string) (*node.Workspace, error) {
	chain := []string{name}
	for i := 0; ; i++ {
		if i >= maxWorkspaceDepth {
			return nil, fmt.Errorf("workspace %s: base chain too deep", name)
		}
		var base string
		err := r.db.QueryRowContext(ctx,
			`SELECT base FROM workspaces WHERE name = ?`, chain[len(chain)-1]).Scan(&base)
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("workspace %s: %w", chain[len(chain)-1], domain.ErrNotFound)
		}
		if err != nil {
			return nil, fmt.Errorf("load workspace %s: %w", chain[len(chain)-1], err)
		}
		if base == "" {
			break
		}
		chain = append(chain, base)
	}

	var ws *node.Workspace
	for i := len(chain) - 1; i >= 0; i-- {
		ws = node.NewWorkspace(chain[i], ws)
	}
	return ws, nil
}

// Type loads a node type.
func (r *Repo) Type(ctx context.Context, name string) (node.Type, error) {
	if t, ok := r.types.Get(name); ok {
		return t, nil
	}
	var superTypes, fields string
	var root bool
	err := r.db.QueryRowContext(ctx,
		`SELECT super_types, fulltext_root, fulltext_fields FROM node_types WHERE name = ?`, name).
		Scan(&superTypes, &root, &fields)
	if errors.Is(err, sql.ErrNoRows) {
		// Unknown types index like plain nodes.
		return node.NewType(name, nil, false, nil), nil
	}
	if err != nil {
		return node.Type{}, fmt.Errorf("load node type %s: %w", name, err)
	}

	var st []string
	if err := json.Unmarshal([]byte(superTypes), &st); err != nil {
		return node.Type{}, fmt.Errorf("decode super types of %s: %w", name, err)
	}
	var ff map[string]string
	if err := json.Unmarshal([]byte(fields), &ff); err != nil {
		return node.Type{}, fmt.Errorf("decode fulltext fields of %s: %w", name, err)
	}
	t := node.NewType(name, st, root, ff)
	r.types.Add(name, t)
	return t, nil
}

// NodeByIdentifier finds a node by identifier in the workspace overlay.
func (r *Repo) NodeByIdentifier(
	ctx context.Context, identifier, workspace string, dims node.Dimensions,
) (*node.Node, error) {
	return r.lookup(ctx, "id", identifier, workspace, dims)
}

// NodeByPath finds a node by path in the workspace overlay.
func (r *Repo) NodeByPath(ctx context.Context, path, workspace string, dims node.Dimensions) (*node.Node, error) {
	return r.lookup(ctx, "path", path, workspace, dims)
}

// Parent returns the parent of n in n's context, or nil for the root and for
// nodes whose parent does not exist.
func (r *Repo) Parent(ctx context.Context, n *node.Node) (*node.Node, error) {
	if n.IsRoot() {
		return nil, nil
	}
	p, err := r.NodeByPath(ctx, n.ParentPath(), n.WorkspaceName(), n.Dimensions())
	if errors.Is(err, domain.ErrNotFound) {
		return nil, nil
	}
	return p, err
}

func (r *Repo) lookup(ctx context.Context, by, key, workspace string, dims node.Dimensions) (*node.Node, error) {
	hash := dims.Hash()
	cacheKey := by + "|" + workspace + "|" + hash + "|" + key
	if n, ok := r.nodes.Get(cacheKey); ok {
		return n, nil
	}

	ws, err := r.Workspace(ctx, workspace)
	if err != nil {
		return nil, err
	}

	query := `SELECT identifier, dimensions, path, node_type, hidden, removed, hidden_before, hidden_after, properties
		FROM nodes WHERE workspace = ? AND dimensions_hash = ? AND identifier = ?`
	if by == "path" {
		query = `SELECT identifier, dimensions, path, node_type, hidden, removed, hidden_before, hidden_after, properties
		FROM nodes WHERE workspace = ? AND dimensions_hash = ? AND path = ?`
	}

	for _, layer := range ws.Chain() {
		row := r.db.QueryRowContext(ctx, query, layer, hash, key)
		n, err := r.scanNode(ctx, row, ws)
		if errors.Is(err, sql.ErrNoRows) {
			continue
		}
		if err != nil {
			return nil, err
		}
		r.nodes.Add(cacheKey, n)
		return n, nil
	}
	return nil, fmt.Errorf("node %s %q in %s: %w", by, key, workspace, domain.ErrNotFound)
}

func (r *Repo) scanNode(ctx context.Context, row *sql.Row, ws *node.Workspace) (*node.Node, error) {
	var (
		identifier, dims, path, typeName, props string
		hidden, removed                         bool
		hiddenBefore, hiddenAfter               sql.NullString
	)
	if err := row.Scan(&identifier, &dims, &path, &typeName, &hidden, &removed,
		&hiddenBefore, &hiddenAfter, &props); err != nil {
		return nil, err
	}

	var d node.Dimensions
	if err := json.Unmarshal([]byte(dims), &d); err != nil {
		return nil, fmt.Errorf("decode dimensions of %s: %w", identifier, err)
	}
	var p map[string]any
	if err := json.Unmarshal([]byte(props), &p); err != nil {
		return nil, fmt.Errorf("decode properties of %s: %w", identifier, err)
	}
	t, err := r.Type(ctx, typeName)
	if err != nil {
		return nil, err
	}

	opts := []node.Option{
		node.WithDimensions(d),
		node.WithHidden(hidden),
		node.WithRemoved(removed),
		node.WithProperties(p),
	}
	if ts, ok := parseTime(hiddenBefore); ok {
		opts = append(opts, node.WithHiddenBefore(ts))
	}
	if ts, ok := parseTime(hiddenAfter); ok {
		opts = append(opts, node.WithHiddenAfter(ts))
	}
	return node.New(identifier, path, ws, t, opts...), nil
}

func formatTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC().Format(time.RFC3339)
}

func parseTime(s sql.NullString) (time.Time, bool) {
	if !s.Valid || s.String == "" {
		return time.Time{}, false
	}
	t, err := time.Parse(time.RFC3339, s.String)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

func nonNilStrings(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func nonNilMap(m map[string]string) map[string]string {
	if m == nil {
		return map[string]string{}
	}
	return m
}

func nonNilProps(m map[string]any) map[string]any {
	if m == nil {
		return map[string]any{}
	}
	return m
}
