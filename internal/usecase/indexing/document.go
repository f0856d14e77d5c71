package indexing

import (
	"path"
	"time"

	"github.com/kailas-cloud/crindex/internal/domain/bulk"
	"github.com/kailas-cloud/crindex/internal/domain/document"
	"github.com/kailas-cloud/crindex/internal/domain/fulltext"
	"github.com/kailas-cloud/crindex/internal/domain/node"
)

// DocumentBody derives the indexed source of n: its properties plus the
// structural and visibility fields queries filter on.
func DocumentBody(n *node.Node, workspace string) map[string]any {
	if workspace == "" {
		workspace = n.WorkspaceName()
	}
	props := n.Properties()
	body := make(map[string]any, len(props)+8)
	for k, v := range props {
		if document.IsFulltextField(k) {
			continue
		}
		body[k] = v
	}

	body[document.FieldNodeIdentifier] = n.Identifier()
	body[document.FieldPath] = n.Path()
	body[document.FieldParentPath] = ancestorPaths(n)
	body[document.FieldWorkspace] = workspace
	body[document.FieldTypeAndSuperTypes] = n.Type().NameAndSuperTypes()
	body[document.FieldHidden] = n.IsHidden()
	body[document.FieldHiddenBefore] = formatTime(n.HiddenBefore())
	body[document.FieldHiddenAfter] = formatTime(n.HiddenAfter())
	return body
}

// ancestorPaths lists every ancestor path from the root down, so a term
// filter on one path matches all descendants of it.
func ancestorPaths(n *node.Node) []string {
	if n.IsRoot() {
		return []string{}
	}
	var out []string
	for p := n.ParentPath(); ; p = path.Dir(p) {
		out = append([]string{p}, out...)
		if p == node.RootPath {
			return out
		}
	}
}

func formatTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC().Format(time.RFC3339)
}

// documentOperation returns the write for n's own document. Fulltext roots are
// updated with their aggregated fulltext preserved; other nodes are replaced.
func documentOperation(index, id string, n *node.Node, workspace string, retry int) bulk.Operation {
	if n.IsRemoved() {
		return bulk.NewDelete(index, id)
	}
	body := DocumentBody(n, workspace)
	if n.Type().IsFulltextRoot() {
		return bulk.NewUpdate(index, id, fulltext.NewPreserveMerge(body), retry)
	}
	return bulk.NewIndex(index, id, body)
}
