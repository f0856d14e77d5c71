package indexing

import (
	"crypto/sha256"
	"encoding/hex"

	"github.com/kailas-cloud/crindex/internal/domain"
	"github.com/kailas-cloud/crindex/internal/domain/node"
)

// HashIdentifiers derives document identifiers from node identifier and workspace.
// The dimension combination is not part of the identifier; it selects the index.
type HashIdentifiers struct{}

// DocumentID returns the hex sha256 of "identifier|workspace".
// An empty workspace falls back to the node's own workspace.
func (HashIdentifiers) DocumentID(n *node.Node, workspace string) string {
	if workspace == "" {
		workspace = n.WorkspaceName()
	}
	sum := sha256.Sum256([]byte(n.Identifier() + "|" + workspace))
	return hex.EncodeToString(sum[:])
}

// PrefixNamer names indexes prefix + "-" + dimension hash.
type PrefixNamer struct {
	prefix string
}

// NewPrefixNamer creates a namer.
func NewPrefixNamer(prefix string) PrefixNamer { return PrefixNamer{prefix: prefix} }

// IndexName returns the index for dims.
func (p PrefixNamer) IndexName(dims node.Dimensions) (string, error) {
	if p.prefix == "" {
		return "", domain.NewConfigurationError("index prefix is empty, set engine.index_prefix")
	}
	return p.prefix + "-" + dims.Hash(), nil
}
