package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kailas-cloud/crindex/internal/domain/bulk"
	"github.com/kailas-cloud/crindex/internal/domain/node"
	indexinguc "github.com/kailas-cloud/crindex/internal/usecase/indexing"
)

var (
	indexWorkspace string
	indexTarget    string
	indexDims      map[string]string
)

var indexCmd = &cobra.Command{
	Use:   "index PATH...",
	Short: "Index content nodes by path",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runIndex,
}

func init() {
	indexCmd.Flags().StringVar(&indexWorkspace, "workspace", node.LiveWorkspace, "workspace to read nodes from")
	indexCmd.Flags().StringVar(&indexTarget, "target", "", "workspace to index nodes into (default: the node's own)")
	indexCmd.Flags().StringToStringVar(&indexDims, "dimension", nil, "content dimension, e.g. --dimension language=en")
}

func runIndex(cmd *cobra.Command, paths []string) error {
	ctx := cmd.Context()
	a, err := newApp(ctx, env)
	if err != nil {
		return err
	}
	defer a.Close()

	dims := dimensions(indexDims)
	changes := make([]indexinguc.Change, 0, len(paths))
	for _, p := range paths {
		n, err := a.tree.NodeByPath(ctx, p, indexWorkspace, dims)
		if err != nil {
			return fmt.Errorf("resolve %s: %w", p, err)
		}
		changes = append(changes, indexinguc.Change{Node: n, TargetWorkspace: indexTarget})
	}

	results, err := a.indexer.Index(ctx, changes)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(cmd.OutOrStdout())
	for _, r := range results {
		line := map[string]string{"action": string(r.Action()), "id": r.ID(), "status": string(r.Status())}
		if r.Err() != nil {
			line["error"] = r.Err().Error()
		}
		if err := enc.Encode(line); err != nil {
			return err
		}
	}
	if failed := bulk.Failed(results); failed > 0 {
		a.logger.Warn("Index run finished with failures", zap.Int("failed", failed), zap.Int("total", len(results)))
		return fmt.Errorf("%d of %d bulk entries failed", failed, len(results))
	}
	return nil
}

// dimensions turns name=value flags into single-value dimensions.
func dimensions(flags map[string]string) node.Dimensions {
	if len(flags) == 0 {
		return nil
	}
	out := make(node.Dimensions, len(flags))
	for k, v := range flags {
		out[k] = []string{v}
	}
	return out
}
