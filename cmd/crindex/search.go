package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kailas-cloud/crindex/internal/domain/node"
	searchuc "github.com/kailas-cloud/crindex/internal/usecase/search"
)

var (
	searchAnchor    string
	searchWorkspace string
	searchDims      map[string]string
	searchType      string
	searchLimit     int
	searchCached    bool
	searchCount     bool
)

var searchCmd = &cobra.Command{
	Use:   "search [QUERY]",
	Short: "Search content below an anchor node",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runSearch,
}

func init() {
	f := searchCmd.Flags()
	f.StringVar(&searchAnchor, "anchor", "", "path of the node to search below (default: everything)")
	f.StringVar(&searchWorkspace, "workspace", node.LiveWorkspace, "workspace of the anchor")
	f.StringToStringVar(&searchDims, "dimension", nil, "content dimension, e.g. --dimension language=en")
	f.StringVar(&searchType, "type", "", "restrict to a node type and its subtypes")
	f.IntVar(&searchLimit, "limit", 10, "maximum number of results")
	f.BoolVar(&searchCached, "cached", false, "use the query result cache")
	f.BoolVar(&searchCount, "count", false, "print the number of matches only")
}

func runSearch(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	a, err := newApp(ctx, env)
	if err != nil {
		return err
	}
	defer a.Close()

	b := a.search.Builder()
	if searchAnchor != "" {
		anchor, err := a.tree.NodeByPath(ctx, searchAnchor, searchWorkspace, dimensions(searchDims))
		if err != nil {
			return fmt.Errorf("resolve anchor %s: %w", searchAnchor, err)
		}
		b = a.search.Query(anchor)
	}
	spec := searchuc.Spec{NodeType: searchType, Limit: searchLimit}
	if len(args) == 1 {
		spec.Fulltext = args[0]
	}
	b.Apply(spec)

	out := cmd.OutOrStdout()
	if searchCount {
		n, err := b.Count(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintln(out, n)
		return nil
	}

	var res *searchuc.Result
	if searchCached {
		res, err = b.ExecuteCached(ctx)
	} else {
		res, err = b.Execute(ctx)
	}
	if err != nil {
		return err
	}
	enc := json.NewEncoder(out)
	for _, n := range res.Nodes {
		line := map[string]any{"identifier": n.Identifier(), "path": n.Path(), "type": n.Type().Name()}
		if hit, ok := b.HitForNode(n); ok {
			line["score"] = hit.Score()
		}
		if err := enc.Encode(line); err != nil {
			return err
		}
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "%d of %d matches\n", len(res.Nodes), res.Total)
	return nil
}
