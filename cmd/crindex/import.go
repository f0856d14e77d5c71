package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kailas-cloud/crindex/internal/config"
	logpkg "github.com/kailas-cloud/crindex/internal/logger"
	"github.com/kailas-cloud/crindex/internal/repository/nodes"
)

var importCmd = &cobra.Command{
	Use:   "import FILE",
	Short: "Load a YAML content tree snapshot into the local tree store",
	Args:  cobra.ExactArgs(1),
	RunE:  runImport,
}

// runImport only needs the tree store, so it skips the engine connection.
func runImport(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(env)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	f, err := os.Open(filepath.Clean(args[0]))
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()

	snapshot, err := nodes.DecodeSnapshot(f)
	if err != nil {
		return err
	}

	tree, err := nodes.Open(cfg.Repository.SQLitePath, cfg.Repository.LookupCacheSize)
	if err != nil {
		return fmt.Errorf("open content tree: %w", err)
	}
	defer func() { _ = tree.Close() }()

	n, err := tree.Import(cmd.Context(), snapshot)
	if err != nil {
		return fmt.Errorf("import after %d nodes: %w", n, err)
	}
	logger.Info("Imported content tree",
		zap.String("file", args[0]),
		zap.Int("workspaces", len(snapshot.Workspaces)),
		zap.Int("types", len(snapshot.Types)),
		zap.Int("nodes", n),
	)
	return nil
}
