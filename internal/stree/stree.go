// Package stree ties the pieces together: it walks a subtree, asks the
// analysis process for each source file's symbols, and returns the merged
// tree.
package stree

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/xonecas/stree/internal/cache"
	"github.com/xonecas/stree/internal/config"
	"github.com/xonecas/stree/internal/ignore"
	"github.com/xonecas/stree/internal/lsp"
	"github.com/xonecas/stree/internal/tree"
)

// Options selects what a single run produces.
type Options struct {
	Path         string // root of the subtree to walk
	Extras       bool   // include permissions, owner and size
	UseGitignore bool   // honor .gitignore and skip hidden entries
	NoSymbols    bool   // filesystem tree only, no analysis process
	Config       *config.Config
}

// Run builds the merged tree for opts.Path. The analysis process is started
// once, queried file by file, and shut down before returning.
func Run(ctx context.Context, opts Options) (*tree.Node, error) {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.Default()
	}

	abs, err := filepath.Abs(opts.Path)
	if err != nil {
		return nil, fmt.Errorf("resolve path %q: %w", opts.Path, err)
	}

	pred := ignore.None()
	if opts.UseGitignore {
		pred = ignore.New(abs)
	}

	root := tree.Build(abs, opts.Extras, pred)
	if root == nil {
		return nil, fmt.Errorf("no files found under %q", opts.Path)
	}
	if opts.NoSymbols {
		return root, nil
	}

	client := lsp.NewClient(lsp.ClientConfig{
		Command:    cfg.Server.Command,
		Args:       cfg.Server.Args,
		Env:        cfg.Server.Env,
		RootDir:    abs,
		LanguageID: cfg.Server.LanguageID,
		OpenFiles:  cfg.Server.OpenFiles,
		Timeout:    cfg.Server.Timeout(),
	})
	if err := client.Start(ctx); err != nil {
		return nil, err
	}
	defer client.Shutdown()

	var store *cache.Store
	if cfg.Cache.Enabled {
		store, err = cache.Open(cfg.Cache.Path)
		if err != nil {
			log.Warn().Err(err).Msg("symbol cache unavailable, continuing without")
		}
		defer store.Close()
	}

	attachSymbols(client, store, root, cfg.Query.Extensions)
	return root, nil
}

// Query asks the analysis process for symbols matching pattern across the
// whole workspace rooted at path.
func Query(ctx context.Context, path, pattern string, cfg *config.Config) ([]lsp.SymbolNode, error) {
	if cfg == nil {
		cfg = config.Default()
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve path %q: %w", path, err)
	}

	client := lsp.NewClient(lsp.ClientConfig{
		Command:    cfg.Server.Command,
		Args:       cfg.Server.Args,
		Env:        cfg.Server.Env,
		RootDir:    abs,
		LanguageID: cfg.Server.LanguageID,
		Timeout:    cfg.Server.Timeout(),
	})
	if err := client.Start(ctx); err != nil {
		return nil, err
	}
	defer client.Shutdown()

	return client.WorkspaceSymbols(pattern)
}

// attachSymbols walks the built tree and hangs each source file's symbols
// off its node. Per-file failures degrade to a symbol-less file.
func attachSymbols(client *lsp.Client, store *cache.Store, node *tree.Node, extensions []string) {
	switch node.Kind {
	case tree.Directory:
		for _, child := range node.Children {
			attachSymbols(client, store, child, extensions)
		}
	case tree.File:
		if !allowedExt(node.Path, extensions) {
			return
		}
		symbols := fileSymbols(client, store, node.Path)
		tree.Attach(node, symbols)
	}
}

func fileSymbols(client *lsp.Client, store *cache.Store, path string) []lsp.SymbolNode {
	fi, statErr := os.Stat(path)
	if statErr == nil {
		if symbols, ok := store.Get(path, fi); ok {
			return symbols
		}
	}

	symbols, err := client.DocumentSymbols(path)
	if err != nil {
		log.Warn().Err(err).Str("path", path).Msg("symbol query failed")
		return nil
	}
	if statErr == nil {
		store.Put(path, fi, symbols)
	}
	return symbols
}

// allowedExt reports whether path's extension is one the analysis process
// should see. An empty list means every file.
func allowedExt(path string, extensions []string) bool {
	if len(extensions) == 0 {
		return true
	}
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range extensions {
		if ext == strings.ToLower(e) {
			return true
		}
	}
	return false
}
