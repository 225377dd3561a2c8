package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/xonecas/stree/internal/lsp"
	"github.com/xonecas/stree/internal/stree"
)

var queryRootFlag string

var queryCmd = &cobra.Command{
	Use:   "query <pattern>",
	Short: "Search the whole workspace for symbols matching a pattern",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		symbols, err := stree.Query(cmd.Context(), queryRootFlag, args[0], cfg)
		if err != nil {
			return err
		}
		fmt.Print(formatSymbols(symbols))
		return nil
	},
}

func init() {
	queryCmd.Flags().StringVar(&queryRootFlag, "root", ".",
		"workspace root handed to the language server")
	rootCmd.AddCommand(queryCmd)
}

// formatSymbols renders query results with the tree view's two-space
// indent. Grouped results keep their container nesting, so a method
// reported inside a class prints indented under it instead of vanishing.
func formatSymbols(symbols []lsp.SymbolNode) string {
	var b strings.Builder
	writeSymbols(&b, symbols, 0)
	return b.String()
}

func writeSymbols(b *strings.Builder, symbols []lsp.SymbolNode, depth int) {
	indent := strings.Repeat("  ", depth)
	for _, s := range symbols {
		fmt.Fprintf(b, "%s%s %s\n", indent, s.Kind, s.Name)
		writeSymbols(b, s.Children, depth+1)
	}
}
