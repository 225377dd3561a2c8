package main

import (
	"fmt"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/xonecas/stree/internal/config"
	"github.com/xonecas/stree/internal/render"
	"github.com/xonecas/stree/internal/stree"
)

var (
	configFlag    string
	verboseFlag   bool
	extrasFlag    bool
	gitignoreFlag bool
	noSymbolsFlag bool
)

var rootCmd = &cobra.Command{
	Use:   "stree <path>",
	Short: "Print a directory tree with each source file's symbols nested inside",
	Long: `stree walks a directory, asks a language server for the symbols defined
in each source file, and prints one tree mixing both hierarchies: directories
contain files, files contain classes, classes contain methods.`,
	Args:          cobra.ExactArgs(1),
	SilenceUsage:  true,
	SilenceErrors: false,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		root, err := stree.Run(cmd.Context(), stree.Options{
			Path:         args[0],
			Extras:       extrasFlag,
			UseGitignore: gitignoreFlag,
			NoSymbols:    noSymbolsFlag,
			Config:       cfg,
		})
		if err != nil {
			return err
		}

		fmt.Print(render.Render(root))
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFlag, "config", "",
		"path to a TOML config file (default: built-in settings)")
	rootCmd.PersistentFlags().BoolVarP(&verboseFlag, "verbose", "v", false,
		"enable debug logging")

	rootCmd.Flags().BoolVar(&extrasFlag, "extras", false,
		"show permissions, owner and size for files and directories")
	rootCmd.Flags().BoolVar(&gitignoreFlag, "gitignore", false,
		"honor .gitignore and skip hidden entries")
	rootCmd.Flags().BoolVar(&noSymbolsFlag, "no-symbols", false,
		"print the filesystem tree only, without starting the language server")
}

func loadConfig() (*config.Config, error) {
	if verboseFlag {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}
	return config.Load(configFlag)
}
