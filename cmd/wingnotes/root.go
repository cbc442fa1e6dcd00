package main

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"
)

var (
	verbose    bool
	dataDir    string
	configPath string
	adapter    string
	debounce   time.Duration
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "wingnotes",
	Short: "A dual-column notebook with debounced autosave",
	Long: `wingnotes keeps notes made of blocks. Every block pairs a description
pane with a reference pane, and the whole notebook is saved as one snapshot
once edits pause.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level := slog.LevelInfo
		if verbose {
			level = slog.LevelDebug
		}

		opts := &slog.HandlerOptions{
			Level: level,
		}
		logger := slog.New(slog.NewTextHandler(os.Stderr, opts))
		slog.SetDefault(logger)
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main().
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVarP(&dataDir, "dir", "d", "", "Data directory (default: nearest directory holding wingnotes.yaml or .wingnotes, else the working directory)")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default: <dir>/wingnotes.yaml)")
	rootCmd.PersistentFlags().StringVar(&adapter, "adapter", "", "Storage adapter: fs or memory")
	rootCmd.PersistentFlags().DurationVar(&debounce, "debounce", 0, "Autosave quiet period (e.g. 500ms)")
}
