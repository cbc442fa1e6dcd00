package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/aretw0/wingnotes"
	"github.com/aretw0/wingnotes/internal/platform"
	"github.com/aretw0/wingnotes/pkg/adapters/fs"
	"github.com/spf13/cobra"
)

var (
	initTitle    string
	initDebounce time.Duration
)

// initCmd represents the init command
var initCmd = &cobra.Command{
	Use:   "init [dir]",
	Short: "Create a notebook directory",
	Long: `Create a notebook in dir (default: --dir or the working directory).
This writes wingnotes.yaml and the .wingnotes system directory.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		dir := dataDir
		if len(args) == 1 {
			dir = args[0]
		}
		if dir == "" {
			cwd, err := os.Getwd()
			if err != nil {
				return fmt.Errorf("failed to get working directory: %w", err)
			}
			dir = cwd
		}

		created, err := initNotebook(dir, platform.FileConfig{
			DefaultTitle: initTitle,
			Debounce:     platform.Duration(initDebounce),
		})
		if err != nil {
			return err
		}
		if created {
			fmt.Fprintln(cmd.OutOrStdout(), "Initialized empty notebook in", dir)
		} else {
			fmt.Fprintln(cmd.OutOrStdout(), "Notebook already initialized in", dir)
		}
		return nil
	},
}

// initNotebook creates dir with its system directory and config file.
// An existing config is left untouched.
func initNotebook(dir string, cfg platform.FileConfig) (bool, error) {
	if err := os.MkdirAll(filepath.Join(dir, fs.DefaultSystemDir), 0755); err != nil {
		return false, fmt.Errorf("failed to create notebook: %w", err)
	}
	path := filepath.Join(dir, wingnotes.ConfigFileName)
	if _, err := os.Stat(path); err == nil {
		return false, nil
	} else if !errors.Is(err, os.ErrNotExist) {
		return false, err
	}
	if err := platform.WriteConfig(path, cfg); err != nil {
		return false, fmt.Errorf("failed to write config: %w", err)
	}
	return true, nil
}

func init() {
	rootCmd.AddCommand(initCmd)
	initCmd.Flags().StringVar(&initTitle, "title", "", "Default title for new notes")
	initCmd.Flags().DurationVar(&initDebounce, "autosave", 0, "Autosave quiet period written to the config")
}
