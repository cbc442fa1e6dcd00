package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/aretw0/introspection"
	"github.com/spf13/cobra"

	"github.com/aretw0/wingnotes/pkg/adapters/fs"
	"github.com/aretw0/wingnotes/pkg/core"
)

var statusDiagram bool

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the state of the notebook and its storage",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(cmd.Context(), func(s *session) error {
			if statusDiagram {
				fmt.Fprintln(cmd.OutOrStdout(), notebookDiagram(s))
				return nil
			}
			return printStatus(cmd.OutOrStdout(), s.store, s.gateway)
		})
	},
}

func printStatus(w io.Writer, components ...any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	for _, c := range components {
		intro, ok := c.(introspection.Introspectable)
		if !ok {
			continue
		}
		name := "component"
		if comp, ok := c.(introspection.Component); ok {
			name = comp.ComponentType()
		}
		fmt.Fprintf(w, "=== %s ===\n", name)
		if err := enc.Encode(intro.State()); err != nil {
			return err
		}
	}
	return nil
}

// treeNode follows the node shape rendered by introspection.TreeDiagram.
type treeNode struct {
	Name     string
	Status   string
	Metadata map[string]string
	Children []treeNode
}

func notebookDiagram(s *session) string {
	config := introspection.DefaultDiagramConfig()
	config.SecondaryID = "notebook"
	config.SecondaryLabel = "Notebook"
	return introspection.TreeDiagram(buildTree(s.store, s.gateway), config)
}

func buildTree(store *core.Store, gw core.Gateway) treeNode {
	st, _ := store.State().(core.StoreState)

	// Status values must match the classes of introspection.DefaultStyles().
	saver := "suspended"
	switch {
	case st.SaveState == string(core.StateError):
		saver = "failed"
	case st.PendingWrite:
		saver = "pending"
	}

	storage := treeNode{Name: "Gateway", Status: "running", Metadata: map[string]string{"type": st.GatewayType}}
	if fsgw, ok := gw.(*fs.Gateway); ok {
		gs, _ := fsgw.State().(fs.GatewayState)
		storage.Metadata["path"] = gs.Path
		storage.Metadata["writes"] = fmt.Sprintf("%d", gs.Writes)
		watcher := "suspended"
		if gs.WatcherActive {
			watcher = "running"
		}
		storage.Children = []treeNode{{Name: "Watcher", Status: watcher, Metadata: map[string]string{"type": "goroutine"}}}
	}

	return treeNode{
		Name:   "Store",
		Status: "running",
		Metadata: map[string]string{
			"type":   "container",
			"notes":  fmt.Sprintf("%d", st.Notes),
			"blocks": fmt.Sprintf("%d", st.Blocks),
		},
		Children: []treeNode{
			{
				Name:     "Autosave",
				Status:   saver,
				Metadata: map[string]string{"type": "process", "debounce": st.Debounce, "key": st.StorageKey},
			},
			storage,
		},
	}
}

func init() {
	rootCmd.AddCommand(statusCmd)
	statusCmd.Flags().BoolVar(&statusDiagram, "diagram", false, "Print a Mermaid diagram instead of raw state")
}
