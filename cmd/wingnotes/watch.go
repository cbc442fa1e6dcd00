package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	lcadapter "github.com/aretw0/wingnotes/pkg/adapters/lifecycle"
	"github.com/aretw0/wingnotes/pkg/core"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Follow changes made to the notebook by other processes",
	Long: `Watch the data directory and reload the notebook whenever another
process (or an editor) changes a snapshot. Stop with Ctrl+C.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		s, err := openSession(ctx)
		if err != nil {
			return err
		}
		defer s.close(context.Background())

		w, ok := s.gateway.(core.Watchable)
		if !ok {
			return fmt.Errorf("the %q adapter cannot be watched", componentType(s.gateway))
		}
		events, err := w.Watch(ctx)
		if err != nil {
			return err
		}

		source := lcadapter.NewSource(events)
		if err := source.Start(ctx); err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Watching %s (%d notes)\n", s.dir, len(s.store.Notes()))
		for e := range source.Events() {
			change, ok := e.(core.ChangeEvent)
			if !ok {
				continue
			}
			stamp := time.Unix(change.Timestamp, 0).Format("15:04:05")
			fmt.Fprintf(out, "%s %s\n", stamp, change)
			if change.Type == core.EventDelete || change.Key != storageKey(s.store) {
				continue
			}
			if err := s.store.Load(ctx); err != nil {
				s.logger.Warn("reload failed", "error", err)
				continue
			}
			fmt.Fprintf(out, "reloaded: %d notes\n", len(s.store.Notes()))
		}
		return nil
	},
}

func storageKey(store *core.Store) string {
	st, _ := store.State().(core.StoreState)
	return st.StorageKey
}

func componentType(v any) string {
	if c, ok := v.(interface{ ComponentType() string }); ok {
		return c.ComponentType()
	}
	return fmt.Sprintf("%T", v)
}

func init() {
	rootCmd.AddCommand(watchCmd)
}
