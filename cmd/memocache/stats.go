package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/quillback/memocache/internal/store"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show entry counts for a cache store",
	RunE:  runStats,
}

func init() {
	rootCmd.AddCommand(statsCmd)
}

func runStats(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	st, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer st.Close()

	keys, err := st.Keys(ctx, namespace+":")
	if err != nil {
		return fmt.Errorf("enumerating entries: %w", err)
	}

	fmt.Printf("Namespace: %s\n", namespace)
	fmt.Printf("Entries:   %d\n", len(keys))

	if n, err := st.Len(ctx); err == nil {
		fmt.Printf("Store:     %d total\n", n)
	} else if !errors.Is(err, store.ErrLenUnknown) {
		return fmt.Errorf("counting store entries: %w", err)
	}

	if st.TracksRecency() {
		tracked, err := st.TrackedLen(ctx)
		if err != nil {
			return fmt.Errorf("counting tracked entries: %w", err)
		}
		fmt.Printf("Tracked:   %d in recency index\n", tracked)
	}
	return nil
}
