package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var clearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete every entry in the namespace",
	RunE:  runClear,
}

func init() {
	rootCmd.AddCommand(clearCmd)
}

func runClear(cmd *cobra.Command, args []string) error {
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
	if len(keys) == 0 {
		fmt.Println("Nothing to clear.")
		return nil
	}

	if err := st.Delete(ctx, keys...); err != nil {
		return fmt.Errorf("deleting entries: %w", err)
	}
	if err := st.Untrack(ctx, keys...); err != nil {
		return fmt.Errorf("clearing recency index: %w", err)
	}

	fmt.Printf("Cleared %d entries from namespace %s.\n", len(keys), namespace)
	return nil
}
