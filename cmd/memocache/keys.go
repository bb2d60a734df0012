package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var keysPrefix string

var keysCmd = &cobra.Command{
	Use:   "keys",
	Short: "List cache keys, optionally under a function prefix",
	RunE:  runKeys,
}

func init() {
	keysCmd.Flags().StringVar(&keysPrefix, "prefix", "", "key prefix within the namespace (e.g. \"user.ByID/\")")
	rootCmd.AddCommand(keysCmd)
}

func runKeys(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	st, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer st.Close()

	keys, err := st.Keys(ctx, namespace+":"+keysPrefix)
	if err != nil {
		return fmt.Errorf("enumerating entries: %w", err)
	}

	for _, k := range keys {
		fmt.Println(k)
	}
	return nil
}
