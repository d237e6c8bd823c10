// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pdiddy/article-engine/internal/cache"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Manage the generation and research cache",
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove every cached response",
	Long: `Clear empties the configured cache backend. Both generated text and
memoized research bundles are removed. The memory backend is per process,
so clearing it only matters for the sqlite and redis backends.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadConfig().Cache
		c, err := cache.Open(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer c.Close()

		if err := c.Clear(cmd.Context()); err != nil {
			return fmt.Errorf("clearing %s cache: %w", cfg.Backend, err)
		}
		fmt.Printf("Cleared %s cache.\n", cfg.Backend)
		return nil
	},
}

func init() {
	cacheCmd.AddCommand(cacheClearCmd)
	rootCmd.AddCommand(cacheCmd)
}
