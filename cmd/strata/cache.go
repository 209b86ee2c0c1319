package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"strata/internal/driver"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect or clear the on-disk check cache",
}

var cacheCleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Remove every cached module result",
	Args:  cobra.NoArgs,
	RunE:  runCacheClean,
}

var cacheDirCmd = &cobra.Command{
	Use:   "dir",
	Short: "Print the cache directory",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		c, err := cacheFromFlags(cmd)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), c.Dir())
		return nil
	},
}

func init() {
	cacheCmd.PersistentFlags().String("cache-dir", "", "cache directory (default: $XDG_CACHE_HOME/strata)")
	cacheCmd.AddCommand(cacheCleanCmd)
	cacheCmd.AddCommand(cacheDirCmd)
}

func cacheFromFlags(cmd *cobra.Command) (*driver.DiskCache, error) {
	dir, err := cmd.Flags().GetString("cache-dir")
	if err != nil {
		return nil, fmt.Errorf("failed to get cache-dir flag: %w", err)
	}
	if dir != "" {
		return driver.NewDiskCache(dir)
	}
	return driver.OpenDiskCache("strata")
}

func runCacheClean(cmd *cobra.Command, _ []string) error {
	g, err := readGlobalFlags(cmd)
	if err != nil {
		return err
	}
	c, err := cacheFromFlags(cmd)
	if err != nil {
		return err
	}
	if err := c.DropAll(); err != nil {
		return fmt.Errorf("failed to clear %s: %w", c.Dir(), err)
	}
	if !g.quiet {
		fmt.Fprintf(cmd.OutOrStdout(), "removed %s\n", c.Dir())
	}
	return nil
}
