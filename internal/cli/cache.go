package cli

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/dshills/strata/internal/cache"
	"github.com/dshills/strata/internal/config"
)

var flagCacheEntries bool

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Manage the render cache",
}

// openCache opens the configured cache. force opens it even when caching
// is disabled for loads.
func openCache(force bool) (*cache.Cache, error) {
	cfg, err := config.Load(flagEnvFile, nil)
	if err != nil {
		return nil, err
	}
	c, err := cache.New(force || cfg.Cache.Enabled, cfg.Cache.Dir, cfg.Cache.TTLSeconds)
	if err != nil {
		return nil, fmt.Errorf("opening cache: %w", err)
	}
	return c, nil
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Clear all cached renders",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := openCache(true)
		if err != nil {
			return err
		}
		if err := c.Clear(); err != nil {
			return fmt.Errorf("clearing cache: %w", err)
		}
		fmt.Fprintln(stdout, "Cache cleared.")
		return nil
	},
}

var cachePruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Remove expired and stale renders",
	Long:  "Prune removes entries past their TTL and entries whose source files changed or disappeared.",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := openCache(true)
		if err != nil {
			return err
		}
		n, err := c.Prune()
		if err != nil {
			return fmt.Errorf("pruning cache: %w", err)
		}
		fmt.Fprintf(stdout, "Removed %d cache entries.\n", n)
		return nil
	},
}

var cacheShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show cache statistics",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := openCache(false)
		if err != nil {
			return err
		}
		if !c.Enabled() {
			fmt.Fprintln(stdout, "Cache is disabled.")
			return nil
		}
		if flagCacheEntries {
			return showEntries(c)
		}
		stats, err := c.GetStats()
		if err != nil {
			return fmt.Errorf("reading cache stats: %w", err)
		}
		data, err := json.MarshalIndent(stats, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(stdout, string(data))
		return nil
	},
}

// showEntries prints one line per entry followed by the files it was
// rendered from.
func showEntries(c *cache.Cache) error {
	infos, err := c.List()
	if err != nil {
		return fmt.Errorf("listing cache: %w", err)
	}
	if len(infos) == 0 {
		fmt.Fprintln(stdout, "No cache entries.")
		return nil
	}
	for _, info := range infos {
		created := "-"
		if !info.CreatedAt.IsZero() {
			created = info.CreatedAt.Format(time.RFC3339)
		}
		fmt.Fprintf(stdout, "%.12s  %-7s  %s  %d bytes\n", info.Key, info.State, created, info.Bytes)
		for _, d := range info.Deps {
			fmt.Fprintf(stdout, "    %s\n", d)
		}
	}
	return nil
}

func init() {
	cacheShowCmd.Flags().BoolVar(&flagCacheEntries, "entries", false, "List entries with their state and source files")

	cacheCmd.AddCommand(cacheClearCmd)
	cacheCmd.AddCommand(cachePruneCmd)
	cacheCmd.AddCommand(cacheShowCmd)
}
