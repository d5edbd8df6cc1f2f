package main

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	cache "github.com/krisalay/tiered-cache"
	"github.com/krisalay/tiered-cache/persist"
)

type benchConfig struct {
	keys       int
	goroutines int
	ops        int
}

var benchCmd = &cobra.Command{
	Use:   "bench",
	Short: "Run a concurrent read load test on an in-memory tier",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		var bc benchConfig
		var err error
		if bc.keys, err = cmd.Flags().GetInt("keys"); err != nil {
			return err
		}
		if bc.goroutines, err = cmd.Flags().GetInt("goroutines"); err != nil {
			return err
		}
		if bc.ops, err = cmd.Flags().GetInt("ops"); err != nil {
			return err
		}
		if bc.keys <= 0 || bc.goroutines <= 0 || bc.ops <= 0 {
			return fmt.Errorf("--keys, --goroutines and --ops must be positive")
		}
		return runBench(cmd.Context(), cmd.OutOrStdout(), bc)
	},
}

func init() {
	benchCmd.Flags().Int("keys", 10000, "keys to preload")
	benchCmd.Flags().Int("goroutines", 200, "concurrent readers")
	benchCmd.Flags().Int("ops", 5000, "reads per goroutine")
}

func runBench(ctx context.Context, w io.Writer, bc benchConfig) error {
	cfg := configFromViper(viper.GetViper())
	if err := cfg.Validate(false); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	logger, err := cfg.Logger()
	if err != nil {
		return fmt.Errorf("build logger: %w", err)
	}
	defer logger.Sync()

	tier, err := persist.OpenBadger("", 0, logger)
	if err != nil {
		return fmt.Errorf("open bench tier: %w", err)
	}
	defer tier.Close()

	fmt.Fprintln(w, "\n================ CACHE LOAD BENCHMARK =================")
	fmt.Fprintln(w, "CONFIG")
	fmt.Fprintln(w, "---------------------------------")
	fmt.Fprintln(w, "Tier         : Badger (in-memory)")
	fmt.Fprintln(w, "Preload Keys :", bc.keys)
	fmt.Fprintln(w, "Goroutines   :", bc.goroutines)
	fmt.Fprintln(w, "Ops/Goroutine:", bc.ops)
	fmt.Fprintln(w, "---------------------------------")

	c := cache.New[int](tier, cfg.CacheOptions(logger)...)

	// ---------------- Preload Cache ----------------
	fmt.Fprintln(w, "Preloading cache...")
	start := time.Now()
	for i := 0; i < bc.keys; i++ {
		c.Set(ctx, fmt.Sprintf("key-%d", i), i)
	}
	writes := time.Since(start)
	fmt.Fprintln(w, "Preload complete.")

	// ---------------- Cold Reads ----------------
	fmt.Fprintln(w, "Restoring into a fresh process...")
	c = cache.New[int](tier, cfg.CacheOptions(logger)...)
	start = time.Now()
	for i := 0; i < bc.keys; i++ {
		c.Get(ctx, fmt.Sprintf("key-%d", i))
	}
	restores := time.Since(start)
	fmt.Fprintln(w, "Restore complete.")

	// ---------------- Load Test ----------------
	fmt.Fprintln(w, "Running concurrency benchmark...")
	start = time.Now()

	var wg sync.WaitGroup
	wg.Add(bc.goroutines)
	for i := 0; i < bc.goroutines; i++ {
		go func() {
			defer wg.Done()
			for j := 0; j < bc.ops; j++ {
				c.Get(ctx, fmt.Sprintf("key-%d", j%bc.keys))
			}
		}()
	}
	wg.Wait()

	reads := time.Since(start)
	totalOps := bc.goroutines * bc.ops

	fmt.Fprintln(w, "\n================ RESULTS =================")
	fmt.Fprintf(w, "Writes           : %d in %v (%.2f ops/sec)\n", bc.keys, writes, rate(bc.keys, writes))
	fmt.Fprintf(w, "Restores         : %d in %v (%.2f ops/sec)\n", bc.keys, restores, rate(bc.keys, restores))
	fmt.Fprintf(w, "Total Operations : %d\n", totalOps)
	fmt.Fprintf(w, "Total Time       : %v\n", reads)
	fmt.Fprintf(w, "Throughput       : %.2f ops/sec\n", rate(totalOps, reads))
	fmt.Fprintln(w, "=========================================")
	return nil
}

func rate(ops int, d time.Duration) float64 {
	if d <= 0 {
		return 0
	}
	return float64(ops) / d.Seconds()
}
