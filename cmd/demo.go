package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	cache "github.com/krisalay/tiered-cache"
	"github.com/krisalay/tiered-cache/metrics"
	"github.com/krisalay/tiered-cache/persist"
)

// demoQuota is small enough that the walkthrough can fill it by hand.
const demoQuota = 4096

var demoCmd = &cobra.Command{
	Use:   "demo",
	Short: "Walk through the cache behaviour on a throwaway in-memory tier",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		addr, err := cmd.Flags().GetString("metrics-addr")
		if err != nil {
			return err
		}
		return runDemo(cmd.Context(), cmd.OutOrStdout(), addr)
	},
}

func init() {
	demoCmd.Flags().String("metrics-addr", "", "serve /metrics on this address after the walkthrough, e.g. :9090")
}

// demoClock lets the walkthrough skip ahead instead of sleeping.
type demoClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *demoClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *demoClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func runDemo(ctx context.Context, w io.Writer, metricsAddr string) error {
	cfg := configFromViper(viper.GetViper())
	if err := cfg.Validate(false); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	logger, err := cfg.Logger()
	if err != nil {
		return fmt.Errorf("build logger: %w", err)
	}
	defer logger.Sync()

	section := func(title string) {
		fmt.Fprintf(w, "\n==================== %s ====================\n", title)
	}

	section("SYSTEM BOOT")
	fmt.Fprintln(w, "PERSISTENT TIER : Badger (in-memory)")
	fmt.Fprintf(w, "QUOTA           : %d bytes\n", demoQuota)
	fmt.Fprintf(w, "PREFIX          : %s\n", cfg.Prefix)
	fmt.Fprintf(w, "DEFAULT TTL     : %s\n", cfg.DefaultTTL)

	tier, err := persist.OpenBadger("", demoQuota, logger)
	if err != nil {
		return fmt.Errorf("open demo tier: %w", err)
	}
	defer tier.Close()

	reg := prometheus.NewRegistry()
	m := metrics.NewPrometheus(reg, appName)
	clock := &demoClock{now: time.Now()}

	opts := append(cfg.CacheOptions(logger), cache.WithMetrics(m), cache.WithTimeFunc(clock.Now))
	c := cache.New[any](tier, opts...)

	// ====================================================
	section("1) CACHE MISS")
	v, ok := c.Get(ctx, "user")
	fmt.Fprintf(w, "CACHE  → GET user = %v (found: %t)\n", v, ok)

	// ====================================================
	section("2) CACHE HIT")
	c.Set(ctx, "user", map[string]any{"name": "ada", "plan": "pro"})
	fmt.Fprintln(w, "CACHE  → SET user")
	v, ok = c.Get(ctx, "user")
	fmt.Fprintf(w, "CACHE  → GET user = %v (found: %t)\n", v, ok)

	// ====================================================
	section("3) RESTART RESTORE")
	c = cache.New[any](tier, opts...)
	fmt.Fprintf(w, "SYSTEM → new process, memory entries = %d\n", c.Stats(ctx).MemoryEntries)
	v, ok = c.Get(ctx, "user")
	fmt.Fprintf(w, "CACHE  → GET user = %v (found: %t)\n", v, ok)
	fmt.Fprintf(w, "SYSTEM → memory entries = %d\n", c.Stats(ctx).MemoryEntries)

	// ====================================================
	section("4) SINGLEFLIGHT RESTORE")
	c = cache.New[any](tier, opts...)
	results := make([]any, 5)
	var wg sync.WaitGroup
	for i := range results {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			results[id], _ = c.Get(ctx, "user")
		}(i)
	}
	wg.Wait()
	for id, val := range results {
		fmt.Fprintf(w, "GOROUTINE-%d → GET user = %v\n", id, val)
	}

	// ====================================================
	section("5) TTL EXPIRATION")
	c.SetWithTTL(ctx, "otp", "493817", time.Second)
	fmt.Fprintln(w, "CACHE  → SET otp (TTL = 1s)")
	clock.Advance(2 * time.Second)
	fmt.Fprintln(w, "CLOCK  → +2s")
	fmt.Fprintf(w, "CACHE  → VALID otp = %t\n", c.IsValid(ctx, "otp"))
	v, ok = c.Get(ctx, "otp")
	fmt.Fprintf(w, "CACHE  → GET otp = %v (found: %t)\n", v, ok)

	// ====================================================
	section("6) QUOTA RECOVERY")
	filler := strings.Repeat("x", 100)
	for i := 0; i < 20; i++ {
		c.SetWithTTL(ctx, fmt.Sprintf("session-%02d", i), filler, time.Second)
	}
	fmt.Fprintf(w, "CACHE  → SET 20 short-lived sessions, quota used = %d bytes\n", tier.Used())
	clock.Advance(2 * time.Second)
	fmt.Fprintln(w, "CLOCK  → +2s, every session is now stale")
	c.Set(ctx, "report", strings.Repeat("r", 1500))
	fmt.Fprintf(w, "CACHE  → SET report (1500 bytes), quota used = %d bytes\n", tier.Used())
	fmt.Fprintf(w, "SYSTEM → persistent entries = %d\n", c.Stats(ctx).PersistentEntries)

	// ====================================================
	section("7) INVALIDATE")
	c.Invalidate(ctx, "report")
	fmt.Fprintln(w, "CACHE  → INVALIDATE report")
	_, ok = c.Get(ctx, "report")
	fmt.Fprintf(w, "CACHE  → GET report found = %t\n", ok)

	// ====================================================
	section("8) CLEAR")
	if err := tier.Set(ctx, "theme", "dark"); err != nil {
		return fmt.Errorf("seed foreign key: %w", err)
	}
	fmt.Fprintln(w, "OTHER  → SET theme (outside the cache namespace)")
	c.Clear(ctx)
	st := c.Stats(ctx)
	fmt.Fprintf(w, "CACHE  → CLEAR, memory = %d, persistent = %d\n", st.MemoryEntries, st.PersistentEntries)
	theme, ok, _ := tier.Get(ctx, "theme")
	fmt.Fprintf(w, "OTHER  → GET theme = %s (found: %t)\n", theme, ok)

	// ====================================================
	section("METRICS")
	if err := printCounters(w, reg); err != nil {
		return err
	}

	if metricsAddr == "" {
		section("SHUTDOWN")
		return nil
	}
	return serveMetrics(ctx, w, reg, metricsAddr)
}

func printCounters(w io.Writer, reg *prometheus.Registry) error {
	families, err := reg.Gather()
	if err != nil {
		return fmt.Errorf("gather metrics: %w", err)
	}
	for _, mf := range families {
		for _, metric := range mf.GetMetric() {
			name := mf.GetName()
			for _, lp := range metric.GetLabel() {
				name += fmt.Sprintf("{%s=%q}", lp.GetName(), lp.GetValue())
			}
			fmt.Fprintf(w, "%-55s %v\n", name, metric.GetCounter().GetValue())
		}
	}
	return nil
}

func serveMetrics(ctx context.Context, w io.Writer, reg *prometheus.Registry, addr string) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()
	fmt.Fprintf(w, "\nSYSTEM → serving metrics on %s/metrics, Ctrl-C to stop\n", addr)

	select {
	case err := <-errCh:
		return fmt.Errorf("metrics server: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("shutdown metrics server: %w", err)
	}
	return nil
}
