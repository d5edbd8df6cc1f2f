package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	cache "github.com/krisalay/tiered-cache"
	"github.com/krisalay/tiered-cache/persist"
)

var errNotFound = errors.New("not found")

// session is one CLI invocation's view of the on-disk cache.
type session struct {
	logger *zap.Logger
	tier   *persist.BadgerTier
	cache  *cache.TieredCache[any]
}

func openSession() (*session, error) {
	cfg := configFromViper(viper.GetViper())
	if err := cfg.Validate(true); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	logger, err := cfg.Logger()
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}

	tier, err := persist.OpenBadger(cfg.DataDir, cfg.QuotaBytes, logger)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", cfg.DataDir, err)
	}

	return &session{
		logger: logger,
		tier:   tier,
		cache:  cache.New[any](tier, cfg.CacheOptions(logger)...),
	}, nil
}

func (s *session) Close() error {
	err := multierr.Combine(s.tier.Maintain(), s.tier.Close())
	_ = s.logger.Sync()
	return err
}

// withSession runs fn against an open session and closes it afterwards.
func withSession(fn func(cmd *cobra.Command, s *session, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) (err error) {
		s, err := openSession()
		if err != nil {
			return err
		}
		defer func() {
			err = multierr.Append(err, s.Close())
		}()
		return fn(cmd, s, args)
	}
}

// parseValue stores JSON arguments as JSON and anything else as a plain string.
func parseValue(arg string) any {
	var v any
	if err := json.Unmarshal([]byte(arg), &v); err != nil {
		return arg
	}
	return v
}

func printValue(w io.Writer, v any) error {
	if s, ok := v.(string); ok {
		_, err := fmt.Fprintln(w, s)
		return err
	}
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(b))
	return err
}

var getCmd = &cobra.Command{
	Use:   "get KEY",
	Short: "Print a cached value",
	Args:  cobra.ExactArgs(1),
	RunE: withSession(func(cmd *cobra.Command, s *session, args []string) error {
		v, ok := s.cache.Get(cmd.Context(), args[0])
		if !ok {
			return fmt.Errorf("%q: %w", args[0], errNotFound)
		}
		return printValue(cmd.OutOrStdout(), v)
	}),
}

var setCmd = &cobra.Command{
	Use:   "set KEY VALUE",
	Short: "Store a value; JSON values are stored as JSON",
	Args:  cobra.ExactArgs(2),
	RunE: withSession(func(cmd *cobra.Command, s *session, args []string) error {
		ttl, err := cmd.Flags().GetDuration("ttl")
		if err != nil {
			return err
		}
		s.cache.SetWithTTL(cmd.Context(), args[0], parseValue(args[1]), ttl)
		return nil
	}),
}

var invalidateCmd = &cobra.Command{
	Use:     "invalidate KEY",
	Aliases: []string{"rm"},
	Short:   "Remove a key from both tiers",
	Args:    cobra.ExactArgs(1),
	RunE: withSession(func(cmd *cobra.Command, s *session, args []string) error {
		s.cache.Invalidate(cmd.Context(), args[0])
		return nil
	}),
}

var clearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove every key in the cache namespace",
	Args:  cobra.NoArgs,
	RunE: withSession(func(cmd *cobra.Command, s *session, _ []string) error {
		s.cache.Clear(cmd.Context())
		return nil
	}),
}

var validCmd = &cobra.Command{
	Use:   "valid KEY",
	Short: "Report whether a key holds an unexpired value",
	Args:  cobra.ExactArgs(1),
	RunE: withSession(func(cmd *cobra.Command, s *session, args []string) error {
		_, err := fmt.Fprintln(cmd.OutOrStdout(), s.cache.IsValid(cmd.Context(), args[0]))
		return err
	}),
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Print entry counts and the default TTL",
	Args:  cobra.NoArgs,
	RunE: withSession(func(cmd *cobra.Command, s *session, _ []string) error {
		st := s.cache.Stats(cmd.Context())
		w := cmd.OutOrStdout()
		fmt.Fprintf(w, "Memory entries     : %d\n", st.MemoryEntries)
		fmt.Fprintf(w, "Persistent entries : %d\n", st.PersistentEntries)
		fmt.Fprintf(w, "Default TTL        : %s\n", st.DefaultTTL)
		fmt.Fprintf(w, "Quota used         : %d bytes\n", s.tier.Used())
		return nil
	}),
}

func init() {
	setCmd.Flags().Duration("ttl", time.Duration(0), "time to live (default: the configured default_ttl)")
}
