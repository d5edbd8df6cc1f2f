package main

import (
	"errors"
	"fmt"
	"os"

	gap "github.com/muesli/go-app-paths"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	configFile string

	rootCmd = &cobra.Command{
		Use:   appName,
		Short: "Two-tier key/value cache backed by BadgerDB",
		Long: `tieredcache keeps values in memory for this process and in a
Badger database on disk, so values survive a restart until their TTL runs out.`,
		SilenceUsage: true,
		PersistentPreRunE: func(*cobra.Command, []string) error {
			return loadConfigFile()
		},
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file (default: tieredcache.yaml in the user config dir)")
	rootCmd.PersistentFlags().String("prefix", "", "persistent key namespace")
	rootCmd.PersistentFlags().Duration("default-ttl", 0, "TTL for writes that do not set one")
	rootCmd.PersistentFlags().String("data-dir", "", "Badger data directory")
	rootCmd.PersistentFlags().Int64("quota-bytes", 0, "persistent tier byte quota (0 = unbounded)")
	rootCmd.PersistentFlags().String("log-level", "", "debug, info, warn or error")

	_ = viper.BindPFlag("prefix", rootCmd.PersistentFlags().Lookup("prefix"))
	_ = viper.BindPFlag("default_ttl", rootCmd.PersistentFlags().Lookup("default-ttl"))
	_ = viper.BindPFlag("data_dir", rootCmd.PersistentFlags().Lookup("data-dir"))
	_ = viper.BindPFlag("quota_bytes", rootCmd.PersistentFlags().Lookup("quota-bytes"))
	_ = viper.BindPFlag("log_level", rootCmd.PersistentFlags().Lookup("log-level"))

	setDefaults(viper.GetViper())
	viper.SetEnvPrefix(appName)
	viper.AutomaticEnv()

	rootCmd.AddCommand(
		getCmd,
		setCmd,
		invalidateCmd,
		clearCmd,
		validCmd,
		statsCmd,
		demoCmd,
		benchCmd,
	)
}

// loadConfigFile reads --config, or the first tieredcache.yaml found in the user config dirs.
// A missing default file is not an error.
func loadConfigFile() error {
	if configFile != "" {
		viper.SetConfigFile(configFile)
		if err := viper.ReadInConfig(); err != nil {
			return fmt.Errorf("read config %s: %w", configFile, err)
		}
		return nil
	}

	dirs, err := gap.NewScope(gap.User, appName).ConfigDirs()
	if err != nil {
		return fmt.Errorf("find config dirs: %w", err)
	}
	if c := os.Getenv("TIEREDCACHE_CONFIG_HOME"); c != "" {
		dirs = append([]string{c}, dirs...)
	}
	for _, d := range dirs {
		viper.AddConfigPath(d)
	}
	viper.SetConfigName(appName)
	viper.SetConfigType("yaml")

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("read config: %w", err)
		}
	}
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
