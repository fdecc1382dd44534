package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"heapstore/pkg/config"
	"heapstore/pkg/logging"
)

var (
	cfgFile string
	cfg     = config.Default()
)

// flagKeys maps config keys to the persistent flags that override them.
var flagKeys = map[string]string{
	"storage.page_size":     "page-size",
	"buffer_pool.max_pages": "max-pages",
	"lock.timeout":          "lock-timeout",
	"logging.level":         "log-level",
	"logging.format":        "log-format",
}

var rootCmd = &cobra.Command{
	Use:          "heapstore",
	Short:        "Maintenance tools for heapstore heap files",
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := loadConfig()
		if err != nil {
			return err
		}
		cfg = loaded
		_ = logging.Close()
		return logging.Init(cfg.LoggerConfig())
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = logging.Close()
	},
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "TOML config file")
	flags.Int("page-size", config.DefaultPageSize, "page size in bytes")
	flags.Int("max-pages", config.DefaultMaxPages, "buffer pool capacity in pages")
	flags.Duration("lock-timeout", config.DefaultLockTimeout, "lock wait before a transaction aborts")
	flags.String("log-level", "INFO", "DEBUG, INFO, WARN or ERROR")
	flags.String("log-format", "console", "json or console")

	for key, flag := range flagKeys {
		cobra.CheckErr(viper.BindPFlag(key, flags.Lookup(flag)))
	}

	viper.SetEnvPrefix("HEAPSTORE")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	rootCmd.AddCommand(newInspectCmd(), newStressCmd())
}

// loadConfig reads the TOML file, if any, then applies flags and
// HEAPSTORE_* environment variables that were set explicitly.
func loadConfig() (*config.Config, error) {
	c := config.Default()
	if cfgFile != "" {
		loaded, err := config.LoadFile(cfgFile)
		if err != nil {
			return nil, err
		}
		c = loaded
	}

	if viper.IsSet("storage.page_size") {
		c.Storage.PageSize = viper.GetInt("storage.page_size")
	}
	if viper.IsSet("buffer_pool.max_pages") {
		c.BufferPool.MaxPages = viper.GetInt("buffer_pool.max_pages")
	}
	if viper.IsSet("lock.timeout") {
		c.Lock.Timeout.Duration = viper.GetDuration("lock.timeout")
	}
	if viper.IsSet("logging.level") {
		c.Logging.Level = viper.GetString("logging.level")
	}
	if viper.IsSet("logging.format") {
		c.Logging.Format = viper.GetString("logging.format")
	}
	return c, c.Validate()
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
