package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/google/logger"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"secretsanta/internal/store"
)

const minSessionTimeout = time.Second

type Config struct {
	adminToken     string
	baseURL        string
	bind           string
	dataDir        string
	demo           bool
	logFile        string
	maxAttempts    int
	port           int
	sessionTimeout time.Duration
	showPasswords  bool
	storeKind      string
	verbose        bool

	log     *logger.Logger
	logSink io.Closer
}

func (c *Config) validate() error {
	if c.port < 1 || c.port > 65535 {
		return fmt.Errorf("invalid port (must be between 1-65535 inclusive): %d", c.port)
	}
	switch c.storeKind {
	case store.KindMemory, store.KindFile, store.KindSQLite:
	default:
		return fmt.Errorf("invalid store %q (must be one of memory, file, sqlite)", c.storeKind)
	}
	if c.maxAttempts < 1 {
		return fmt.Errorf("invalid max attempts (must be at least 1): %d", c.maxAttempts)
	}
	if c.sessionTimeout < minSessionTimeout {
		return fmt.Errorf("invalid session timeout (must be at least %s): %s", minSessionTimeout, c.sessionTimeout)
	}
	if c.showPasswords && c.adminToken == "" {
		return errors.New("--show-passwords requires --admin-token")
	}
	return nil
}

// initLogging routes google/logger to the console when verbose and to
// the log file when one is configured.
func (c *Config) initLogging() error {
	var sink io.Writer = io.Discard
	if c.logFile != "" {
		f, err := os.OpenFile(c.logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o640)
		if err != nil {
			return fmt.Errorf("failed to open log file: %w", err)
		}
		sink = f
		c.logSink = f
	}
	c.log = logger.Init("secretsanta", c.verbose, false, sink)
	return nil
}

func (c *Config) closeLogging() {
	if c.log != nil {
		c.log.Close()
	}
	if c.logSink != nil {
		_ = c.logSink.Close()
	}
}

// bindEnv lets SECRETSANTA_* environment variables fill flags the user
// did not set on the command line.
func bindEnv(v *viper.Viper, fs *pflag.FlagSet) {
	fs.SetNormalizeFunc(func(_ *pflag.FlagSet, name string) pflag.NormalizedName {
		return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
	})

	fs.VisitAll(func(f *pflag.Flag) {
		_ = v.BindPFlag(f.Name, f)
		_ = v.BindEnv(f.Name)
		if !f.Changed && v.IsSet(f.Name) {
			_ = fs.Set(f.Name, fmt.Sprintf("%v", v.Get(f.Name)))
		}
	})
}

func newCmd(cfg *Config) *cobra.Command {
	v := viper.New()
	v.SetEnvPrefix("SECRETSANTA")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	cmd := &cobra.Command{
		Use:           "secretsanta",
		Short:         "Draw Secret Santa assignments and let each participant reveal their own.",
		SilenceErrors: true,
		Version:       releaseVersion,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return cfg.initLogging()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			cfg.closeLogging()
		},
	}

	fs := cmd.PersistentFlags()
	fs.StringVar(&cfg.dataDir, "data-dir", "data", "directory for the file and sqlite stores (env: SECRETSANTA_DATA_DIR)")
	fs.StringVar(&cfg.logFile, "log-file", "", "append logs to this file (env: SECRETSANTA_LOG_FILE)")
	fs.IntVar(&cfg.maxAttempts, "max-attempts", 1000, "shuffles tried before a draw gives up (env: SECRETSANTA_MAX_ATTEMPTS)")
	fs.StringVar(&cfg.storeKind, "store", store.KindMemory, "state backend: memory, file or sqlite (env: SECRETSANTA_STORE)")
	fs.BoolVarP(&cfg.verbose, "verbose", "v", false, "log to the console (env: SECRETSANTA_VERBOSE)")
	bindEnv(v, fs)

	cmd.AddCommand(
		serveCmd(cfg, v),
		drawCmd(cfg),
		auditCmd(cfg),
		seedCmd(cfg),
		revealCmd(cfg),
	)

	cmd.CompletionOptions.HiddenDefaultCmd = true
	cmd.SetHelpCommand(&cobra.Command{Hidden: true})
	cmd.SetVersionTemplate("secretsanta v{{.Version}}\n")

	cmd.SilenceErrors = true
	cmd.SilenceUsage = true

	return cmd
}
