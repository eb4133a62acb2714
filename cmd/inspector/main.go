package main

import (
	"context"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"ufw-inspector/internal/config"
	"ufw-inspector/internal/ufwcmd"
)

var (
	configPath string
	logLevel   string
	logFile    string
	ufwPath    string
	useSudo    bool

	cfg  *config.Config
	fsys afero.Fs = afero.NewOsFs()

	newRunner = func(c *config.Config) ufwcmd.Runner {
		return ufwcmd.ExecRunner{Executable: c.Executable, Sudo: c.Sudo}
	}
)

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "ufw-inspector",
		Short: "Reads ufw rules, profiles and policies into typed form",
		Long: `ufw-inspector parses ufw application profiles, rule lines and the
	reports printed by the ufw tool, and can evaluate traffic against the
	live rule set or record it as a snapshot.`,
		SilenceUsage:      true,
		PersistentPreRunE: setup,
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&configPath, "config", "", "YAML config file")
	pf.StringVar(&logLevel, "log-level", "INFO", "Log level (DEBUG, INFO, WARN, ERROR)")
	pf.StringVar(&logFile, "log-file", "", "Log file path (default: stderr)")
	pf.StringVar(&ufwPath, "ufw", ufwcmd.DefaultExecutable, "Path to the ufw executable")
	pf.BoolVar(&useSudo, "sudo", false, "Run ufw through sudo -n")

	rootCmd.AddCommand(
		newProfilesCmd(),
		newRuleCmd(),
		newStatusCmd(),
		newCheckCmd(),
		newSnapshotCmd(),
	)
	return rootCmd
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

// setup loads the config file, lets explicit flags override it, and installs
// the logger.
func setup(cmd *cobra.Command, args []string) error {
	c := config.Default()
	if configPath != "" {
		loaded, err := config.Load(fsys, configPath)
		if err != nil {
			return err
		}
		c = loaded
	}

	flags := cmd.Flags()
	if flags.Changed("log-level") {
		c.LogLevel = logLevel
	}
	if flags.Changed("log-file") {
		c.LogFile = logFile
	}
	if flags.Changed("ufw") {
		c.Executable = ufwPath
	}
	if flags.Changed("sudo") {
		c.Sudo = useSudo
	}
	if err := c.Validate(); err != nil {
		return err
	}
	cfg = c

	slog.SetDefault(setupLogger(cfg.LogLevel, cfg.LogFile))
	slog.Debug("configuration loaded", "config", configPath, "executable", cfg.Executable, "sudo", cfg.Sudo)
	return nil
}

func setupLogger(level, logFilePath string) *slog.Logger {
	var logWriter io.Writer = os.Stderr
	if logFilePath != "" {
		// falls back to stderr; there is no logger yet to report the failure
		if f, err := os.OpenFile(logFilePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o640); err == nil {
			logWriter = f
		}
	}

	var lvl slog.Level
	switch strings.ToUpper(level) {
	case "DEBUG":
		lvl = slog.LevelDebug
	case "WARN":
		lvl = slog.LevelWarn
	case "ERROR":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}

	return slog.New(slog.NewJSONHandler(logWriter, &slog.HandlerOptions{Level: lvl}))
}
