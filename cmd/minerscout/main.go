package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var (
	cfg    = LoadConfig()
	logger zerolog.Logger
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "minerscout",
	Short: "minerscout finds mining devices on the local network",
	Long: `minerscout sweeps host ranges over SSH, classifies the firmware it
finds (Braiins OS, Antminer, DragonMint) and prints one record per device.
It can also sit passively and print the presence broadcasts devices emit.`,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger = newLogger(cfg.LogLevel)
	},
	SilenceUsage: true,
}

// newLogger builds a console logger on stderr so device records on stdout
// stay machine-readable.
func newLogger(level string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		lvl = zerolog.InfoLevel
	}

	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
		Level(lvl).
		With().Timestamp().Logger()
}

// signalContext returns a context cancelled on SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func main() {
	rootCmd.PersistentFlags().StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel,
		"logging level (debug, info, warn, error)")

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
