package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/minefleet/minerscout/pkg/listen"
)

var listenCmd = &cobra.Command{
	Use:   "listen",
	Short: "Print the presence broadcasts devices emit",
	Example: `  minerscout listen
  minerscout listen --format "mac={MAC} ip={IP}"`,
	Args: cobra.NoArgs,
	RunE: runListen,
}

func init() {
	listenCmd.Flags().IntVar(&cfg.ListenPort, "listen-port", cfg.ListenPort,
		"UDP port to listen on")
	listenCmd.Flags().StringVar(&cfg.Format, "format", cfg.Format,
		"output template, {IP} and {MAC} are substituted")

	rootCmd.AddCommand(listenCmd)
}

func runListen(_ *cobra.Command, _ []string) error {
	ctx, cancel := signalContext()
	defer cancel()

	listener := listen.NewListener(
		listen.WithPort(cfg.ListenPort),
		listen.WithLogger(logger),
	)

	err := listener.Listen(ctx, func(ann listen.Announcement) {
		fmt.Println(ann.Format(cfg.Format))
	})
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
