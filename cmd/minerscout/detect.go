package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/minefleet/minerscout/pkg/credentials"
	"github.com/minefleet/minerscout/pkg/discovery"
)

var detectCmd = &cobra.Command{
	Use:     "detect <host>",
	Short:   "Classify the device at a single address",
	Example: "  minerscout detect 192.168.1.2",
	Args:    cobra.ExactArgs(1),
	RunE:    runDetect,
}

func init() {
	detectCmd.Flags().StringVar(&cfg.User, "user", cfg.User, "SSH account name")
	detectCmd.Flags().IntVar(&cfg.Port, "port", cfg.Port, "SSH port")
	detectCmd.Flags().StringVar(&cfg.Passwords, "passwords", cfg.Passwords,
		"credential table file (host:password lines, '*' matches any host)")

	rootCmd.AddCommand(detectCmd)
}

func runDetect(_ *cobra.Command, args []string) error {
	creds, err := credentials.Load(cfg.Passwords)
	if err != nil {
		return fmt.Errorf("load credential table: %w", err)
	}

	ctx, cancel := signalContext()
	defer cancel()

	scanner := discovery.NewScanner(creds,
		discovery.WithUser(cfg.User),
		discovery.WithPort(cfg.Port),
		discovery.WithLogger(logger),
	)

	device, err := scanner.Detect(ctx, args[0])
	if err != nil {
		return err
	}

	fmt.Println(device.Short())
	return nil
}
