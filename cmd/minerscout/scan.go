package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/minefleet/minerscout/internal/netutil"
	"github.com/minefleet/minerscout/pkg/credentials"
	"github.com/minefleet/minerscout/pkg/discovery"
	"github.com/minefleet/minerscout/pkg/firmware"
	"github.com/minefleet/minerscout/pkg/inventory"
)

var scanCmd = &cobra.Command{
	Use:   "scan <host|cidr> [host|cidr...]",
	Short: "Scan hosts and ranges for mining devices",
	Example: `  minerscout scan 192.168.1.0/24
  minerscout scan 10.0.0.5 10.0.1.0/24 --jobs 100 --passwords creds.txt`,
	Args: cobra.MinimumNArgs(1),
	RunE: runScan,
}

func init() {
	scanCmd.Flags().IntVar(&cfg.Jobs, "jobs", cfg.Jobs, "number of concurrent scan workers")
	scanCmd.Flags().StringVar(&cfg.User, "user", cfg.User, "SSH account name")
	scanCmd.Flags().IntVar(&cfg.Port, "port", cfg.Port, "SSH port")
	scanCmd.Flags().StringVar(&cfg.Passwords, "passwords", cfg.Passwords,
		"credential table file (host:password lines, '*' matches any host)")
	scanCmd.Flags().StringVar(&cfg.DB, "db", cfg.DB,
		"record devices in this SQLite inventory file")

	rootCmd.AddCommand(scanCmd)
}

func runScan(cmd *cobra.Command, args []string) error {
	hosts, err := netutil.ExpandHosts(args)
	if err != nil {
		return err
	}

	creds, err := credentials.Load(cfg.Passwords)
	if err != nil {
		return fmt.Errorf("load credential table: %w", err)
	}

	var store *inventory.Store
	if cfg.DB != "" {
		store, err = inventory.Open(cfg.DB)
		if err != nil {
			return err
		}
		defer store.Close()
	}

	ctx, cancel := signalContext()
	defer cancel()

	scanner := discovery.NewScanner(creds,
		discovery.WithWorkers(cfg.Jobs),
		discovery.WithUser(cfg.User),
		discovery.WithPort(cfg.Port),
		discovery.WithLogger(logger),
	)

	result := scanner.Scan(ctx, hosts, func(device *firmware.DeviceInfo) {
		fmt.Println(device.Short())

		if store != nil {
			if err := store.Record(ctx, device); err != nil {
				logger.Warn().Str("mac", device.Network.MAC).Err(err).
					Msg("failed to record device")
			}
		}
	})

	logger.Info().
		Int("hosts", result.Hosts).
		Int("devices", result.Devices).
		Dur("took", result.Duration).
		Msg("scan finished")

	return nil
}
