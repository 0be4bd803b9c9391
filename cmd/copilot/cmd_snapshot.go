package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dkillam05/farmvista-copilot/internal/snapshot"
)

var seedDemo bool

// snapshotCmd groups snapshot maintenance commands
var snapshotCmd = &cobra.Command{
	Use:   "snapshot",
	Short: "Snapshot database commands",
}

var snapshotSeedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Create a snapshot database",
	Long: `Creates a snapshot database at the configured path.

With --demo the snapshot is filled with a small demonstration dataset,
useful for trying the chat interface without the sync pipeline.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		data := snapshot.SeedData{}
		if seedDemo {
			data = snapshot.DemoData()
		}
		if err := snapshot.Seed(cfg.Snapshot.Path, data); err != nil {
			return err
		}
		fmt.Printf("Snapshot written to %s (%d fields, %d equipment, %d bins)\n",
			cfg.Snapshot.Path, len(data.Fields), len(data.Equipment), len(data.GrainBins))
		return nil
	},
}

var snapshotInfoCmd = &cobra.Command{
	Use:   "info",
	Short: "Show snapshot row counts and build stamp",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		snap, err := snapshot.Open(cfg.Snapshot.Path, logger)
		if err != nil {
			return err
		}
		defer snap.Close()

		fmt.Printf("Snapshot: %s\n", snap.Path())
		if stamp := snap.BuildStamp(); stamp != "" {
			fmt.Printf("Built:    %s\n", stamp)
		}
		fmt.Printf("Fields:            %d\n", len(snap.Fields()))
		fmt.Printf("Equipment:         %d\n", len(snap.Equipment()))
		fmt.Printf("Grain bins:        %d\n", len(snap.GrainBins()))
		fmt.Printf("Grain bags:        %d\n", len(snap.GrainBags()))
		fmt.Printf("Bin movements:     %d\n", len(snap.BinMovements()))
		fmt.Printf("Boundary requests: %d\n", len(snap.BoundaryRequests()))
		fmt.Printf("Towers:            %d\n", len(snap.Towers()))
		return nil
	},
}

func init() {
	snapshotSeedCmd.Flags().BoolVar(&seedDemo, "demo", false, "seed with demonstration data")
	snapshotCmd.AddCommand(snapshotSeedCmd)
	snapshotCmd.AddCommand(snapshotInfoCmd)
}
