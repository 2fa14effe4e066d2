package cmd

import (
	"fmt"
	"log"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(cleanupCmd)
}

var cleanupCmd = &cobra.Command{
	Use:   "cleanup",
	Short: "Remove empty, unmounted directories under the mount base",
	Run: func(cmd *cobra.Command, args []string) {
		cfg, catalog, vault, err := loadStack()
		if err != nil {
			log.Fatalf("Failed to initialize: %v", err)
		}

		mounter, err := newMounter(cfg, vault, catalog)
		if err != nil {
			log.Fatalf("Failed to initialize mounter: %v", err)
		}

		report, err := mounter.Cleanup()
		if err != nil {
			log.Fatalf("Cleanup failed: %v", err)
		}

		fmt.Printf("🧹 Cleanup: %d directories removed, %d skipped\n", report.Removed, report.Skipped)
	},
}
