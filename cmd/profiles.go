package cmd

import (
	"fmt"
	"log"
	"os"

	"github.com/chukul/bucketctl/internal/ui"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(profilesCmd)
}

var profilesCmd = &cobra.Command{
	Use:   "profiles",
	Short: "List catalog profiles and how many buckets each can see",
	Run: func(cmd *cobra.Command, args []string) {
		_, catalog, _, err := loadStack()
		if err != nil {
			log.Fatalf("Failed to initialize: %v", err)
		}

		profiles, err := catalog.Profiles()
		if err != nil {
			log.Fatalf("Failed to enumerate profiles: %v", err)
		}
		if len(profiles) == 0 {
			fmt.Println("📭 No profiles found in ~/.aws/config.")
			return
		}

		ctx, stop := runContext()
		defer stop()

		for _, profile := range profiles {
			res, err := ui.Spin(fmt.Sprintf("Listing buckets for %s...", profile), func() (any, error) {
				return catalog.ListBuckets(ctx, profile)
			})
			if err != nil {
				fmt.Fprintf(os.Stderr, "⚠️  %-20s listing failed: %v\n", profile, err)
				continue
			}
			buckets := res.([]string)
			fmt.Printf("📦 %-20s %d bucket(s)\n", profile, len(buckets))
		}
	},
}
