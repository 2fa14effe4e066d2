package cmd

import (
	"bufio"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/chukul/bucketctl/internal"
	"github.com/chukul/bucketctl/internal/ui"
	"github.com/spf13/cobra"
)

var (
	unmountAll     bool
	unmountProfile string
)

func init() {
	unmountCmd.Flags().BoolVar(&unmountAll, "all", false, "Unmount everything under the mount base")
	unmountCmd.Flags().StringVar(&unmountProfile, "profile", "", "Unmount only this profile's buckets")
	rootCmd.AddCommand(unmountCmd)
}

var unmountCmd = &cobra.Command{
	Use:   "unmount [group...]",
	Short: "Tear down live bucket mounts and reclaim stale directories",
	Run: func(cmd *cobra.Command, args []string) {
		cfg, catalog, vault, err := loadStack()
		if err != nil {
			log.Fatalf("Failed to initialize: %v", err)
		}

		ctx, stop := runContext()
		defer stop()

		sel := internal.UnmountSelector{All: unmountAll, Profile: unmountProfile}

		if !unmountAll && unmountProfile == "" && len(args) == 0 {
			// Nothing selected: offer the configured groups interactively.
			options := append([]string{"(everything)"}, cfg.GroupNames()...)
			choice, err := ui.Select("Select what to unmount", options)
			if err != nil {
				return
			}
			if choice == "(everything)" {
				sel.All = true
			} else {
				args = []string{choice}
			}
		}

		if sel.All {
			fmt.Print("⚠️  This will unmount every bucket under the mount base. Type 'yes' to confirm: ")
			reader := bufio.NewReader(os.Stdin)
			input, _ := reader.ReadString('\n')
			if strings.TrimSpace(input) != "yes" {
				fmt.Println("❌ Operation cancelled.")
				return
			}
		}

		if len(args) > 0 {
			resolver := internal.NewResolver(cfg, catalog)
			pairs, errs := resolver.Resolve(ctx, args)
			for _, e := range errs {
				fmt.Fprintf(os.Stderr, "⚠️  %v\n", e)
			}
			sel.Pairs = pairs
		}

		mounter, err := newMounter(cfg, vault, catalog)
		if err != nil {
			log.Fatalf("Failed to initialize mounter: %v", err)
		}

		report, err := mounter.Unmount(ctx, sel, func(target string, err error) {
			if err != nil {
				fmt.Fprintf(os.Stderr, "⏭️  %s skipped: %v\n", target, err)
				return
			}
			fmt.Printf("✅ %s unmounted\n", target)
		})
		if err != nil {
			log.Fatalf("Unmount failed: %v", err)
		}

		cleaned, err := mounter.Cleanup()
		if err != nil {
			fmt.Fprintf(os.Stderr, "⚠️  Cleanup pass failed: %v\n", err)
		}

		fmt.Printf("\n📊 Summary: %d unmounted, %d skipped, %d directories reclaimed\n",
			report.Done, report.Skipped, cleaned.Removed)
	},
}
