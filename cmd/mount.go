package cmd

import (
	"errors"
	"fmt"
	"log"
	"os"

	"github.com/chukul/bucketctl/internal"
	"github.com/spf13/cobra"
)

var mountProfile string

func init() {
	mountCmd.Flags().StringVar(&mountProfile, "profile", "", "Only mount buckets belonging to this profile")
	rootCmd.AddCommand(mountCmd)
}

var mountCmd = &cobra.Command{
	Use:   "mount [group...]",
	Short: "Mount the buckets of the named groups (defaults from config)",
	Run: func(cmd *cobra.Command, args []string) {
		cfg, catalog, vault, err := loadStack()
		if err != nil {
			log.Fatalf("Failed to initialize: %v", err)
		}

		groups := args
		if len(groups) == 0 {
			groups = cfg.Defaults.Groups
		}
		if len(groups) == 0 {
			fmt.Println("❌ No groups requested and no default groups configured.")
			fmt.Println("   Try: bucketctl mount <group>  (see 'bucketctl groups')")
			return
		}

		ctx, stop := runContext()
		defer stop()

		resolver := internal.NewResolver(cfg, catalog)
		pairs, errs := resolver.Resolve(ctx, groups)
		for _, e := range errs {
			fmt.Fprintf(os.Stderr, "⚠️  %v\n", e)
		}

		if mountProfile != "" {
			filtered := pairs[:0]
			for _, p := range pairs {
				if p.Profile == mountProfile {
					filtered = append(filtered, p)
				}
			}
			pairs = filtered
		}

		if len(pairs) == 0 {
			fmt.Println("📭 Nothing to mount.")
			return
		}

		mounter, err := newMounter(cfg, vault, catalog)
		if err != nil {
			log.Fatalf("Failed to initialize mounter: %v", err)
		}

		mounted := 0
		already := 0
		failed := 0
		badProfiles := map[string]bool{}

		for _, pair := range pairs {
			if badProfiles[pair.Profile] {
				fmt.Printf("⏭️  %s skipped (credentials unavailable for profile '%s')\n", pair, pair.Profile)
				failed++
				continue
			}

			unit, err := mounter.Mount(ctx, pair)
			switch {
			case err == nil && unit.Polls == 0:
				fmt.Printf("✅ %s already mounted at %s\n", pair, unit.Target)
				already++
			case err == nil:
				fmt.Printf("✅ %s mounted at %s\n", pair, unit.Target)
				mounted++
			case errors.Is(err, internal.ErrIssuanceFailed):
				// Every remaining bucket under this profile is unusable too.
				fmt.Fprintf(os.Stderr, "❌ %s: %v\n", pair, err)
				badProfiles[pair.Profile] = true
				failed++
			default:
				fmt.Fprintf(os.Stderr, "❌ %s: %v\n", pair, err)
				failed++
			}

			if ctx.Err() != nil {
				fmt.Fprintln(os.Stderr, "⚠️  Interrupted, stopping.")
				break
			}
		}

		fmt.Printf("\n📊 Summary: %d mounted, %d already live, %d failed\n", mounted, already, failed)
	},
}
