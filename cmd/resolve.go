package cmd

import (
	"fmt"
	"log"
	"os"

	"github.com/chukul/bucketctl/internal"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(resolveCmd)
}

var resolveCmd = &cobra.Command{
	Use:   "resolve [group...]",
	Short: "Show the (profile, bucket) pairs a group set expands to, without mounting",
	Run: func(cmd *cobra.Command, args []string) {
		cfg, catalog, _, err := loadStack()
		if err != nil {
			log.Fatalf("Failed to initialize: %v", err)
		}

		groups := args
		if len(groups) == 0 {
			groups = cfg.Defaults.Groups
		}

		ctx, stop := runContext()
		defer stop()

		resolver := internal.NewResolver(cfg, catalog)
		pairs, errs := resolver.Resolve(ctx, groups)
		for _, e := range errs {
			fmt.Fprintf(os.Stderr, "⚠️  %v\n", e)
		}

		if len(pairs) == 0 {
			fmt.Println("📭 No buckets resolved.")
			return
		}
		for _, p := range pairs {
			fmt.Printf("📦 %-20s %s\n", p.Profile, p.Bucket)
		}
		fmt.Printf("\n📊 %d buckets across %d group(s)\n", len(pairs), len(groups))
	},
}
