package cmd

import (
	"fmt"
	"os"

	"github.com/chukul/bucketctl/internal"
	"github.com/spf13/cobra"
)

var configPath string

func printLogo() {
	// Gradient colors (Blue -> Purple -> Pink)
	ascii := []string{
		`  ██████╗ ██╗   ██╗ ██████╗██╗  ██╗███████╗████████╗ ██████╗████████╗██╗     `,
		`  ██╔══██╗██║   ██║██╔════╝██║ ██╔╝██╔════╝╚══██╔══╝██╔════╝╚══██╔══╝██║     `,
		`  ██████╔╝██║   ██║██║     █████╔╝ █████╗     ██║   ██║        ██║   ██║     `,
		`  ██╔══██╗██║   ██║██║     ██╔═██╗ ██╔══╝     ██║   ██║        ██║   ██║     `,
		`  ██████╔╝╚██████╔╝╚██████╗██║  ██╗███████╗   ██║   ╚██████╗   ██║   ███████╗`,
		`  ╚═════╝  ╚═════╝  ╚═════╝╚═╝  ╚═╝╚══════╝   ╚═╝    ╚═════╝   ╚═╝   ╚══════╝`,
	}

	fmt.Println()
	for _, line := range ascii {
		for i, char := range line {
			ratio := float64(i) / float64(len(line))

			var r, g, b int
			if ratio < 0.5 {
				subRatio := ratio * 2
				r = int(0*(1-subRatio) + 170*subRatio)
				g = int(176*(1-subRatio) + 0*subRatio)
				b = int(255*(1-subRatio) + 255*subRatio)
			} else {
				subRatio := (ratio - 0.5) * 2
				r = int(170*(1-subRatio) + 255*subRatio)
				g = int(0 * (1 - subRatio))
				b = int(255*(1-subRatio) + 128*subRatio)
			}

			fmt.Printf("\x1b[38;2;%d;%d;%dm%c\x1b[0m", r, g, b, char)
		}
		fmt.Println()
	}
	fmt.Println("\x1b[1m  Mount S3 buckets as local directories with session-scoped credentials\x1b[0m")
	fmt.Println()
}

var rootCmd = &cobra.Command{
	Use:   "bucketctl",
	Short: "bucketctl mounts S3 buckets as local directories via FUSE",
	Long: `Bucketctl resolves declaratively configured bucket groups into concrete
(profile, bucket) pairs, obtains short-lived STS credentials cached in the
session keyring, and keeps the local mount tree consistent with them.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		internal.CheckForUpdates()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to the groups config (default ~/.bucketctl/groups.yaml)")
}

// Execute runs the CLI
func Execute() {
	if len(os.Args) <= 1 || (len(os.Args) > 1 && os.Args[1] == "help") {
		printLogo()
	}
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
