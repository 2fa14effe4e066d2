package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/chukul/bucketctl/internal"
	"github.com/chukul/bucketctl/internal/ui"
	"github.com/spf13/cobra"
)

var (
	logoutProfile string
	logoutAll     bool
)

func init() {
	logoutCmd.Flags().StringVar(&logoutProfile, "profile", "", "Profile whose cached session should be purged")
	logoutCmd.Flags().BoolVar(&logoutAll, "all", false, "Purge cached sessions for all profiles")
	rootCmd.AddCommand(logoutCmd)
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Purge cached session credentials from the keyring",
	Run: func(cmd *cobra.Command, args []string) {
		_, catalog, vault, err := loadStack()
		if err != nil {
			log.Fatalf("Failed to initialize: %v", err)
		}

		profiles, err := catalog.Profiles()
		if err != nil {
			log.Fatalf("Failed to enumerate profiles: %v", err)
		}

		if !logoutAll && logoutProfile == "" {
			var cached []string
			for _, p := range profiles {
				if _, err := vault.Cached(p); err == nil {
					cached = append(cached, p)
				}
			}
			if len(cached) == 0 {
				fmt.Println("📭 No cached sessions found.")
				return
			}
			selected, err := ui.Select("Select profile to log out", cached)
			if err != nil {
				return
			}
			logoutProfile = selected
		}

		if logoutAll {
			fmt.Print("⚠️  This will purge all cached sessions. Type 'yes' to confirm: ")
			reader := bufio.NewReader(os.Stdin)
			input, _ := reader.ReadString('\n')
			if strings.TrimSpace(input) != "yes" {
				fmt.Println("❌ Operation cancelled.")
				return
			}

			purged := 0
			for _, p := range profiles {
				if _, err := vault.Cached(p); errors.Is(err, internal.ErrSecretNotFound) {
					continue
				}
				if err := vault.Purge(p); err != nil {
					fmt.Fprintf(os.Stderr, "⚠️  Failed to purge '%s': %v\n", p, err)
					continue
				}
				purged++
			}
			fmt.Printf("✅ Purged %d cached session(s).\n", purged)
			return
		}

		if err := vault.Purge(logoutProfile); err != nil {
			log.Fatalf("Failed to purge '%s': %v", logoutProfile, err)
		}
		fmt.Printf("✅ Cached session for '%s' purged.\n", logoutProfile)
	},
}
