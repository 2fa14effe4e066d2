package cmd

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/sts"
	"github.com/chukul/bucketctl/internal"
	"github.com/chukul/bucketctl/internal/ui"
	"github.com/spf13/cobra"
)

var statusVerify bool

func init() {
	statusCmd.Flags().BoolVar(&statusVerify, "verify", false, "Verify cached credentials against STS")
	rootCmd.AddCommand(statusCmd)
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show live mounts and cached credential state per profile",
	Run: func(cmd *cobra.Command, args []string) {
		cfg, catalog, vault, err := loadStack()
		if err != nil {
			log.Fatalf("Failed to initialize: %v", err)
		}

		base, err := cfg.MountBase()
		if err != nil {
			log.Fatalf("Failed to resolve mount base: %v", err)
		}

		entries, err := internal.NewMountTable().List(base)
		if err != nil {
			fmt.Fprintf(os.Stderr, "⚠️  Failed to read mount table: %v\n", err)
		}

		fmt.Printf("Mounts under %s:\n", base)
		if len(entries) == 0 {
			fmt.Println("  (none)")
		}
		for _, e := range entries {
			profile := e.Profile()
			if profile == "" {
				profile = "?"
			}
			fmt.Printf("  🪣 %-40s profile=%s\n", e.Target, profile)
		}

		profiles, err := catalog.Profiles()
		if err != nil {
			fmt.Fprintf(os.Stderr, "⚠️  %v\n", err)
			return
		}

		ctx, stop := runContext()
		defer stop()

		fmt.Println("\nCredentials:")
		now := time.Now()
		for _, profile := range profiles {
			bundle, err := vault.Cached(profile)
			switch {
			case errors.Is(err, internal.ErrSecretNotFound):
				fmt.Printf("  🔒 %-20s no cached session\n", profile)
				continue
			case err != nil:
				fmt.Fprintf(os.Stderr, "  ⚠️  %-20s %v\n", profile, err)
				continue
			}

			if !bundle.Valid(now) {
				fmt.Printf("  ⏰ %-20s expired at %s\n", profile, bundle.Expiration.Local().Format("2006-01-02 15:04:05"))
				continue
			}

			remaining := time.Until(bundle.Expiration).Round(time.Minute)
			line := fmt.Sprintf("  ✅ %-20s valid, %v remaining", profile, remaining)

			if statusVerify {
				if err := verifyBundle(ctx, profile, bundle); err != nil {
					line = fmt.Sprintf("  ❌ %-20s cached but rejected by STS: %v", profile, err)
				} else {
					line += " (verified)"
				}
			}
			fmt.Println(line)
		}
	},
}

// verifyBundle makes a read-only STS call with the cached bundle to prove it
// is still accepted upstream.
func verifyBundle(ctx context.Context, profile string, bundle *internal.Bundle) error {
	awsCfg, err := config.LoadDefaultConfig(ctx,
		config.WithRegion("us-east-1"), // GetCallerIdentity is region-agnostic
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			bundle.AccessKeyID,
			bundle.SecretAccessKey,
			bundle.SessionToken,
		)),
	)
	if err != nil {
		return err
	}

	client := sts.NewFromConfig(awsCfg)
	_, err = ui.Spin(fmt.Sprintf("Verifying %s...", profile), func() (any, error) {
		ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()
		return client.GetCallerIdentity(ctx, &sts.GetCallerIdentityInput{})
	})
	return err
}
