package cmd

import (
	"fmt"
	"log"

	"github.com/chukul/bucketctl/internal"
	"github.com/spf13/cobra"
)

var groupDescription string

func init() {
	groupsAddCmd.Flags().StringVar(&groupDescription, "description", "", "Group description")
	groupsCmd.AddCommand(groupsShowCmd)
	groupsCmd.AddCommand(groupsAddCmd)
	groupsCmd.AddCommand(groupsRmCmd)
	rootCmd.AddCommand(groupsCmd)
}

func loadConfigOnly() *internal.Config {
	path := configPath
	if path == "" {
		var err error
		path, err = internal.DefaultConfigPath()
		if err != nil {
			log.Fatalf("Failed to locate config: %v", err)
		}
	}
	cfg, err := internal.LoadConfig(path)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	return cfg
}

var groupsCmd = &cobra.Command{
	Use:   "groups",
	Short: "List configured bucket groups",
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfigOnly()
		names := cfg.GroupNames()
		if len(names) == 0 {
			fmt.Println("📭 No groups configured.")
			return
		}
		for _, name := range names {
			g := cfg.Groups[name]
			fmt.Printf("📦 %-20s %s\n", name, g.Description)
		}
	},
}

var groupsShowCmd = &cobra.Command{
	Use:   "show <name>",
	Short: "Show a group's static entries and pattern rules",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfigOnly()
		g, ok := cfg.Groups[args[0]]
		if !ok {
			fmt.Printf("❌ Unknown group '%s'.\n", args[0])
			return
		}

		fmt.Printf("📦 %s: %s\n", args[0], g.Description)
		if len(g.Buckets) > 0 {
			fmt.Println("   Buckets:")
			for _, b := range g.Buckets {
				fmt.Printf("     %s\n", b)
			}
		}
		if len(g.Patterns) > 0 {
			fmt.Println("   Patterns:")
			for _, p := range g.Patterns {
				fmt.Printf("     profile=%-12s pattern=%-16s %s\n", p.Profile, p.Pattern, p.Description)
			}
		}
	},
}

var groupsAddCmd = &cobra.Command{
	Use:   "add <name>",
	Short: "Create an empty group (edit the config to add entries)",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfigOnly()
		if _, exists := cfg.Groups[args[0]]; exists {
			fmt.Printf("❌ Group '%s' already exists.\n", args[0])
			return
		}
		cfg.SetGroup(args[0], internal.Group{Description: groupDescription})
		if err := cfg.Save(); err != nil {
			log.Fatalf("Failed to save config: %v", err)
		}
		fmt.Printf("✅ Group '%s' created.\n", args[0])
	},
}

var groupsRmCmd = &cobra.Command{
	Use:   "rm <name>",
	Short: "Delete a group",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfigOnly()
		if err := cfg.RemoveGroup(args[0]); err != nil {
			fmt.Printf("❌ %v\n", err)
			return
		}
		if err := cfg.Save(); err != nil {
			log.Fatalf("Failed to save config: %v", err)
		}
		fmt.Printf("✅ Group '%s' removed.\n", args[0])
	},
}
