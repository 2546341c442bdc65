package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show chartchat status",
	RunE:  runStatus,
}

func runStatus(_ *cobra.Command, _ []string) error {
	cfgPath := resolvedConfigPath()

	fmt.Printf("%s chartchat Status\n\n", logo)

	cfgMark := "✗"
	if _, err := os.Stat(cfgPath); err == nil {
		cfgMark = "✓"
	}
	fmt.Printf("Config:    %s %s\n", cfgPath, cfgMark)

	cfg, err := loadConfig()
	if err != nil {
		fmt.Printf("  (could not load config: %v)\n", err)
		return nil
	}

	plots := cfg.PlotsPath()
	plotsMark := "✗"
	if _, err := os.Stat(plots); err == nil {
		plotsMark = "✓"
	}
	fmt.Printf("Plots:     %s %s\n", plots, plotsMark)
	fmt.Printf("Model:     %s\n", cfg.Model.Name)
	fmt.Printf("Endpoint:  %s\n", cfg.APIBase())
	if cfg.APIKey() != "" {
		fmt.Println("API key:   ✓")
	} else {
		fmt.Println("API key:   (not set)")
	}
	fmt.Printf("Listen:    %s\n\n", cfg.Addr())

	fmt.Println("Limits:")
	fmt.Printf("  %-18s %d\n", "tool rounds", cfg.Agent.MaxToolRounds)
	fmt.Printf("  %-18s %ds\n", "turn timeout", cfg.Agent.TurnTimeoutSeconds)
	fmt.Printf("  %-18s %s\n", "busy policy", cfg.Agent.BusyPolicy)
	if ttl := cfg.IdleTTL(); ttl > 0 {
		fmt.Printf("  %-18s %s\n", "session idle ttl", ttl)
	} else {
		fmt.Printf("  %-18s never\n", "session idle ttl")
	}

	if err := cfg.Validate(); err != nil {
		fmt.Printf("\n✗ %v\n", err)
	}
	return nil
}
