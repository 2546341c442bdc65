package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/chartchat/chartchat/internal/config"
)

var onboardCmd = &cobra.Command{
	Use:   "onboard",
	Short: "Initialize configuration and the plots directory",
	RunE:  runOnboard,
}

func runOnboard(_ *cobra.Command, _ []string) error {
	cfgPath := resolvedConfigPath()

	var cfg *config.Config
	if _, err := os.Stat(cfgPath); err == nil {
		fmt.Printf("Config already exists at %s\n", cfgPath)
		fmt.Printf("Press Enter to refresh (keep existing values) or Ctrl+C to cancel: ")
		fmt.Scanln()
		existing, loadErr := config.Load(cfgPath)
		if loadErr != nil {
			def := config.DefaultConfig()
			existing = &def
		}
		cfg = existing
		if err := config.Save(cfg, cfgPath); err != nil {
			return err
		}
		fmt.Printf("✓ Config refreshed at %s\n", cfgPath)
	} else {
		def := config.DefaultConfig()
		cfg = &def
		if err := config.Save(cfg, cfgPath); err != nil {
			return err
		}
		fmt.Printf("✓ Created config at %s\n", cfgPath)
	}

	plots := cfg.PlotsPath()
	if err := os.MkdirAll(plots, 0o755); err != nil {
		return fmt.Errorf("create plots dir: %w", err)
	}
	fmt.Printf("✓ Plots directory at %s\n", plots)

	fmt.Printf("\n%s chartchat is ready!\n\n", logo)
	fmt.Println("Next steps:")
	fmt.Printf("  1. Add your API key to %s (or export OPENAI_API_KEY)\n", cfgPath)
	fmt.Println("  2. Chat:  chartchat chat -m \"Plot the last 30 days\"")
	fmt.Println("  3. Serve: chartchat serve")
	return nil
}
