package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/chartchat/chartchat/internal/dependency"
)

var toolsSchemas bool

var toolsCmd = &cobra.Command{
	Use:   "tools",
	Short: "List the tools offered to the model",
	RunE:  runTools,
}

func init() {
	toolsCmd.Flags().BoolVar(&toolsSchemas, "schemas", false, "Print each tool's JSON parameter schema")
}

func runTools(_ *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	container, err := dependency.New(cfg)
	if err != nil {
		return err
	}

	if !cfg.Agent.ToolsEnabled {
		fmt.Println("Tools are disabled in config; the model is offered none.")
	}
	for _, def := range container.Tools().Definitions() {
		fmt.Printf("  %-24s %s\n", def.Name, def.Description)
		if !toolsSchemas {
			continue
		}
		raw, err := json.MarshalIndent(def.Parameters, "    ", "  ")
		if err != nil {
			return fmt.Errorf("encode schema for %s: %w", def.Name, err)
		}
		fmt.Printf("    %s\n", raw)
	}
	return nil
}
