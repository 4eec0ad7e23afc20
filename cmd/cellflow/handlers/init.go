package handlers

import (
	"context"
	"fmt"

	"github.com/imamik/cellflow/internal/config"
	"github.com/imamik/cellflow/internal/config/wizard"
)

// Factory function variables for init - can be replaced in tests.
var (
	fileExists       = wizard.FileExists
	confirmOverwrite = wizard.ConfirmOverwrite
	runWizard        = wizard.RunWizard
	writeConfig      = wizard.WriteConfig
)

// Init runs the configuration wizard and writes the result to a file.
func Init(ctx context.Context, outputPath string, advanced, fullOutput bool) error {
	if fileExists(outputPath) {
		ok, err := confirmOverwrite(outputPath)
		if err != nil {
			return fmt.Errorf("failed to confirm overwrite: %w", err)
		}
		if !ok {
			fmt.Println("Aborted.")
			return nil
		}
	}

	printWelcome()

	result, err := runWizard(ctx, advanced)
	if err != nil {
		return fmt.Errorf("wizard canceled: %w", err)
	}

	cfg := wizard.BuildConfig(result)

	if err := writeConfig(cfg, outputPath, fullOutput); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	printInitSuccess(outputPath, cfg)

	return nil
}

// printWelcome prints the welcome message.
func printWelcome() {
	fmt.Println()
	fmt.Println("cellflow - ERPNext manufacturing cell")
	fmt.Println("=====================================")
	fmt.Println()
	fmt.Println("This wizard creates a cellflow configuration.")
	fmt.Println("API keys are not stored in the file; they are read from the environment.")
	fmt.Println()
}

// printInitSuccess prints the success message with summary and next steps.
func printInitSuccess(outputPath string, cfg *config.Config) {
	fmt.Println()
	fmt.Println("Configuration saved!")
	fmt.Println()
	fmt.Printf("  File: %s\n", outputPath)
	fmt.Println()

	fmt.Println("Summary")
	fmt.Println("-------")
	fmt.Printf("  ERPNext:  %s (%s)\n", cfg.ERPNext.URL, cfg.ERPNext.Company)
	if cfg.Printer.URL != "" {
		fmt.Printf("  Printer:  %s\n", cfg.Printer.URL)
	}
	if cfg.Sorter.URL != "" {
		fmt.Printf("  Sorter:   %s\n", cfg.Sorter.URL)
	}
	fmt.Printf("  Policy:   %s\n", cfg.Manufacture.Policy)
	fmt.Printf("  Routes:   %d\n", len(cfg.Routes))
	fmt.Println()

	fmt.Println("Next Steps")
	fmt.Println("----------")
	fmt.Println("  1. Set the API credentials:")
	fmt.Printf("     export %s=<key> %s=<secret>\n", config.EnvERPNextAPIKey, config.EnvERPNextAPISecret)
	if cfg.UsesDevice(config.DevicePrinter) {
		fmt.Printf("     export %s=<key>\n", config.EnvOctoPrintAPIKey)
	}
	fmt.Println()
	fmt.Println("  2. Check connectivity:")
	fmt.Printf("     cellflow doctor -c %s\n", outputPath)
	fmt.Println()
	fmt.Println("  3. Start watching for orders:")
	fmt.Printf("     cellflow run -c %s\n", outputPath)
	fmt.Println()
}
