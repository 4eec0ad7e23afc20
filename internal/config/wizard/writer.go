package wizard

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/imamik/cellflow/internal/config"
)

// Function variable for dependency injection in tests.
var confirmOverwrite = defaultConfirmOverwrite

// WriteConfig writes the config to a YAML file with a descriptive header.
// If fullOutput is true, every default is written out explicitly.
func WriteConfig(cfg *config.Config, outputPath string, fullOutput bool) error {
	out := cfg
	if fullOutput {
		full := *cfg
		full.ApplyDefaults()
		out = &full
	}

	yamlBytes, err := yaml.Marshal(out)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	var sb strings.Builder
	sb.WriteString(generateHeader(outputPath, fullOutput, cfg))
	sb.WriteString("\n")
	sb.Write(yamlBytes)

	if err := os.WriteFile(outputPath, []byte(sb.String()), 0600); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}

	return nil
}

// generateHeader creates the YAML file header comment.
func generateHeader(outputPath string, fullOutput bool, cfg *config.Config) string {
	mode := "minimal"
	note := "\n# Note: This is a minimal config. Use --full flag for all options."
	if fullOutput {
		mode = "full"
		note = ""
	}

	envs := fmt.Sprintf("#   %s - ERPNext API key\n#   %s - ERPNext API secret\n",
		config.EnvERPNextAPIKey, config.EnvERPNextAPISecret)
	if cfg.UsesDevice(config.DevicePrinter) {
		envs += fmt.Sprintf("#   %s - OctoPrint API key\n", config.EnvOctoPrintAPIKey)
	}

	return fmt.Sprintf(`# cellflow configuration
# Generated by: cellflow init
# Generated at: %s
# Output mode: %s%s
#
# Required environment variables (or a .env file next to this one):
%s#
# Usage:
#   cellflow doctor -c %s
#   cellflow run -c %s
`, time.Now().Format(time.RFC3339), mode, note, envs, outputPath, outputPath)
}

// FileExists checks if a file exists at the given path.
func FileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// ConfirmOverwrite prompts the user to confirm overwriting an existing file.
func ConfirmOverwrite(path string) (bool, error) {
	return confirmOverwrite(path)
}

// defaultConfirmOverwrite is the default implementation that prompts via stdin.
func defaultConfirmOverwrite(path string) (bool, error) {
	fmt.Printf("\nFile already exists: %s\n", path)
	fmt.Print("Overwrite? (y/n): ")

	var response string
	if _, err := fmt.Scanln(&response); err != nil {
		return false, err
	}

	response = strings.ToLower(strings.TrimSpace(response))
	return response == "y" || response == "yes", nil
}
