package cmd

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/google/renameio"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/smegmarip/live-recognition/internal/settings"
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Show, export, import or reset user settings",
}

var settingsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the current settings",
	Args:  cobra.NoArgs,
	RunE:  runSettingsShow,
}

var settingsExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export settings as a JSON document",
	Args:  cobra.NoArgs,
	RunE:  runSettingsExport,
}

var settingsImportCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Import settings from an exported JSON document",
	Args:  cobra.ExactArgs(1),
	RunE:  runSettingsImport,
}

var settingsResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Reset all settings to defaults",
	Args:  cobra.NoArgs,
	RunE:  runSettingsReset,
}

func init() {
	rootCmd.AddCommand(settingsCmd)
	settingsCmd.AddCommand(settingsShowCmd, settingsExportCmd, settingsImportCmd, settingsResetCmd)

	settingsShowCmd.Flags().String("format", "yaml", "Output format (yaml or json)")
	settingsExportCmd.Flags().StringP("output", "o", "", "Write to this file, or a directory for the default file name (default stdout)")
	settingsResetCmd.Flags().Bool("yes", false, "Skip the confirmation prompt")
}

func runSettingsShow(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	return writeSettings(cmd.OutOrStdout(), openStore(cfg).Current(), mustGetString(cmd, "format"))
}

func writeSettings(w io.Writer, s settings.Settings, format string) error {
	switch strings.ToLower(format) {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(s)
	case "yaml", "":
		// Round-trip through JSON so YAML keys match the JSON field names
		data, err := json.Marshal(s)
		if err != nil {
			return fmt.Errorf("failed to marshal settings: %w", err)
		}
		var doc map[string]any
		if err := json.Unmarshal(data, &doc); err != nil {
			return fmt.Errorf("failed to marshal settings: %w", err)
		}
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		defer enc.Close()
		return enc.Encode(doc)
	}
	return fmt.Errorf("unknown format %q", format)
}

func runSettingsExport(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	data, err := openStore(cfg).ExportJSON()
	if err != nil {
		return err
	}

	output := mustGetString(cmd, "output")
	if output == "" {
		_, err := cmd.OutOrStdout().Write(append(data, '\n'))
		return err
	}
	if info, err := os.Stat(output); err == nil && info.IsDir() {
		output = strings.TrimRight(output, "/") + "/" + settings.ExportFileName(time.Now())
	}
	if err := renameio.WriteFile(output, data, 0o644); err != nil {
		return fmt.Errorf("failed to write export: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Settings exported successfully to %s\n", output)
	return nil
}

func runSettingsImport(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	payload, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", args[0], err)
	}

	if _, err := openStore(cfg).Import(payload); err != nil {
		return fmt.Errorf("failed to import settings: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), "Settings imported successfully")
	return nil
}

func runSettingsReset(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if !mustGetBool(cmd, "yes") && !confirm(cmd.InOrStdin(), cmd.OutOrStdout(), "Reset all settings to defaults?") {
		fmt.Fprintln(cmd.OutOrStdout(), "Reset cancelled")
		return nil
	}

	if _, err := openStore(cfg).Reset(); err != nil {
		return fmt.Errorf("failed to reset settings: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), "Settings reset to defaults")
	return nil
}

// confirm asks a yes/no question; anything but y or yes declines
func confirm(in io.Reader, out io.Writer, question string) bool {
	fmt.Fprintf(out, "%s [y/N]: ", question)
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && line == "" {
		return false
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true
	}
	return false
}
