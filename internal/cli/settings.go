package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/ogulcanaydogan/stockwatch/pkg/model"
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Show or change alert thresholds",
}

var settingsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the persisted threshold settings",
	RunE:  runSettingsShow,
}

var settingsSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Update threshold settings",
	Long: `Update one or more threshold settings. Unset flags keep their current value.
The critical threshold must stay below the warning threshold.`,
	Example: `  stockwatch settings set --warning 20 --critical 5
  stockwatch settings set --interval 60000`,
	RunE: runSettingsSet,
}

func init() {
	rootCmd.AddCommand(settingsCmd)
	settingsCmd.AddCommand(settingsShowCmd)
	settingsCmd.AddCommand(settingsSetCmd)

	settingsSetCmd.Flags().IntP("warning", "w", 0, "Warning (low stock) threshold")
	settingsSetCmd.Flags().IntP("critical", "c", 0, "Critical stock threshold")
	settingsSetCmd.Flags().Int64P("duration", "d", 0, "Notification display duration in milliseconds")
	settingsSetCmd.Flags().Int64P("interval", "i", 0, "Poll interval in milliseconds")
}

func runSettingsShow(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	logger := newLogger(cfg)
	store, db, err := initStore(cmd.Context(), cfg, logger)
	if err != nil {
		return err
	}
	defer db.Close()

	return printSettings(store.Current())
}

func runSettingsSet(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	var patch model.SettingsPatch
	if cmd.Flags().Changed("warning") {
		v, _ := cmd.Flags().GetInt("warning")
		patch.WarningThreshold = &v
	}
	if cmd.Flags().Changed("critical") {
		v, _ := cmd.Flags().GetInt("critical")
		patch.CriticalThreshold = &v
	}
	if cmd.Flags().Changed("duration") {
		v, _ := cmd.Flags().GetInt64("duration")
		patch.NotificationDurationMs = &v
	}
	if cmd.Flags().Changed("interval") {
		v, _ := cmd.Flags().GetInt64("interval")
		patch.PollIntervalMs = &v
	}
	if patch.IsEmpty() {
		return fmt.Errorf("nothing to update: pass at least one of --warning, --critical, --duration, --interval")
	}

	logger := newLogger(cfg)
	store, db, err := initStore(cmd.Context(), cfg, logger)
	if err != nil {
		return err
	}
	defer db.Close()

	updated, err := store.Update(cmd.Context(), patch)
	if err != nil {
		return fmt.Errorf("update settings: %w", err)
	}

	fmt.Println("Settings updated.")
	return printSettings(updated)
}

func printSettings(s model.ThresholdSettings) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(s)
}
