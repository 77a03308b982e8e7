package main

import (
	"fmt"
	"os"

	"github.com/nconklindev/mir4split/internal/config"
	"github.com/nconklindev/mir4split/internal/ui"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

var configPath string

func main() {
	rootCmd := &cobra.Command{
		Use:   "mir4split",
		Short: "Split a MIR4 localization workbook into one workbook per language",
		Long: `mir4split reads the first sheet of a localization workbook and writes
one workbook per language (EN, CT, CS, JA, TH, ES-LATAM, PT-BR), packaged
as a zip. Run without arguments for the interactive picker.`,
		Version:       fmt.Sprintf("%s\ncommit: %s\nbuilt: %s", version, commit, date),
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runUI,
	}
	rootCmd.SetVersionTemplate("mir4split {{.Version}}\n")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to config.toml (default: next to the executable)")

	rootCmd.AddCommand(newSplitCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func runUI(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	// The terminal belongs to the UI; logs only go to log.file.
	logger, closeLog, err := cfg.Log.NewLogger(nil)
	if err != nil {
		return err
	}
	defer closeLog()

	p := tea.NewProgram(ui.InitialModel(cfg, logger), tea.WithAltScreen(), tea.WithMouseCellMotion())
	if _, err := p.Run(); err != nil {
		return err
	}
	return nil
}
