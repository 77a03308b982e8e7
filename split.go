package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"

	"github.com/nconklindev/mir4split/internal/archive"
	"github.com/nconklindev/mir4split/internal/config"
	"github.com/nconklindev/mir4split/internal/splitter"
	"github.com/nconklindev/mir4split/internal/types"

	"github.com/spf13/cobra"
)

type splitOptions struct {
	input    string
	mode     types.Mode
	outDir   string
	unpacked bool
}

func newSplitCmd() *cobra.Command {
	var (
		mode     string
		outDir   string
		unpacked bool
		verbose  bool
	)

	cmd := &cobra.Command{
		Use:   "split [input.xlsx]",
		Short: "Split a workbook without the interactive UI",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}

			if cmd.Flags().Changed("mode") {
				m, err := types.ParseMode(mode)
				if err != nil {
					return err
				}
				cfg.Split.Mode = m
			}
			if outDir != "" {
				cfg.Split.OutputDir = outDir
			}
			if verbose {
				cfg.Log.Level = "debug"
			}

			logger, closeLog, err := cfg.Log.NewLogger(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer closeLog()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()

			return runSplit(ctx, splitOptions{
				input:    args[0],
				mode:     cfg.Split.Mode,
				outDir:   cfg.OutputDirFor(args[0]),
				unpacked: unpacked,
			}, cmd.OutOrStdout(), logger)
		},
	}

	cmd.Flags().StringVar(&mode, "mode", string(types.ModeDialogue), "Split mode: dialogue or master")
	cmd.Flags().StringVarP(&outDir, "out", "o", "", "Output directory (default: next to the input file)")
	cmd.Flags().BoolVar(&unpacked, "unpacked", false, "Also write each language workbook as a separate file")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Log every language step")

	return cmd
}

func runSplit(ctx context.Context, opts splitOptions, out io.Writer, logger *slog.Logger) error {
	if _, err := os.Stat(opts.input); os.IsNotExist(err) {
		return fmt.Errorf("file not found: %s", opts.input)
	}

	a, err := splitter.SplitFile(ctx, opts.input, opts.mode, splitter.Options{
		Logger: logger,
		Progress: func(p types.Progress) {
			logger.Debug("progress", "percent", p.Percent, "done", p.Done)
		},
	})
	if err != nil {
		return fmt.Errorf("split failed: %w", err)
	}

	if a.Len() == 0 {
		fmt.Fprintf(out, "No %s language columns matched in %s; nothing written.\n", opts.mode.Label(), opts.input)
		return nil
	}

	path, err := archive.Save(opts.outDir, a)
	if err != nil {
		return fmt.Errorf("failed to write archive: %w", err)
	}

	for _, name := range a.Names() {
		fmt.Fprintf(out, "  %s\n", name)
	}
	fmt.Fprintf(out, "Wrote %s (%d languages)\n", path, a.Len())

	if opts.unpacked {
		paths, err := archive.Extract(opts.outDir, a)
		if err != nil {
			return fmt.Errorf("failed to write workbooks: %w", err)
		}
		logger.Info("workbooks written", "dir", opts.outDir, "count", len(paths))
	}

	return nil
}
