package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"pdfdispatch/internal/app"
	"pdfdispatch/internal/config"
	"pdfdispatch/internal/domain"
)

func newConvertCmd() *cobra.Command {
	var (
		tool   string
		output string
	)

	cmd := &cobra.Command{
		Use:   "convert --tool TOOL FILE",
		Short: "Convert a local HTML file with one of the configured tools",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()
			initLogging(cfg)

			d, err := app.NewDispatcher(cfg)
			if err != nil {
				return err
			}

			in, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer in.Close()

			pdf, err := d.Convert(cmd.Context(), domain.ConversionRequest{
				Tool:     tool,
				Filename: filepath.Base(args[0]),
				Body:     in,
			})
			if err != nil {
				return describe(err)
			}

			dest := output
			if dest == "" {
				dest = pdf.Filename
			}
			if err := os.WriteFile(dest, pdf.Data, 0o644); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s (%d pages, %d bytes)\n", dest, pdf.Pages, len(pdf.Data))
			return nil
		},
	}
	cmd.Flags().StringVar(&tool, "tool", "", "conversion tool id")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output path (default: output_<tool>_<stem>.pdf)")
	_ = cmd.MarkFlagRequired("tool")
	return cmd
}

// describe keeps tool output readable on the terminal.
func describe(err error) error {
	var execErr *domain.ToolExecutionError
	if errors.As(err, &execErr) {
		return fmt.Errorf("%s failed: %s", execErr.Tool, execErr.Output)
	}
	return err
}
