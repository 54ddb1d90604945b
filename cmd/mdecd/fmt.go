package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/matkrin/mdecd/internal/batch"
	"github.com/matkrin/mdecd/internal/coordinator"
	"github.com/matkrin/mdecd/internal/rules"
)

var (
	errorColor   = color.New(color.FgRed, color.Bold)
	changedColor = color.New(color.FgYellow)
	fixedColor   = color.New(color.FgGreen)
)

func newFmtCmd() *cobra.Command {
	fmtCmd := &cobra.Command{
		Use:   "fmt [flags] <path> [path...]",
		Short: "Format Markdown files according to .editorconfig",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runFmt,
	}
	fmtCmd.Flags().Bool("check", false, "list files that need formatting and exit non-zero if any")
	fmtCmd.Flags().Bool("stdout", false, "print formatted content instead of rewriting files")
	fmtCmd.Flags().Int("jobs", 0, "files formatted in parallel (0 = GOMAXPROCS)")
	fmtCmd.Flags().String("color", "auto", "colorize output (auto|on|off)")
	return fmtCmd
}

func runFmt(cmd *cobra.Command, args []string) error {
	check, err := cmd.Flags().GetBool("check")
	if err != nil {
		return err
	}
	writeToStdout, err := cmd.Flags().GetBool("stdout")
	if err != nil {
		return err
	}
	jobs, err := cmd.Flags().GetInt("jobs")
	if err != nil {
		return err
	}
	colorMode, err := cmd.Flags().GetString("color")
	if err != nil {
		return err
	}

	if writeToStdout && check {
		return errors.New("fmt: --stdout cannot be used with --check")
	}
	if err := configureColor(colorMode); err != nil {
		return err
	}

	settings, err := loadSettings(cmd)
	if err != nil {
		return err
	}

	results, err := batch.FormatPaths(cmd.Context(), coordinator.New(rules.EditorConfig{}), args, batch.Options{
		Check:       check,
		Stdout:      writeToStdout,
		Jobs:        jobs,
		ExcludeDirs: settings.ExcludeDirs,
		Extensions:  settings.Extensions,
	})
	if err != nil {
		return fmt.Errorf("fmt: %w", err)
	}

	hasErrors, hasChanges := renderFmt(cmd.OutOrStdout(), cmd.ErrOrStderr(), results, check, writeToStdout)
	if hasErrors {
		return errors.New("fmt: failed to format some files")
	}
	if check && hasChanges {
		return errors.New("fmt: formatting changes required")
	}
	return nil
}

func renderFmt(stdout, stderr io.Writer, results []batch.Result, check, writeToStdout bool) (hasErrors, hasChanges bool) {
	for _, res := range results {
		if res.Err != nil {
			hasErrors = true
			errorColor.Fprintf(stderr, "fmt: %s: %v\n", res.Path, res.Err)
			continue
		}
		if res.Changed {
			hasChanges = true
		}

		switch {
		case writeToStdout:
			_, _ = stdout.Write(res.Formatted)
		case check:
			if res.Changed {
				changedColor.Fprintln(stdout, res.Path)
			}
		case res.Changed:
			fixedColor.Fprintf(stdout, "reformatted %s\n", res.Path)
		}
	}
	return hasErrors, hasChanges
}

func configureColor(mode string) error {
	switch mode {
	case "on":
		color.NoColor = false
	case "off":
		color.NoColor = true
	case "auto":
		color.NoColor = !term.IsTerminal(int(os.Stdout.Fd()))
	default:
		return fmt.Errorf("fmt: unsupported color mode %q", mode)
	}
	return nil
}
