package main

import (
	"bufio"
	"bytes"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/matkrin/mdecd/internal/coordinator"
	"github.com/matkrin/mdecd/internal/logging"
	"github.com/matkrin/mdecd/internal/lsp"
	"github.com/matkrin/mdecd/internal/rules"
	"github.com/matkrin/mdecd/internal/server"
)

const maxMessageSize = 16 * 1024 * 1024

func newServeCmd() *cobra.Command {
	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the language server on stdio",
		Args:  cobra.NoArgs,
		RunE:  runServe,
	}
	serveCmd.Flags().AddFlagSet(logFlags())
	return serveCmd
}

func runServe(cmd *cobra.Command, _ []string) error {
	settings, err := loadSettings(cmd)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("log-level") {
		if settings.Log.Level, err = cmd.Flags().GetString("log-level"); err != nil {
			return err
		}
	}
	if cmd.Flags().Changed("log-file") {
		if settings.Log.File, err = cmd.Flags().GetString("log-file"); err != nil {
			return err
		}
	}

	closer, err := logging.Init(settings.Log.Level, settings.Log.File)
	if err != nil {
		return err
	}
	defer closer.Close()
	slog.Info("Logging initialized", "level", settings.Log.Level)

	state := server.NewState(settings)
	coord := coordinator.New(rules.EditorConfig{})
	srv := server.NewServer(name, version, state, cmd.OutOrStdout(), coord)
	defer srv.Stop()

	scanner := bufio.NewScanner(cmd.InOrStdin())
	scanner.Buffer(make([]byte, 0, 64*1024), maxMessageSize)
	scanner.Split(lsp.Split)

	for scanner.Scan() {
		method, contents, err := lsp.DecodeMessage(scanner.Bytes())
		if err != nil {
			slog.Error("ERROR decoding message", "err", err)
			continue
		}
		// The scanner reuses its buffer on the next Scan.
		srv.HandleMessage(method, bytes.Clone(contents))
	}
	return scanner.Err()
}
