package server

import (
	"encoding/json"
	"log/slog"

	"github.com/matkrin/mdecd/internal/config"
	"github.com/matkrin/mdecd/internal/logging"
)

// applySettings merges client settings into the server configuration.
// Invalid settings are logged and ignored.
func (s *Server) applySettings(raw json.RawMessage) {
	client, err := config.ParseClientSettings(raw)
	if err != nil {
		slog.Warn("Ignoring invalid client settings", "err", err)
		return
	}

	s.state.Config = s.state.Config.Merge(client)
	if client.LogLevel != nil {
		logging.SetLevel(s.state.Config.Log.Level)
	}
	if !s.state.Config.FormatOnTyping {
		s.gate.Stop()
	}
	slog.Info("Settings updated",
		"formatOnTyping", s.state.Config.FormatOnTyping,
		"formatOnBoundary", s.state.Config.FormatOnBoundary,
		"debounceDelay", s.state.Config.DebounceDelay,
		"logLevel", s.state.Config.Log.Level,
	)
}
