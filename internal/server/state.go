package server

import (
	"github.com/matkrin/mdecd/internal/config"
	"github.com/matkrin/mdecd/internal/coordinator"
	"github.com/matkrin/mdecd/internal/lsp"
)

type Document struct {
	Text    string
	Version int
}

type State struct {
	Documents         map[string]Document
	Sessions          map[string]*coordinator.Session
	WorkspaceFolders  []lsp.WorkspaceFolder
	Config            config.Settings
	ShutdownRequested bool
}

func NewState(settings config.Settings) State {
	return State{
		Documents:         make(map[string]Document),
		Sessions:          make(map[string]*coordinator.Session),
		Config:            settings,
		ShutdownRequested: false,
	}
}

func (s *State) SetDocument(uri, documentText string, version int) {
	s.Documents[uri] = Document{
		Text:    documentText,
		Version: version,
	}
}

// Session returns the formatting session of uri, creating it on first use.
func (s *State) Session(uri string) *coordinator.Session {
	session, ok := s.Sessions[uri]
	if !ok {
		session = coordinator.NewSession(uri)
		s.Sessions[uri] = session
	}
	return session
}

func (s *State) CloseDocument(uri string) {
	delete(s.Documents, uri)
	delete(s.Sessions, uri)
}
