package server

import (
	"encoding/json"
	"log/slog"
	"time"

	"github.com/matkrin/mdecd/internal/coordinator"
	"github.com/matkrin/mdecd/internal/diff"
	"github.com/matkrin/mdecd/internal/lsp"
	"github.com/matkrin/mdecd/internal/utils"
)

const applyEditLabel = "Format Markdown"

func (s *Server) handleDidChange(request *lsp.TextDocumentDidChangeNotification) {
	uri := request.Params.TextDocument.URI
	doc, ok := s.state.Documents[uri]
	if !ok {
		slog.Warn("Change for unopened document", "URI", uri)
		return
	}

	text := applyChanges(doc.Text, request.Params.ContentChanges)
	s.state.SetDocument(uri, text, request.Params.TextDocument.Version)
	slog.Debug("Changed document", "URI", uri, "version", request.Params.TextDocument.Version)

	if !s.state.Config.FormatOnTyping || s.state.ShutdownRequested {
		return
	}
	// Changes made while a pass is applying come from that pass.
	if s.state.Session(uri).Busy() {
		slog.Debug("Formatting in flight, not scheduling", "URI", uri)
		return
	}

	s.gate.Schedule(uri, func() {
		s.enqueueFunc(func() { s.formatLive(uri) })
	}, s.state.Config.DebounceDelay)
}

// formatLive runs a debounced pass. Trailing whitespace and the final
// newline are left alone while the user is typing.
func (s *Server) formatLive(uri string) {
	if !s.state.Config.FormatOnTyping {
		return
	}
	s.applyFormatting(uri, false)
}

func (s *Server) handleDidBlur(request *lsp.DidBlurNotification) {
	uri := request.Params.TextDocument.URI
	if !s.state.Config.FormatOnBoundary {
		return
	}
	s.gate.Cancel(uri)
	s.applyFormatting(uri, true)
}

func (s *Server) handleExecuteCommand(request *lsp.ExecuteCommandRequest) {
	if request.Params.Command != FormatCommand {
		s.writeResponse(lsp.NewErrorResponse(request.ID, lsp.ErrorInvalidParams, "unknown command: "+request.Params.Command))
		return
	}

	var uri string
	if len(request.Params.Arguments) == 0 || json.Unmarshal(request.Params.Arguments[0], &uri) != nil {
		s.writeResponse(lsp.NewErrorResponse(request.ID, lsp.ErrorInvalidParams, FormatCommand+" expects a document URI"))
		return
	}

	s.gate.Cancel(uri)
	s.applyFormatting(uri, true)

	s.writeResponse(lsp.ExecuteCommandResponse{
		Response: lsp.Response{
			RPC: lsp.RPC_VERSION,
			ID:  &request.ID,
		},
		Result: nil,
	})
}

func (s *Server) handleFormatting(request *lsp.FormattingRequest) {
	uri := request.Params.TextDocument.URI
	s.gate.Cancel(uri)
	s.respondWithEdits(request.ID, uri)
}

func (s *Server) handleWillSaveWaitUntil(request *lsp.WillSaveWaitUntilRequest) {
	uri := request.Params.TextDocument.URI
	if !s.state.Config.FormatOnBoundary {
		s.writeEditsResponse(request.ID, []lsp.TextEdit{})
		return
	}
	s.gate.Cancel(uri)
	s.respondWithEdits(request.ID, uri)
}

// request builds a pass over the open document uri. ok is false for unknown
// documents and URIs without a file path.
func (s *Server) request(uri string, boundary bool) (Document, coordinator.Request, bool) {
	doc, ok := s.state.Documents[uri]
	if !ok {
		slog.Debug("Formatting unopened document", "URI", uri)
		return Document{}, coordinator.Request{}, false
	}
	path, err := utils.UriToPath(uri)
	if err != nil {
		slog.Debug("Document has no file path", "URI", uri, "err", err)
		return Document{}, coordinator.Request{}, false
	}
	return doc, coordinator.Request{Path: path, Content: doc.Text, Boundary: boundary}, true
}

// respondWithEdits answers request id with the edits of a boundary pass.
// The session stays latched until the response is written.
func (s *Server) respondWithEdits(id int, uri string) {
	doc, req, ok := s.request(uri, true)
	if !ok {
		s.writeEditsResponse(id, []lsp.TextEdit{})
		return
	}

	responded := false
	outcome, err := s.coordinator.Run(s.ctx, s.state.Session(uri), req, func(change diff.TextChange, release func()) error {
		defer release()
		s.writeEditsResponse(id, []lsp.TextEdit{textEdit(doc.Text, change)})
		responded = true
		return nil
	})
	if err != nil {
		slog.Error("Formatting failed", "URI", uri, "err", err)
	}
	slog.Debug("Formatting pass", "URI", uri, "outcome", outcome)

	if !responded {
		s.writeEditsResponse(id, []lsp.TextEdit{})
	}
}

func (s *Server) writeEditsResponse(id int, edits []lsp.TextEdit) {
	s.writeResponse(lsp.FormattingResponse{
		Response: lsp.Response{
			RPC: lsp.RPC_VERSION,
			ID:  &id,
		},
		Result: edits,
	})
}

// applyFormatting runs a pass and sends its edit with workspace/applyEdit.
func (s *Server) applyFormatting(uri string, boundary bool) {
	doc, req, ok := s.request(uri, boundary)
	if !ok {
		return
	}

	outcome, err := s.coordinator.Run(s.ctx, s.state.Session(uri), req, func(change diff.TextChange, release func()) error {
		s.sendApplyEdit(uri, doc.Version, textEdit(doc.Text, change), release)
		return nil
	})
	if err != nil {
		slog.Error("Formatting failed", "URI", uri, "err", err)
	}
	slog.Debug("Formatting pass", "URI", uri, "boundary", boundary, "outcome", outcome)
}

// sendApplyEdit asks the client to apply edit. release runs when the client
// answers or after the configured timeout, whichever comes first.
func (s *Server) sendApplyEdit(uri string, version int, edit lsp.TextEdit, release func()) {
	s.nextRequestID++
	id := s.nextRequestID
	s.pendingEdits[id] = release

	s.writeResponse(lsp.NewApplyWorkspaceEditRequest(id, applyEditLabel, uri, &version, edit))

	time.AfterFunc(s.state.Config.ApplyEditTimeout, func() {
		s.enqueueFunc(func() {
			if _, ok := s.pendingEdits[id]; ok {
				slog.Warn("Client did not answer workspace/applyEdit", "URI", uri, "id", id)
			}
			s.finishApplyEdit(id)
		})
	})
}

func (s *Server) handleClientResponse(contents []byte) {
	var response lsp.ClientResponse
	if err := json.Unmarshal(contents, &response); err != nil {
		slog.Error("Could not parse client response", "err", err)
		return
	}
	if response.ID == nil {
		return
	}

	switch {
	case response.Error != nil:
		slog.Warn("Client rejected request", "id", *response.ID, "message", response.Error.Message)
	case response.Result != nil && !response.Result.Applied:
		slog.Warn("Client did not apply edit", "id", *response.ID, "reason", response.Result.FailureReason)
	}
	s.finishApplyEdit(*response.ID)
}

func (s *Server) finishApplyEdit(id int) {
	release, ok := s.pendingEdits[id]
	if !ok {
		return
	}
	delete(s.pendingEdits, id)
	release()
}
