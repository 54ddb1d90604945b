package server

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"sync"

	"github.com/matkrin/mdecd/internal/coordinator"
	"github.com/matkrin/mdecd/internal/debounce"
	"github.com/matkrin/mdecd/internal/lsp"
)

// FormatCommand is the workspace/executeCommand command that formats the
// document given as its first argument.
const FormatCommand = "mdecd.format"

// BlurMethod is the notification clients send when a document loses focus.
const BlurMethod = "mdecd/didBlur"

// queuedMessage is either a client message or, when fn is set, work
// scheduled by the server itself, such as a debounced pass.
type queuedMessage struct {
	method   string
	contents []byte
	fn       func()
}

type Server struct {
	name         string
	version      string
	state        State
	writer       io.Writer
	coordinator  *coordinator.Coordinator
	gate         *debounce.Gate
	messageQueue chan queuedMessage
	done         chan struct{}
	wg           sync.WaitGroup
	mu           sync.Mutex
	ctx          context.Context
	cancel       context.CancelFunc

	// Owned by the run goroutine.
	nextRequestID int
	pendingEdits  map[int]func()

	exit func(code int)
}

func NewServer(name, version string, state State, writer io.Writer, coord *coordinator.Coordinator) *Server {
	ctx, cancel := context.WithCancel(context.Background())
	s := &Server{
		name:         name,
		version:      version,
		state:        state,
		writer:       writer,
		coordinator:  coord,
		gate:         debounce.NewGate(),
		messageQueue: make(chan queuedMessage),
		done:         make(chan struct{}),
		ctx:          ctx,
		cancel:       cancel,
		pendingEdits: make(map[int]func()),
		exit:         os.Exit,
	}

	s.wg.Add(1)
	go s.run()

	return s
}

func (s *Server) run() {
	defer s.wg.Done()
	for {
		select {
		case msg := <-s.messageQueue:
			if msg.fn != nil {
				msg.fn()
				continue
			}
			s.dispatchMessage(msg.method, msg.contents)
		case <-s.done:
			return
		}
	}
}

func (s *Server) HandleMessage(method string, contents []byte) {
	s.enqueue(queuedMessage{method: method, contents: contents})
}

// enqueue hands msg to the run goroutine. It drops msg once the server is
// stopped.
func (s *Server) enqueue(msg queuedMessage) {
	select {
	case s.messageQueue <- msg:
	case <-s.done:
	}
}

func (s *Server) enqueueFunc(fn func()) {
	s.enqueue(queuedMessage{fn: fn})
}

func (s *Server) Stop() {
	s.gate.Stop()
	s.cancel()
	close(s.done)
	s.wg.Wait()
}

func (s *Server) dispatchMessage(method string, contents []byte) {
	slog.Info("Received message", "method", method)

	if s.state.ShutdownRequested && method != "exit" && method != "" {
		s.rejectAfterShutdown(method, contents)
		return
	}

	switch method {
	case "initialize":
		var request lsp.InitializeRequest
		if err := json.Unmarshal(contents, &request); err != nil {
			slog.Error("Could not parse request", "method", method)
		}

		if request.Params.ClientInfo != nil {
			slog.Info("Connected to client",
				"name", request.Params.ClientInfo.Name,
				"version", request.Params.ClientInfo.Version,
			)
		}

		s.state.WorkspaceFolders = request.Params.WorkspaceFolders
		slog.Info("Workspace folders set", "workspaceFolders", s.state.WorkspaceFolders)

		if len(request.Params.InitializationOptions) > 0 {
			s.applySettings(request.Params.InitializationOptions)
		}

		capabilities := lsp.ServerCapabilities{
			TextDocumentSync: lsp.TextDocumentSyncOptions{
				OpenClose:         true,
				Change:            lsp.TextDocumentSyncFull,
				WillSaveWaitUntil: true,
				Save:              lsp.SaveOptions{IncludeText: true},
			},
			DocumentFormattingProvider: true,
			ExecuteCommandProvider: lsp.ExecuteCommandOptions{
				Commands: []string{FormatCommand},
			},
		}
		info := lsp.ServerInfo{
			Name:    s.name,
			Version: s.version,
		}

		msg := lsp.NewInitializeResponse(request.ID, &capabilities, &info)
		s.writeResponse(msg)

	case "initialized":

	case "shutdown":
		var request lsp.ShutdownRequest
		if err := json.Unmarshal(contents, &request); err != nil {
			slog.Error("Could not parse request", "method", method)
		}

		slog.Info("Received shutdown request")
		s.state.ShutdownRequested = true
		s.gate.Stop()

		response := lsp.ShutdownResponse{
			Response: lsp.Response{
				RPC: lsp.RPC_VERSION,
				ID:  &request.ID,
			},
			Result: nil,
		}
		s.writeResponse(response)

	case "exit":
		slog.Info("Exiting")
		if s.state.ShutdownRequested {
			s.exit(0)
		} else {
			slog.Warn("Exiting without shutdown preceding shutdown request")
			s.exit(1)
		}

	case "workspace/didChangeConfiguration":
		var request lsp.DidChangeConfigurationRequest
		if err := json.Unmarshal(contents, &request); err != nil {
			slog.Error("Could not parse request", "method", method)
			return
		}
		s.applySettings(request.Params.Settings)

	case "textDocument/didOpen":
		var request lsp.DidOpenTextDocumentNotification
		if err := json.Unmarshal(contents, &request); err != nil {
			slog.Error("Could not parse request", "method", method)
			return
		}

		document := request.Params.TextDocument
		slog.Info("Opened document", "URI", document.URI)
		s.state.SetDocument(document.URI, document.Text, document.Version)
		s.state.Session(document.URI)

	case "textDocument/didChange":
		var request lsp.TextDocumentDidChangeNotification
		if err := json.Unmarshal(contents, &request); err != nil {
			slog.Error("Could not parse request", "method", method)
			return
		}
		s.handleDidChange(&request)

	case "textDocument/didSave":
		var request lsp.DidSaveTextDocumentNotification
		if err := json.Unmarshal(contents, &request); err != nil {
			slog.Error("Could not parse request", "method", method)
			return
		}

		uri := request.Params.TextDocument.URI
		if doc, ok := s.state.Documents[uri]; ok && request.Params.Text != nil {
			s.state.SetDocument(uri, *request.Params.Text, doc.Version)
		}

	case "textDocument/didClose":
		var request lsp.DidCloseTextDocumentNotification
		if err := json.Unmarshal(contents, &request); err != nil {
			slog.Error("Could not parse request", "method", method)
			return
		}

		uri := request.Params.TextDocument.URI
		slog.Info("Closed document", "URI", uri)
		s.gate.Cancel(uri)
		s.state.CloseDocument(uri)

	case BlurMethod:
		var request lsp.DidBlurNotification
		if err := json.Unmarshal(contents, &request); err != nil {
			slog.Error("Could not parse request", "method", method)
			return
		}
		s.handleDidBlur(&request)

	case "textDocument/willSaveWaitUntil":
		var request lsp.WillSaveWaitUntilRequest
		if err := json.Unmarshal(contents, &request); err != nil {
			slog.Error("Could not parse request", "method", method)
			s.writeResponse(lsp.NewErrorResponse(request.ID, lsp.ErrorParseError, err.Error()))
			return
		}
		s.handleWillSaveWaitUntil(&request)

	case "textDocument/formatting":
		var request lsp.FormattingRequest
		if err := json.Unmarshal(contents, &request); err != nil {
			slog.Error("Could not parse request", "method", method)
			s.writeResponse(lsp.NewErrorResponse(request.ID, lsp.ErrorParseError, err.Error()))
			return
		}
		s.handleFormatting(&request)

	case "workspace/executeCommand":
		var request lsp.ExecuteCommandRequest
		if err := json.Unmarshal(contents, &request); err != nil {
			slog.Error("Could not parse request", "method", method)
			s.writeResponse(lsp.NewErrorResponse(request.ID, lsp.ErrorParseError, err.Error()))
			return
		}
		s.handleExecuteCommand(&request)

	case "":
		s.handleClientResponse(contents)

	default:
		s.handleUnknown(method, contents)
	}
}

// handleUnknown answers unsupported requests. Unsupported notifications are
// ignored.
func (s *Server) handleUnknown(method string, contents []byte) {
	var request struct {
		ID *int `json:"id"`
	}
	if err := json.Unmarshal(contents, &request); err != nil || request.ID == nil {
		return
	}
	slog.Debug("Method not supported", "method", method)
	s.writeResponse(lsp.NewErrorResponse(*request.ID, lsp.ErrorMethodNotFound, "method not found: "+method))
}

// rejectAfterShutdown answers requests received after shutdown with
// InvalidRequest. Notifications are dropped.
func (s *Server) rejectAfterShutdown(method string, contents []byte) {
	var request struct {
		ID *int `json:"id"`
	}
	if err := json.Unmarshal(contents, &request); err != nil || request.ID == nil {
		return
	}
	slog.Warn("Request after shutdown", "method", method)
	s.writeResponse(lsp.NewErrorResponse(*request.ID, lsp.ErrorInvalidRequest, "server is shut down"))
}

func (s *Server) writeResponse(msg any) {
	s.mu.Lock()
	defer s.mu.Unlock()

	reply := lsp.EncodeMessage(msg)
	if _, err := s.writer.Write([]byte(reply)); err != nil {
		slog.Error("Could not write message", "err", err)
	}
}
