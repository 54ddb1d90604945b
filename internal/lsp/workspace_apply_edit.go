package lsp

// https://microsoft.github.io/language-server-protocol/specifications/lsp/3.17/specification/#workspace_applyEdit
type ApplyWorkspaceEditRequest struct {
	Request
	Params ApplyWorkspaceEditParams `json:"params"`
}

type ApplyWorkspaceEditParams struct {
	Label string        `json:"label,omitempty"`
	Edit  WorkspaceEdit `json:"edit"`
}

func NewApplyWorkspaceEditRequest(id int, label, uri string, version *int, edit TextEdit) ApplyWorkspaceEditRequest {
	return ApplyWorkspaceEditRequest{
		Request: Request{
			RPC:    RPC_VERSION,
			ID:     id,
			Method: "workspace/applyEdit",
		},
		Params: ApplyWorkspaceEditParams{
			Label: label,
			Edit: WorkspaceEdit{
				DocumentChanges: []TextDocumentEdit{
					{
						TextDocument: OptionalVersionedTextDocumentIdentifier{
							TextDocumentIdentifier: TextDocumentIdentifier{URI: uri},
							Version:                version,
						},
						Edits: []TextEdit{edit},
					},
				},
			},
		},
	}
}

// ClientResponse is any response the client sends to a server request.
type ClientResponse struct {
	Response
	Result *ApplyWorkspaceEditResult `json:"result"`
}

type ApplyWorkspaceEditResult struct {
	Applied       bool   `json:"applied"`
	FailureReason string `json:"failureReason,omitempty"`
}
