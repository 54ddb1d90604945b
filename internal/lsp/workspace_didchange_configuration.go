package lsp

import "encoding/json"

type DidChangeConfigurationRequest struct {
	Request
	Params DidChangeConfigurationParams `json:"params"`
}

type DidChangeConfigurationParams struct {
	Settings json.RawMessage `json:"settings"`
}
