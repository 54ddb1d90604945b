package lsp

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
)

const RPC_VERSION = "2.0"

const contentLengthHeader = "Content-Length: "

// JSON-RPC error codes.
const (
	ErrorParseError     = -32700
	ErrorInvalidRequest = -32600
	ErrorMethodNotFound = -32601
	ErrorInvalidParams  = -32602
)

type Request struct {
	RPC    string `json:"jsonrpc"`
	ID     int    `json:"id"`
	Method string `json:"method"`
}

type Response struct {
	RPC   string         `json:"jsonrpc"`
	ID    *int           `json:"id"`
	Error *ResponseError `json:"error,omitempty"`
}

type ResponseError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type Notification struct {
	RPC    string `json:"jsonrpc"`
	Method string `json:"method"`
}

type ErrorResponse struct {
	Response
	Result any `json:"result"`
}

func NewErrorResponse(id int, code int, message string) ErrorResponse {
	return ErrorResponse{
		Response: Response{
			RPC:   RPC_VERSION,
			ID:    &id,
			Error: &ResponseError{Code: code, Message: message},
		},
	}
}

type baseMessage struct {
	Method string `json:"method"`
}

// EncodeMessage frames msg as a JSON-RPC message with a Content-Length header.
func EncodeMessage(msg any) string {
	content, err := json.Marshal(msg)
	if err != nil {
		panic(err)
	}
	return fmt.Sprintf("%s%d\r\n\r\n%s", contentLengthHeader, len(content), content)
}

// DecodeMessage splits a framed message into its method and JSON content.
// Responses to server requests have an empty method.
func DecodeMessage(msg []byte) (string, []byte, error) {
	header, content, found := bytes.Cut(msg, []byte("\r\n\r\n"))
	if !found {
		return "", nil, errors.New("did not find separator")
	}

	contentLength, err := parseContentLength(header)
	if err != nil {
		return "", nil, err
	}
	if contentLength > len(content) {
		return "", nil, fmt.Errorf("content shorter than Content-Length %d", contentLength)
	}
	content = content[:contentLength]

	var base baseMessage
	if err := json.Unmarshal(content, &base); err != nil {
		return "", nil, fmt.Errorf("decode message: %w", err)
	}

	return base.Method, content, nil
}

// Split is a bufio.SplitFunc that yields one framed message per token.
func Split(data []byte, _ bool) (advance int, token []byte, err error) {
	header, content, found := bytes.Cut(data, []byte("\r\n\r\n"))
	if !found {
		return 0, nil, nil
	}

	contentLength, err := parseContentLength(header)
	if err != nil {
		return 0, nil, err
	}

	if len(content) < contentLength {
		return 0, nil, nil
	}

	totalLength := len(header) + 4 + contentLength
	return totalLength, data[:totalLength], nil
}

func parseContentLength(header []byte) (int, error) {
	for _, line := range bytes.Split(header, []byte("\r\n")) {
		name, value, found := bytes.Cut(line, []byte(":"))
		if !found || !bytes.EqualFold(bytes.TrimSpace(name), []byte("Content-Length")) {
			continue
		}
		length, err := strconv.Atoi(string(bytes.TrimSpace(value)))
		if err != nil {
			return 0, fmt.Errorf("invalid Content-Length: %w", err)
		}
		return length, nil
	}
	return 0, errors.New("missing Content-Length header")
}
