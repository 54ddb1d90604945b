package lsp

import (
	"bufio"
	"strings"
	"testing"
)

type encodingExample struct {
	Testing bool
}

func TestEncodeMessage(t *testing.T) {
	expected := "Content-Length: 16\r\n\r\n{\"Testing\":true}"
	actual := EncodeMessage(encodingExample{Testing: true})
	if expected != actual {
		t.Fatalf("Expected: %s, Actual: %s", expected, actual)
	}
}

func TestDecodeMessage(t *testing.T) {
	incoming := "Content-Length: 15\r\n\r\n{\"method\":\"hi\"}"
	method, content, err := DecodeMessage([]byte(incoming))
	if err != nil {
		t.Fatal(err)
	}
	if len(content) != 15 {
		t.Fatalf("Expected: 15, Got: %d", len(content))
	}
	if method != "hi" {
		t.Fatalf("Expected: 'hi', Got: %s", method)
	}
}

func TestDecodeResponse(t *testing.T) {
	body := `{"jsonrpc":"2.0","id":3,"result":{"applied":true}}`
	incoming := EncodeMessage(struct {
		RPC    string `json:"jsonrpc"`
		ID     int    `json:"id"`
		Result any    `json:"result"`
	}{"2.0", 3, map[string]bool{"applied": true}})

	method, content, err := DecodeMessage([]byte(incoming))
	if err != nil {
		t.Fatal(err)
	}
	if method != "" {
		t.Errorf("method = %q, want empty for a response", method)
	}
	if string(content) != body {
		t.Errorf("content = %s, want %s", content, body)
	}
}

func TestDecodeMessageErrors(t *testing.T) {
	tests := []string{
		"no separator",
		"Content-Length: abc\r\n\r\n{}",
		"Content-Type: json\r\n\r\n{}",
		"Content-Length: 2\r\n\r\n{",
	}
	for _, msg := range tests {
		if _, _, err := DecodeMessage([]byte(msg)); err == nil {
			t.Errorf("DecodeMessage(%q) error = nil", msg)
		}
	}
}

func TestSplit(t *testing.T) {
	first := EncodeMessage(map[string]string{"method": "initialize"})
	second := EncodeMessage(map[string]string{"method": "initialized"})

	scanner := bufio.NewScanner(strings.NewReader(first + second))
	scanner.Split(Split)

	var methods []string
	for scanner.Scan() {
		method, _, err := DecodeMessage(scanner.Bytes())
		if err != nil {
			t.Fatal(err)
		}
		methods = append(methods, method)
	}
	if err := scanner.Err(); err != nil {
		t.Fatal(err)
	}

	if len(methods) != 2 || methods[0] != "initialize" || methods[1] != "initialized" {
		t.Errorf("methods = %v", methods)
	}
}

func TestSplitIncomplete(t *testing.T) {
	advance, token, err := Split([]byte("Content-Length: 10\r\n\r\n{\"a\""), false)
	if err != nil || advance != 0 || token != nil {
		t.Errorf("Split() = %d, %q, %v, want to wait for more data", advance, token, err)
	}
}
