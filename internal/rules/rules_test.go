package rules

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func ptr[T any](v T) *T {
	return &v
}

func TestEffective(t *testing.T) {
	full := Options{
		IndentStyle:            ptr(IndentTab),
		IndentSize:             ptr(4),
		TrimTrailingWhitespace: ptr(true),
		InsertFinalNewline:     ptr(true),
		EndOfLine:              ptr(EndOfLineCRLF),
	}

	tests := []struct {
		name     string
		opts     Options
		boundary bool
		want     Rules
	}{
		{
			name:     "defaults",
			opts:     Options{},
			boundary: true,
			want:     Rules{IndentStyle: IndentSpace, IndentSize: 2, EndOfLine: EndOfLineLF},
		},
		{
			name:     "boundary keeps destructive rules",
			opts:     full,
			boundary: true,
			want: Rules{
				IndentStyle:            IndentTab,
				IndentSize:             4,
				TrimTrailingWhitespace: true,
				InsertFinalNewline:     true,
				EndOfLine:              EndOfLineCRLF,
			},
		},
		{
			name:     "live pass disables trim and final newline",
			opts:     full,
			boundary: false,
			want:     Rules{IndentStyle: IndentTab, IndentSize: 4, EndOfLine: EndOfLineCRLF},
		},
		{
			name:     "non-positive indent size falls back",
			opts:     Options{IndentSize: ptr(0)},
			boundary: true,
			want:     Rules{IndentStyle: IndentSpace, IndentSize: 2, EndOfLine: EndOfLineLF},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Effective(tt.opts, tt.boundary)
			if got != tt.want {
				t.Errorf("Effective() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestEndOfLineSequence(t *testing.T) {
	if got := EndOfLineCRLF.Sequence(); got != "\r\n" {
		t.Errorf("crlf sequence = %q", got)
	}
	if got := EndOfLineLF.Sequence(); got != "\n" {
		t.Errorf("lf sequence = %q", got)
	}
	if got := EndOfLine("").Sequence(); got != "\n" {
		t.Errorf("empty sequence = %q", got)
	}
}

func writeEditorConfig(t *testing.T, dir, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, ".editorconfig"), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestEditorConfigResolve(t *testing.T) {
	dir := t.TempDir()
	writeEditorConfig(t, dir, `root = true

[*.md]
indent_style = tab
indent_size = 4
trim_trailing_whitespace = true
insert_final_newline = false
end_of_line = crlf
`)

	opts, err := EditorConfig{}.Resolve(context.Background(), filepath.Join(dir, "notes.md"))
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}

	got := Effective(opts, true)
	want := Rules{
		IndentStyle:            IndentTab,
		IndentSize:             4,
		TrimTrailingWhitespace: true,
		InsertFinalNewline:     false,
		EndOfLine:              EndOfLineCRLF,
	}
	if got != want {
		t.Errorf("Effective(Resolve()) = %+v, want %+v", got, want)
	}
}

func TestEditorConfigIndentSizeTab(t *testing.T) {
	dir := t.TempDir()
	writeEditorConfig(t, dir, `root = true

[*]
indent_style = tab
indent_size = tab
tab_width = 8
`)

	opts, err := EditorConfig{}.Resolve(context.Background(), filepath.Join(dir, "a.md"))
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if opts.IndentSize == nil || *opts.IndentSize != 8 {
		t.Errorf("IndentSize = %v, want 8", opts.IndentSize)
	}
}

func TestEditorConfigNoRules(t *testing.T) {
	dir := t.TempDir()
	writeEditorConfig(t, dir, `root = true

[*.go]
indent_style = tab
`)

	_, err := EditorConfig{}.Resolve(context.Background(), filepath.Join(dir, "readme.md"))
	if !errors.Is(err, ErrNoRules) {
		t.Errorf("Resolve() error = %v, want ErrNoRules", err)
	}
}

func TestEditorConfigCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := EditorConfig{}.Resolve(ctx, "readme.md")
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Resolve() error = %v, want context.Canceled", err)
	}
}
