package rules

import (
	"context"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/editorconfig/editorconfig-core-go/v2"
)

// EditorConfig resolves options from the .editorconfig files above a path.
// Files are read on every call, so edits to a rule file apply to the next
// formatting pass.
type EditorConfig struct {
	// ConfigName overrides the rule file name. Empty means ".editorconfig".
	ConfigName string
}

func (e EditorConfig) Resolve(ctx context.Context, path string) (Options, error) {
	if err := ctx.Err(); err != nil {
		return Options{}, err
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return Options{}, fmt.Errorf("resolve %s: %w", path, err)
	}

	configName := e.ConfigName
	if configName == "" {
		configName = editorconfig.ConfigNameDefault
	}

	def, err := editorconfig.GetDefinitionForFilenameWithConfigname(abs, configName)
	if err != nil {
		return Options{}, fmt.Errorf("editorconfig for %s: %w", abs, err)
	}
	if def == nil || len(def.Raw) == 0 {
		return Options{}, ErrNoRules
	}

	return optionsFromDefinition(def), nil
}

func optionsFromDefinition(def *editorconfig.Definition) Options {
	var opts Options

	switch strings.ToLower(def.IndentStyle) {
	case editorconfig.IndentStyleTab:
		style := IndentTab
		opts.IndentStyle = &style
	case editorconfig.IndentStyleSpaces:
		style := IndentSpace
		opts.IndentStyle = &style
	}

	if size, err := strconv.Atoi(def.IndentSize); err == nil && size > 0 {
		opts.IndentSize = &size
	} else if def.TabWidth > 0 {
		size := def.TabWidth
		opts.IndentSize = &size
	}

	switch strings.ToLower(def.EndOfLine) {
	case editorconfig.EndOfLineCrLf:
		eol := EndOfLineCRLF
		opts.EndOfLine = &eol
	case editorconfig.EndOfLineLf, editorconfig.EndOfLineCr:
		eol := EndOfLineLF
		opts.EndOfLine = &eol
	}

	opts.TrimTrailingWhitespace = def.TrimTrailingWhitespace
	opts.InsertFinalNewline = def.InsertFinalNewline

	return opts
}
