package rules

import (
	"context"
	"errors"
)

// ErrNoRules is returned by a Resolver when no rule applies to a path.
var ErrNoRules = errors.New("no style rules apply")

const DefaultIndentSize = 2

type IndentStyle string

const (
	IndentSpace IndentStyle = "space"
	IndentTab   IndentStyle = "tab"
)

type EndOfLine string

const (
	EndOfLineLF   EndOfLine = "lf"
	EndOfLineCRLF EndOfLine = "crlf"
)

// Sequence returns the characters written between lines.
func (e EndOfLine) Sequence() string {
	if e == EndOfLineCRLF {
		return "\r\n"
	}
	return "\n"
}

// Options are the style options found for a file. Every field is
// optional; a nil field means the rule source did not set it.
type Options struct {
	IndentStyle            *IndentStyle
	IndentSize             *int
	TrimTrailingWhitespace *bool
	InsertFinalNewline     *bool
	EndOfLine              *EndOfLine
}

// Rules are the concrete rules the formatter applies.
type Rules struct {
	IndentStyle            IndentStyle
	IndentSize             int
	TrimTrailingWhitespace bool
	InsertFinalNewline     bool
	EndOfLine              EndOfLine
}

// Resolver finds the style options for a document path.
type Resolver interface {
	Resolve(ctx context.Context, path string) (Options, error)
}

// ResolverFunc adapts a function to the Resolver interface.
type ResolverFunc func(ctx context.Context, path string) (Options, error)

func (f ResolverFunc) Resolve(ctx context.Context, path string) (Options, error) {
	return f(ctx, path)
}

// Effective fills in defaults and, unless boundary is set, turns off the
// two rules that remove or append characters at the cursor: trailing
// whitespace trimming and the final newline.
func Effective(opts Options, boundary bool) Rules {
	r := Rules{
		IndentStyle: IndentSpace,
		IndentSize:  DefaultIndentSize,
		EndOfLine:   EndOfLineLF,
	}

	if opts.IndentStyle != nil && *opts.IndentStyle == IndentTab {
		r.IndentStyle = IndentTab
	}
	if opts.IndentSize != nil && *opts.IndentSize > 0 {
		r.IndentSize = *opts.IndentSize
	}
	if opts.EndOfLine != nil && *opts.EndOfLine == EndOfLineCRLF {
		r.EndOfLine = EndOfLineCRLF
	}

	if boundary {
		if opts.TrimTrailingWhitespace != nil {
			r.TrimTrailingWhitespace = *opts.TrimTrailingWhitespace
		}
		if opts.InsertFinalNewline != nil {
			r.InsertFinalNewline = *opts.InsertFinalNewline
		}
	}

	return r
}
