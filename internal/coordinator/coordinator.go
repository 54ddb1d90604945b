// Package coordinator runs formatting passes over documents: it looks up the
// style rules for a document, adjusts them for the kind of trigger, formats
// the text and hands the resulting minimal change to the caller.
package coordinator

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/matkrin/mdecd/internal/diff"
	"github.com/matkrin/mdecd/internal/markdown"
	"github.com/matkrin/mdecd/internal/rules"
)

// Outcome describes how a latched pass ended.
type Outcome int

const (
	// OutcomeNoop means there was nothing to change: no rules applied or
	// the text was already formatted.
	OutcomeNoop Outcome = iota
	// OutcomeBusy means another pass held the session; the request was dropped.
	OutcomeBusy
	// OutcomeApplied means a change was handed to the apply function.
	OutcomeApplied
)

func (o Outcome) String() string {
	switch o {
	case OutcomeNoop:
		return "noop"
	case OutcomeBusy:
		return "busy"
	case OutcomeApplied:
		return "applied"
	}
	return "unknown"
}

// Request is one formatting pass over a document.
type Request struct {
	// Path is the file system path used for rule lookup.
	Path    string
	Content string
	// Boundary marks passes triggered by leaving the document or an explicit
	// request. Only boundary passes trim trailing whitespace and insert the
	// final newline.
	Boundary bool
}

// ApplyFunc applies change to the live document. The session stays latched
// until release is called; release may be called after ApplyFunc returns.
// If ApplyFunc returns an error the latch is released for it.
type ApplyFunc func(change diff.TextChange, release func()) error

type Coordinator struct {
	resolver rules.Resolver
}

func New(resolver rules.Resolver) *Coordinator {
	return &Coordinator{resolver: resolver}
}

// Format returns the formatted content. ok is false when no rules apply to
// path or the content is already formatted.
func (c *Coordinator) Format(ctx context.Context, path, content string, applyFinalNewlineAndTrim bool) (formatted string, ok bool) {
	opts, err := c.resolver.Resolve(ctx, path)
	if err != nil {
		if errors.Is(err, rules.ErrNoRules) {
			slog.Debug("No style rules", "path", path)
		} else {
			slog.Debug("Style rules unavailable", "path", path, "err", err)
		}
		return "", false
	}

	effective := rules.Effective(opts, applyFinalNewlineAndTrim)
	formatted = markdown.Format(content, effective)
	if formatted == content {
		return "", false
	}
	return formatted, true
}

// Change formats content and returns the single edit that turns content
// into the formatted text.
func (c *Coordinator) Change(ctx context.Context, req Request) (diff.TextChange, bool) {
	formatted, ok := c.Format(ctx, req.Path, req.Content, req.Boundary)
	if !ok {
		return diff.TextChange{}, false
	}
	return diff.Calculate(req.Content, formatted)
}

// Run performs a pass while holding the session latch. A pass requested
// while another one holds the latch is dropped with OutcomeBusy.
func (c *Coordinator) Run(ctx context.Context, s *Session, req Request, apply ApplyFunc) (outcome Outcome, err error) {
	if !s.tryAcquire() {
		slog.Debug("Formatting already in flight, dropping pass", "session", s.Key)
		return OutcomeBusy, nil
	}

	var once sync.Once
	release := func() { once.Do(s.release) }
	handedOff := false
	defer func() {
		if !handedOff {
			release()
		}
	}()

	change, ok := c.Change(ctx, req)
	if !ok {
		return OutcomeNoop, nil
	}

	if err := apply(change, release); err != nil {
		return OutcomeNoop, err
	}
	handedOff = true
	return OutcomeApplied, nil
}
