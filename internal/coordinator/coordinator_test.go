package coordinator

import (
	"context"
	"errors"
	"testing"

	"github.com/matkrin/mdecd/internal/diff"
	"github.com/matkrin/mdecd/internal/rules"
)

func ptr[T any](v T) *T {
	return &v
}

func staticResolver(opts rules.Options, err error) rules.Resolver {
	return rules.ResolverFunc(func(ctx context.Context, path string) (rules.Options, error) {
		return opts, err
	})
}

var trimAndNewline = rules.Options{
	IndentSize:             ptr(2),
	TrimTrailingWhitespace: ptr(true),
	InsertFinalNewline:     ptr(true),
}

func TestFormat(t *testing.T) {
	tests := []struct {
		name     string
		resolver rules.Resolver
		content  string
		boundary bool
		want     string
		wantOk   bool
	}{
		{
			name:     "resolver failure",
			resolver: staticResolver(rules.Options{}, errors.New("permission denied")),
			content:  "text   ",
			boundary: true,
		},
		{
			name:     "no rules",
			resolver: staticResolver(rules.Options{}, rules.ErrNoRules),
			content:  "text   ",
			boundary: true,
		},
		{
			name:     "already formatted",
			resolver: staticResolver(trimAndNewline, nil),
			content:  "text\n",
			boundary: true,
		},
		{
			name:     "boundary trims and appends newline",
			resolver: staticResolver(trimAndNewline, nil),
			content:  "text   ",
			boundary: true,
			want:     "text\n",
			wantOk:   true,
		},
		{
			name:     "live pass keeps trailing characters",
			resolver: staticResolver(trimAndNewline, nil),
			content:  "text   ",
			boundary: false,
		},
		{
			name:     "live pass still fixes indentation",
			resolver: staticResolver(trimAndNewline, nil),
			content:  "- a\n   - b   ",
			boundary: false,
			want:     "- a\n    - b   ",
			wantOk:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := New(tt.resolver)
			got, ok := c.Format(context.Background(), "/notes/a.md", tt.content, tt.boundary)
			if ok != tt.wantOk {
				t.Fatalf("Format() ok = %v, want %v", ok, tt.wantOk)
			}
			if got != tt.want {
				t.Errorf("Format() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestFormatResolvesEveryCall(t *testing.T) {
	calls := 0
	c := New(rules.ResolverFunc(func(ctx context.Context, path string) (rules.Options, error) {
		calls++
		if path != "/notes/a.md" {
			t.Errorf("Resolve() path = %q", path)
		}
		return rules.Options{}, nil
	}))

	c.Format(context.Background(), "/notes/a.md", "x", true)
	c.Format(context.Background(), "/notes/a.md", "x", true)

	if calls != 2 {
		t.Errorf("resolver called %d times, want 2", calls)
	}
}

func TestChange(t *testing.T) {
	c := New(staticResolver(trimAndNewline, nil))

	change, ok := c.Change(context.Background(), Request{Path: "a.md", Content: "a  \nb", Boundary: true})
	if !ok {
		t.Fatal("Change() reported no change")
	}
	want := diff.TextChange{From: 1, To: 5, Insert: "\nb\n"}
	if change != want {
		t.Errorf("Change() = %+v, want %+v", change, want)
	}
}

func TestRun(t *testing.T) {
	c := New(staticResolver(trimAndNewline, nil))
	s := NewSession("file:///notes/a.md")
	req := Request{Path: "a.md", Content: "text   ", Boundary: true}

	var applied []diff.TextChange
	outcome, err := c.Run(context.Background(), s, req, func(change diff.TextChange, release func()) error {
		if !s.Busy() {
			t.Error("session not latched during apply")
		}
		applied = append(applied, change)
		release()
		return nil
	})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if outcome != OutcomeApplied {
		t.Errorf("Run() outcome = %v, want applied", outcome)
	}
	if len(applied) != 1 || applied[0].Apply(req.Content) != "text\n" {
		t.Errorf("applied = %+v", applied)
	}
	if s.Busy() {
		t.Error("session still latched after release")
	}
}

func TestRunNoopReleases(t *testing.T) {
	c := New(staticResolver(rules.Options{}, rules.ErrNoRules))
	s := NewSession("doc")

	outcome, err := c.Run(context.Background(), s, Request{Content: "x   "}, func(diff.TextChange, func()) error {
		t.Error("apply called for a no-op pass")
		return nil
	})
	if err != nil || outcome != OutcomeNoop {
		t.Errorf("Run() = %v, %v, want noop", outcome, err)
	}
	if s.Busy() {
		t.Error("session still latched after no-op")
	}
}

func TestRunDropsWhileLatched(t *testing.T) {
	c := New(staticResolver(trimAndNewline, nil))
	s := NewSession("doc")
	req := Request{Content: "text   ", Boundary: true}

	var release func()
	outcome, err := c.Run(context.Background(), s, req, func(_ diff.TextChange, r func()) error {
		release = r
		return nil
	})
	if err != nil || outcome != OutcomeApplied {
		t.Fatalf("first Run() = %v, %v", outcome, err)
	}
	if !s.Busy() {
		t.Fatal("latch released before the change was acknowledged")
	}

	outcome, err = c.Run(context.Background(), s, req, func(diff.TextChange, func()) error {
		t.Error("apply called while latched")
		return nil
	})
	if err != nil || outcome != OutcomeBusy {
		t.Errorf("second Run() = %v, %v, want busy", outcome, err)
	}

	release()
	release()
	if s.Busy() {
		t.Error("session still latched after release")
	}

	other := NewSession("other")
	outcome, _ = c.Run(context.Background(), other, req, func(_ diff.TextChange, r func()) error {
		r()
		return nil
	})
	if outcome != OutcomeApplied {
		t.Errorf("independent session Run() = %v, want applied", outcome)
	}
}

func TestRunReleasesOnError(t *testing.T) {
	c := New(staticResolver(trimAndNewline, nil))
	s := NewSession("doc")
	wantErr := errors.New("write failed")

	_, err := c.Run(context.Background(), s, Request{Content: "x   ", Boundary: true}, func(diff.TextChange, func()) error {
		return wantErr
	})
	if !errors.Is(err, wantErr) {
		t.Errorf("Run() error = %v, want %v", err, wantErr)
	}
	if s.Busy() {
		t.Error("session still latched after apply error")
	}
}

func TestRunReleasesOnPanic(t *testing.T) {
	c := New(staticResolver(trimAndNewline, nil))
	s := NewSession("doc")

	func() {
		defer func() { _ = recover() }()
		c.Run(context.Background(), s, Request{Content: "x   ", Boundary: true}, func(diff.TextChange, func()) error {
			panic("boom")
		})
	}()

	if s.Busy() {
		t.Error("session still latched after panic")
	}
}
