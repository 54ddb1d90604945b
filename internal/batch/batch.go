// Package batch formats Markdown files on disk with the same passes the
// language server runs on a boundary event.
package batch

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"sort"

	"golang.org/x/sync/errgroup"
)

// Formatter formats content of the file at path. ok is false when no change
// is needed.
type Formatter interface {
	Format(ctx context.Context, path, content string, applyFinalNewlineAndTrim bool) (formatted string, ok bool)
}

type Options struct {
	// Check reports files that need formatting without touching them.
	Check bool
	// Stdout returns formatted content in the results instead of writing it.
	Stdout bool
	// Jobs bounds the number of files formatted at once. Zero or less uses
	// GOMAXPROCS.
	Jobs        int
	ExcludeDirs []string
	Extensions  []string
}

// Result is the outcome for one file. In Stdout mode Formatted holds the
// file content, formatted or not.
type Result struct {
	Path      string
	Changed   bool
	Formatted []byte
	Err       error
}

// ErrNoFiles is returned when the paths name no Markdown files.
var ErrNoFiles = errors.New("no markdown files found")

// FormatPaths formats the files and directories in paths. Directories are
// walked recursively for files with one of opts.Extensions; files named
// directly are always formatted. Per-file failures are reported in the
// results.
func FormatPaths(ctx context.Context, formatter Formatter, paths []string, opts Options) ([]Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	files, err := collectFiles(ctx, paths, opts)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, ErrNoFiles
	}

	jobs := opts.Jobs
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}

	// Each goroutine writes only its own index.
	results := make([]Result, len(files))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(min(jobs, len(files)))
	for i, path := range files {
		i, path := i, path
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = formatFile(gctx, formatter, path, opts)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return results, err
	}

	return results, nil
}

func formatFile(ctx context.Context, formatter Formatter, path string, opts Options) Result {
	result := Result{Path: path}

	data, err := os.ReadFile(path)
	if err != nil {
		result.Err = err
		return result
	}

	formatted, changed := formatter.Format(ctx, path, string(data), true)
	result.Changed = changed

	switch {
	case opts.Check:
	case opts.Stdout:
		if changed {
			result.Formatted = []byte(formatted)
		} else {
			result.Formatted = data
		}
	case changed:
		mode := os.FileMode(0o644)
		if info, statErr := os.Stat(path); statErr == nil {
			mode = info.Mode()
		}
		if err := os.WriteFile(path, []byte(formatted), mode.Perm()); err != nil {
			result.Err = err
			result.Changed = false
		}
	}
	return result
}

func collectFiles(ctx context.Context, paths []string, opts Options) ([]string, error) {
	var files []string
	seen := make(map[string]struct{})
	addFile := func(path string) {
		if _, ok := seen[path]; ok {
			return
		}
		seen[path] = struct{}{}
		files = append(files, path)
	}

	for _, p := range paths {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		info, err := os.Stat(p)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			addFile(filepath.Clean(p))
			continue
		}

		err = filepath.WalkDir(p, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if err := ctx.Err(); err != nil {
				return err
			}
			if d.IsDir() {
				if path != p && slices.Contains(opts.ExcludeDirs, d.Name()) {
					return fs.SkipDir
				}
				return nil
			}
			if slices.Contains(opts.Extensions, filepath.Ext(path)) {
				addFile(path)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}

	sort.Strings(files)
	return files, nil
}
