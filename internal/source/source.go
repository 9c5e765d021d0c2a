// Package source acquires unified diff text from git, patch files and readers.
package source

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// ErrNotRepository is returned when a git diff is requested outside a work tree.
var ErrNotRepository = errors.New("git repository not detected")

// Document is a named unified diff.
type Document struct {
	Title string
	Text  string
}

// Loader produces a Document. Loaders are re-run when the viewer reloads.
type Loader interface {
	Load(ctx context.Context) (Document, error)
}

// Git loads the output of git diff for a work tree.
type Git struct {
	Dir    string   // Any directory inside the work tree
	Ref1   string   // Left side; HEAD when empty and Ref2 is set
	Ref2   string   // Right side; the work tree when empty
	Staged bool     // Compare the index instead of the work tree
	Paths  []string // Optional pathspecs
}

// Args returns the git diff arguments for g, excluding the -C prefix.
func (g Git) Args() []string {
	args := []string{"diff", "--no-color", "--no-ext-diff"}
	if g.Staged {
		args = append(args, "--cached")
	}
	left := g.Ref1
	if left == "" && g.Ref2 != "" {
		left = "HEAD"
	}
	if left != "" {
		args = append(args, left)
	}
	if g.Ref2 != "" {
		args = append(args, g.Ref2)
	}
	args = append(args, "--")
	return append(args, g.Paths...)
}

// Title describes what g compares.
func (g Git) Title() string {
	left, right := g.Ref1, g.Ref2
	if left == "" && right != "" {
		left = "HEAD"
	}
	switch {
	case g.Staged && left == "":
		left, right = "HEAD", "index"
	case g.Staged:
		right = "index"
	case left == "":
		left, right = "index", "worktree"
	case right == "":
		right = "worktree"
	}
	title := left + " ↔ " + right
	if len(g.Paths) > 0 {
		title += " (" + strings.Join(g.Paths, " ") + ")"
	}
	return title
}

// Load runs git diff and returns its output.
func (g Git) Load(ctx context.Context) (Document, error) {
	root, err := FindRepoRoot(ctx, g.Dir)
	if err != nil {
		return Document{}, err
	}
	out, err := gitOutput(ctx, root, g.Args()...)
	if err != nil {
		return Document{}, err
	}
	return Document{Title: g.Title(), Text: out}, nil
}

// FindRepoRoot returns the top level of the work tree containing path.
// path may name a file or a directory.
func FindRepoRoot(ctx context.Context, path string) (string, error) {
	if path == "" {
		path = "."
	}
	dir := path
	if info, err := os.Stat(path); err == nil && !info.IsDir() {
		dir = filepath.Dir(path)
	}
	out, err := gitOutput(ctx, dir, "rev-parse", "--show-toplevel")
	if err != nil {
		return "", fmt.Errorf("%w: %s: %v", ErrNotRepository, path, err)
	}
	return strings.TrimSpace(out), nil
}

func gitOutput(ctx context.Context, dir string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, "git", append([]string{"-C", dir}, args...)...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return "", fmt.Errorf("git %s: %w: %s", args[0], err, msg)
		}
		return "", fmt.Errorf("git %s: %w", args[0], err)
	}
	return string(out), nil
}

// File loads a patch file from disk.
type File struct {
	Path string
}

// Load reads the file.
func (f File) Load(context.Context) (Document, error) {
	data, err := os.ReadFile(f.Path)
	if err != nil {
		return Document{}, fmt.Errorf("read patch: %w", err)
	}
	return Document{Title: filepath.Base(f.Path), Text: string(data)}, nil
}

// Static is a Document that never changes, such as one read from stdin.
type Static Document

// Load returns the document.
func (s Static) Load(context.Context) (Document, error) {
	return Document(s), nil
}

// Reader drains r into a Static document titled name.
func Reader(name string, r io.Reader) (Static, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return Static{}, fmt.Errorf("read %s: %w", name, err)
	}
	return Static{Title: name, Text: string(data)}, nil
}
