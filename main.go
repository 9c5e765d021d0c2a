package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/cj3636/difflight/internal/config"
	"github.com/cj3636/difflight/internal/export"
	"github.com/cj3636/difflight/internal/source"
	"github.com/cj3636/difflight/internal/tui"
	"github.com/cj3636/difflight/internal/watch"
	"github.com/muesli/termenv"
	flag "github.com/spf13/pflag"
)

const version = "0.2.0"

var (
	showVersion  bool
	help         bool
	configPath   string
	themeName    string
	highContrast bool
	noLineNumber bool
	noInline     bool
	aligner      string
	tabSize      int
	ref1         string
	ref2         string
	staged       bool
	patchFiles   []string
	watchChanges bool
	colorMode    string
	exportFormat string
	exportFile   string
	exportCopy   bool
	verbose      bool
	logFile      string
)

func init() {
	registerFlags(flag.CommandLine)
	flag.Usage = usage
}

func registerFlags(fs *flag.FlagSet) {
	fs.BoolVarP(&showVersion, "version", "v", false, "Show version information")
	fs.BoolVarP(&help, "help", "h", false, "Show help information")
	fs.StringVar(&configPath, "config", defaultConfigPath(), "Path to a YAML config file")
	fs.StringVar(&themeName, "theme", "", "Theme preset: default, solarized or dracula")
	fs.BoolVar(&highContrast, "high-contrast", false, "Brighten theme colors")
	fs.BoolVarP(&noLineNumber, "no-line-numbers", "n", false, "Hide line numbers")
	fs.BoolVar(&noInline, "no-inline", false, "Disable inline change highlighting")
	fs.StringVar(&aligner, "aligner", "", "Inline aligner: sequence or myers")
	fs.IntVarP(&tabSize, "tab-size", "t", 4, "Set tab size")
	fs.StringVar(&ref1, "ref1", "", "Git reference for the left side (defaults to HEAD if ref2 is set)")
	fs.StringVar(&ref2, "ref2", "", "Git reference for the right side (defaults to working tree)")
	fs.BoolVar(&staged, "staged", false, "Show staged changes")
	fs.StringArrayVarP(&patchFiles, "patch", "p", nil, "Read a unified diff from a file, or - for stdin (repeatable)")
	fs.BoolVarP(&watchChanges, "watch", "w", false, "Reload when files change")
	fs.StringVar(&colorMode, "color", "auto", "Color output: auto, always or never")
	fs.StringVar(&exportFormat, "export-format", "", "Export diff as html, markdown, or ansi without launching the TUI")
	fs.StringVar(&exportFile, "export-file", "", "Write exported diff to the provided file path")
	fs.BoolVar(&exportCopy, "export-copy", false, "Copy the exported diff to your clipboard")
	fs.BoolVar(&verbose, "verbose", false, "Log debug details")
	fs.StringVar(&logFile, "log-file", "", "Write logs to this file instead of stderr")
}

func usage() {
	fmt.Println("difflight - highlight unified diffs in the terminal")
	fmt.Println("")
	fmt.Println("Usage:")
	fmt.Println("  difflight [options] [-- <pathspec>...]")
	fmt.Println("  difflight --ref1 <refA> --ref2 <refB> [<pathspec>...]")
	fmt.Println("  difflight --patch change.diff")
	fmt.Println("  git diff | difflight")
	fmt.Println("")
	fmt.Println("Options:")
	flag.PrintDefaults()
	fmt.Println("")
	fmt.Println("Examples:")
	fmt.Println("  difflight                              # Working tree changes")
	fmt.Println("  difflight --staged -w                  # Staged changes, reloaded on edit")
	fmt.Println("  difflight --ref2 main internal/        # HEAD against main for a directory")
	fmt.Println("  difflight -p a.diff -p b.diff          # One tab per patch")
	fmt.Println("  difflight --export-format html --export-file diff.html")
	fmt.Println("")
	fmt.Println("Press ? inside the viewer for keyboard shortcuts.")
}

func defaultConfigPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "difflight", "config.yaml")
}

// buildConfig loads the config file and applies explicitly set flags on top.
func buildConfig(fs *flag.FlagSet) (*config.Config, error) {
	cfg, err := config.LoadOrDefault(configPath)
	if err != nil {
		return nil, err
	}
	if fs.Changed("high-contrast") {
		cfg.HighContrast = highContrast
		cfg.SetPreset(cfg.ThemePreset)
	}
	if fs.Changed("theme") {
		preset, err := config.ParsePreset(themeName)
		if err != nil {
			return nil, err
		}
		cfg.SetPreset(preset)
	}
	if fs.Changed("no-line-numbers") {
		cfg.ShowLineNo = !noLineNumber
	}
	if fs.Changed("no-inline") {
		cfg.Inline.Enabled = !noInline
	}
	if fs.Changed("aligner") {
		cfg.Inline.Aligner = aligner
	}
	if fs.Changed("tab-size") {
		cfg.TabSize = tabSize
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// buildLoaders decides where diff text comes from: patch files, piped stdin,
// or git diff for the current work tree.
func buildLoaders(args []string, stdin io.Reader, piped bool) ([]source.Loader, error) {
	var (
		loaders   []source.Loader
		readStdin bool
	)
	for _, p := range patchFiles {
		if p == "-" {
			if readStdin {
				return nil, errors.New("--patch - given more than once")
			}
			readStdin = true
			doc, err := source.Reader("stdin", stdin)
			if err != nil {
				return nil, err
			}
			loaders = append(loaders, doc)
			continue
		}
		loaders = append(loaders, source.File{Path: p})
	}
	if len(loaders) > 0 {
		return loaders, nil
	}

	gitMode := ref1 != "" || ref2 != "" || staged || len(args) > 0
	if piped && !gitMode {
		doc, err := source.Reader("stdin", stdin)
		if err != nil {
			return nil, err
		}
		return []source.Loader{doc}, nil
	}
	g := source.Git{Dir: ".", Ref1: ref1, Ref2: ref2, Staged: staged}
	if len(args) > 0 {
		g.Paths = args
	}
	return []source.Loader{g}, nil
}

// watchTarget returns the path to watch for the given loaders.
func watchTarget(ctx context.Context, loaders []source.Loader) (string, error) {
	for _, l := range loaders {
		switch l := l.(type) {
		case source.Git:
			return source.FindRepoRoot(ctx, l.Dir)
		case source.File:
			return l.Path, nil
		}
	}
	return "", errors.New("nothing to watch: input is not a git work tree or patch file")
}

func setupLogging() (func(), error) {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	var w io.Writer = os.Stderr
	closeFn := func() {}
	if logFile != "" {
		f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, fmt.Errorf("open log file: %w", err)
		}
		w = f
		closeFn = func() { f.Close() }
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})))
	return closeFn, nil
}

func applyColorMode(mode string) error {
	switch strings.ToLower(mode) {
	case "", "auto":
	case "always":
		if lipgloss.ColorProfile() == termenv.Ascii {
			lipgloss.SetColorProfile(termenv.TrueColor)
		}
	case "never":
		lipgloss.SetColorProfile(termenv.Ascii)
	default:
		return fmt.Errorf("unknown color mode %q", mode)
	}
	return nil
}

func stdinIsPiped() bool {
	info, err := os.Stdin.Stat()
	if err != nil {
		return false
	}
	return info.Mode()&os.ModeCharDevice == 0
}

func runExport(ctx context.Context, cfg *config.Config, loaders []source.Loader) error {
	format := export.FormatMarkdown
	if exportFormat != "" {
		f, err := export.ParseFormat(exportFormat)
		if err != nil {
			return err
		}
		format = f
	}

	var parts []string
	for _, l := range loaders {
		doc, err := l.Load(ctx)
		if err != nil {
			return err
		}
		logInlineStats(cfg, doc)
		rendered, err := export.Render(doc.Text, format, export.Options{
			Title:           doc.Title,
			ShowLineNumbers: cfg.ShowLineNo,
			Config:          cfg,
		})
		if err != nil {
			return err
		}
		parts = append(parts, rendered)
	}
	rendered := strings.Join(parts, "\n")

	if exportFile != "" {
		if err := os.WriteFile(exportFile, []byte(rendered), 0o644); err != nil {
			return fmt.Errorf("write export: %w", err)
		}
		fmt.Fprintf(os.Stdout, "Diff saved to %s\n", exportFile)
	}

	if exportCopy {
		if err := export.CopyToClipboard(rendered, os.Stdout); err != nil {
			return fmt.Errorf("copy diff to clipboard: %w", err)
		}
		fmt.Println("Diff copied to clipboard.")
	}

	if exportFile == "" && !exportCopy {
		fmt.Print(rendered)
	}
	return nil
}

// logInlineStats reports at debug level when guardrails limited inline spans.
func logInlineStats(cfg *config.Config, doc source.Document) {
	if !slog.Default().Enabled(context.Background(), slog.LevelDebug) {
		return
	}
	spans, err := cfg.Inline.NewSpanComputer()
	if err != nil || spans == nil {
		return
	}
	_, stats := spans.Analyze(doc.Text)
	slog.Debug("inline spans",
		"document", doc.Title,
		"blocks", stats.Blocks,
		"skipped_blocks", stats.SkippedBlocks,
		"pairs", stats.Pairs,
		"skipped_pairs", stats.SkippedPairs,
		"truncated", stats.Truncated,
	)
}

func runViewer(ctx context.Context, cfg *config.Config, loaders []source.Loader, piped bool) error {
	var opts []tui.Option
	if watchChanges {
		target, err := watchTarget(ctx, loaders)
		if err != nil {
			return err
		}
		w, err := watch.New(target)
		if err != nil {
			return err
		}
		defer w.Close()
		w.Start(ctx)
		go func() {
			for err := range w.Errors {
				slog.Warn("watcher error", "error", err)
			}
		}()
		slog.Debug("watching for changes", "path", target)
		opts = append(opts, tui.WithChanges(w.Changes))
	}

	model, err := tui.NewModel(cfg, loaders, opts...)
	if err != nil {
		return err
	}
	progOpts := []tea.ProgramOption{tea.WithAltScreen(), tea.WithMouseCellMotion(), tea.WithContext(ctx)}
	if piped {
		// Stdin held the diff; keys come from the controlling terminal.
		progOpts = append(progOpts, tea.WithInputTTY())
	}
	p := tea.NewProgram(model, progOpts...)
	if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("running TUI: %w", err)
	}
	return nil
}

func main() {
	flag.Parse()

	if help {
		usage()
		return
	}

	if showVersion {
		fmt.Printf("difflight version %s\n", version)
		return
	}

	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run does the work of main and returns once every deferred cleanup has run.
func run() error {
	closeLog, err := setupLogging()
	if err != nil {
		return err
	}
	defer closeLog()

	if err := applyColorMode(colorMode); err != nil {
		return err
	}

	cfg, err := buildConfig(flag.CommandLine)
	if err != nil {
		return err
	}
	slog.Debug("configuration loaded", "path", configPath, "theme", cfg.ThemePreset, "inline", cfg.Inline.Enabled)

	piped := stdinIsPiped()
	loaders, err := buildLoaders(flag.Args(), os.Stdin, piped)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if exportFormat != "" || exportFile != "" || exportCopy {
		if err := runExport(ctx, cfg, loaders); err != nil {
			return fmt.Errorf("exporting diff: %w", err)
		}
		return nil
	}

	return runViewer(ctx, cfg, loaders, piped)
}
