package export

import (
	"errors"
	"fmt"
	"html"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/cj3636/difflight/internal/config"
	"github.com/cj3636/difflight/internal/highlight"
	"github.com/cj3636/difflight/internal/render"
	"github.com/muesli/termenv"
)

// Format represents the desired export format.
type Format string

const (
	// FormatHTML emits an HTML document for the diff.
	FormatHTML Format = "html"
	// FormatMarkdown emits a Markdown diff code block.
	FormatMarkdown Format = "markdown"
	// FormatANSI emits an ANSI-colored string.
	FormatANSI Format = "ansi"
)

// ErrUnsupportedFormat is returned for unknown export format names.
var ErrUnsupportedFormat = errors.New("unsupported export format")

// ParseFormat resolves a format name and its aliases.
func ParseFormat(name string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case string(FormatHTML), "htm":
		return FormatHTML, nil
	case string(FormatMarkdown), "md":
		return FormatMarkdown, nil
	case string(FormatANSI), "text", "term":
		return FormatANSI, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, name)
	}
}

// Options control how a diff is exported.
type Options struct {
	// Title will be shown in HTML/Markdown outputs when provided.
	Title string
	// ShowLineNumbers determines whether line numbers are included.
	ShowLineNumbers bool
	// Config supplies theme, tab size and inline settings. Defaults apply
	// when nil.
	Config *config.Config
}

// Render returns the unified diff text in the requested format.
func Render(text string, format Format, opts Options) (string, error) {
	f, err := ParseFormat(string(format))
	if err != nil {
		return "", err
	}
	cfg := opts.Config
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	spans, err := cfg.Inline.NewSpanComputer()
	if err != nil {
		return "", fmt.Errorf("inline settings: %w", err)
	}

	switch f {
	case FormatHTML:
		return renderHTML(text, spans, opts), nil
	case FormatMarkdown:
		return renderMarkdown(text, opts), nil
	default:
		return renderANSI(text, spans, cfg, opts), nil
	}
}

// htmlClasses maps diff rules to CSS classes.
var htmlClasses = highlight.Palette[string]{
	Header:      "hdr",
	FileMarker:  "file",
	HunkHeader:  "hunk",
	HunkContext: "hunkctx",
	MetaKey:     "key",
	MetaValue:   "val",
	Added:       "added",
	Removed:     "removed",
	Whitespace:  "ws",
}

const htmlStyle = "body{background:#0f111a;color:#e5e7eb;font-family:Menlo,Consolas,monospace;}" +
	"pre{white-space:pre-wrap;word-wrap:break-word;}" +
	".hdr,.file{color:#e5c07b;font-weight:bold;}" +
	".hunk{color:#56b6c2;}" +
	".hunkctx{color:#9ca3af;font-style:italic;}" +
	".key{color:#c678dd;}" +
	".val{color:#e5e7eb;}" +
	".added{background:#12281a;color:#8dd39e;}" +
	".removed{background:#2b1313;color:#f19999;}" +
	".ws{background:#7a3b3b;}" +
	".inl-added{background:#2f6b3b;}" +
	".inl-removed{background:#7a3b3b;}" +
	".inl-replaced{text-decoration:underline;}" +
	".unchanged{color:#cbd5e1;}" +
	".lineno{color:#9ca3af;margin-right:12px;}" +
	"h1{font-size:18px;margin-bottom:12px;}"

func renderHTML(text string, spans *highlight.SpanComputer, opts Options) string {
	ann := highlight.NewDiffAnnotator(htmlClasses, spans).Annotate(text)

	var b strings.Builder
	b.WriteString("<!DOCTYPE html>\n<html><head><meta charset=\"utf-8\">")
	b.WriteString("<style>" + htmlStyle + "</style></head><body>")

	title := opts.Title
	if title == "" {
		title = "Diff"
	}
	fmt.Fprintf(&b, "<h1>%s</h1>\n<pre>", html.EscapeString(title))

	var nums []highlight.LineNo
	if opts.ShowLineNumbers {
		nums = highlight.LineNumbers(ann.Lines)
	}
	for i, line := range ann.Lines {
		b.WriteString("<div class=\"" + roleClass(line.Role) + "\">")
		if opts.ShowLineNumbers {
			b.WriteString(renderLineNoHTML(nums[i].Old))
			b.WriteString(renderLineNoHTML(nums[i].New))
		}
		writeSegmentsHTML(&b, line)
		b.WriteString("</div>\n")
	}

	b.WriteString("</pre></body></html>")
	return b.String()
}

func writeSegmentsHTML(b *strings.Builder, line highlight.AnnotatedLine[string]) {
	for _, seg := range line.Segments() {
		classes := append([]string(nil), seg.Styles...)
		if seg.Inline {
			if line.Role == highlight.RoleRemoved {
				classes = append(classes, "inl-removed")
			} else {
				classes = append(classes, "inl-added")
			}
			if seg.Kind == highlight.Replaced {
				classes = append(classes, "inl-replaced")
			}
		}
		content := html.EscapeString(seg.Text)
		if len(classes) == 0 {
			b.WriteString(content)
			continue
		}
		fmt.Fprintf(b, "<span class=\"%s\">%s</span>", strings.Join(classes, " "), content)
	}
}

func roleClass(r highlight.Role) string {
	switch r {
	case highlight.RoleAdded:
		return "line-added"
	case highlight.RoleRemoved:
		return "line-removed"
	case highlight.RoleHunk:
		return "line-hunk"
	case highlight.RoleContext:
		return "unchanged"
	default:
		return "line-other"
	}
}

func renderLineNoHTML(no int) string {
	if no <= 0 {
		return "<span class=\"lineno\">&nbsp;&nbsp;&nbsp;&nbsp;&nbsp;</span>"
	}
	return fmt.Sprintf("<span class=\"lineno\">%5d</span>", no)
}

func renderMarkdown(text string, opts Options) string {
	var b strings.Builder

	if opts.Title != "" {
		b.WriteString("# ")
		b.WriteString(opts.Title)
		b.WriteString("\n\n")
	}

	lines := highlight.SplitLines(text)
	b.WriteString(fence(lines) + "diff\n")
	for _, line := range lines {
		b.WriteString(line)
		b.WriteByte('\n')
	}
	b.WriteString(fence(lines) + "\n")
	return b.String()
}

// fence returns a backtick fence longer than any backtick run in lines.
func fence(lines []string) string {
	longest := 0
	for _, l := range lines {
		run := 0
		for _, r := range l {
			if r != '`' {
				run = 0
				continue
			}
			run++
			longest = max(longest, run)
		}
	}
	return strings.Repeat("`", max(3, longest+1))
}

func renderANSI(text string, spans *highlight.SpanComputer, cfg *config.Config, opts Options) string {
	lr := lipgloss.NewRenderer(io.Discard)
	lr.SetColorProfile(termenv.TrueColor)

	styles := render.NewStylesFor(lr, cfg.Theme)
	ann := styles.Annotator(spans).Annotate(text)

	r := render.New(cfg)
	r.Styles = styles
	r.LineNumbers = opts.ShowLineNumbers

	var b strings.Builder
	if opts.Title != "" {
		fmt.Fprintf(&b, "%s\n\n", opts.Title)
	}
	for _, line := range r.Document(ann) {
		b.WriteString(line)
		b.WriteByte('\n')
	}
	return b.String()
}
