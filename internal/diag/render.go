package diag

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"aleng/internal/span"
)

// Renderer prints messages against their source with a caret under the
// offending column.
type Renderer struct {
	Source string
	Color  bool
}

// NewRenderer returns a Renderer for source.
func NewRenderer(source string, useColor bool) *Renderer {
	return &Renderer{Source: source, Color: useColor}
}

func (r *Renderer) paint(attrs ...color.Attribute) *color.Color {
	c := color.New(attrs...)
	if r.Color {
		c.EnableColor()
	} else {
		c.DisableColor()
	}
	return c
}

// Diagnostic writes d as a header line followed by the source excerpt.
func (r *Renderer) Diagnostic(w io.Writer, d Diagnostic) {
	label := d.Severity.String()
	if d.Code != "" {
		label = fmt.Sprintf("%s[%s]", label, d.Code)
	}
	r.render(w, label, d.Severity, d.Span, d.Message)
	if d.Hint != "" {
		fmt.Fprintf(w, "%s %s\n", r.paint(color.FgCyan).Sprint("  = hint:"), d.Hint)
	}
}

// Error writes a runtime error message located at s.
func (r *Renderer) Error(w io.Writer, s span.Span, msg string) {
	r.render(w, "error", Error, s, msg)
}

func (r *Renderer) render(w io.Writer, label string, sev Severity, s span.Span, msg string) {
	head := r.paint(color.FgRed, color.Bold)
	if sev == Warning {
		head = r.paint(color.FgYellow, color.Bold)
	}
	fmt.Fprintf(w, "%s: %s\n", head.Sprint(label), r.paint(color.Bold).Sprint(msg))

	line, col := s.Start.Line, s.Start.Column
	if line < 1 {
		return
	}
	gutter := r.paint(color.FgBlue, color.Bold)
	loc := fmt.Sprintf("%d:%d", line, col)
	if s.File != "" {
		loc = s.File + ":" + loc
	}
	fmt.Fprintf(w, "  %s %s\n", gutter.Sprint("-->"), loc)

	lines := strings.Split(r.Source, "\n")
	if line > len(lines) {
		return
	}
	text := strings.TrimRight(lines[line-1], "\r")
	if col < 1 {
		col = 1
	}
	if col > len(text)+1 {
		col = len(text) + 1
	}
	width := 1
	if s.End.Line == s.Start.Line && s.End.Column > s.Start.Column {
		width = s.End.Column - s.Start.Column
	}
	if col-1+width > len(text) && len(text) >= col {
		width = len(text) - col + 1
	}

	num := fmt.Sprintf("%d", line)
	pad := strings.Repeat(" ", len(num))
	fmt.Fprintf(w, "%s %s\n", pad, gutter.Sprint("|"))
	fmt.Fprintf(w, "%s %s %s\n", gutter.Sprint(num), gutter.Sprint("|"), text)
	fmt.Fprintf(w, "%s %s %s%s\n", pad, gutter.Sprint("|"), caretIndent(text, col-1), head.Sprint(strings.Repeat("^", width)))
}

// caretIndent mirrors tabs so the caret lines up with the source text.
func caretIndent(text string, n int) string {
	var b strings.Builder
	for i := 0; i < n && i < len(text); i++ {
		if text[i] == '\t' {
			b.WriteByte('\t')
		} else {
			b.WriteByte(' ')
		}
	}
	for i := len(text); i < n; i++ {
		b.WriteByte(' ')
	}
	return b.String()
}
