package diag

import (
	"bytes"
	"strings"
	"testing"

	"aleng/internal/span"
)

func spanAt(line, col, width int) span.Span {
	return span.Span{
		Start: span.Position{Line: line, Column: col},
		End:   span.Position{Line: line, Column: col + width},
		File:  "main.aleng",
	}
}

func TestRenderDiagnosticCaret(t *testing.T) {
	src := "x = 1\ny = x +\nPrint(y)"
	r := NewRenderer(src, false)

	var buf bytes.Buffer
	r.Diagnostic(&buf, Errorf("E2002", spanAt(2, 5, 1), "expected expression"))

	want := strings.Join([]string{
		"error[E2002]: expected expression",
		"  --> main.aleng:2:5",
		"  |",
		"2 | y = x +",
		"  |     ^",
		"",
	}, "\n")
	if got := buf.String(); got != want {
		t.Errorf("unexpected rendering:\n%s\nwant:\n%s", got, want)
	}
}

func TestRenderErrorUnderlinesSpan(t *testing.T) {
	src := "\tresult = Missing(1)"
	r := NewRenderer(src, false)

	var buf bytes.Buffer
	r.Error(&buf, spanAt(1, 11, 7), "unbound identifier 'Missing'")

	lines := strings.Split(buf.String(), "\n")
	if len(lines) < 5 {
		t.Fatalf("expected at least 5 lines, got %q", buf.String())
	}
	if lines[4] != "  | \t         ^^^^^^^" {
		t.Errorf("caret line mismatch: %q", lines[4])
	}
}

func TestRenderHint(t *testing.T) {
	r := NewRenderer("a", false)
	var buf bytes.Buffer
	r.Diagnostic(&buf, Errorf("E1003", spanAt(1, 1, 1), "bad").WithHint("try again"))
	if !strings.Contains(buf.String(), "= hint: try again") {
		t.Errorf("hint missing from %q", buf.String())
	}
}

func TestRenderClampsOutOfRange(t *testing.T) {
	r := NewRenderer("only line", false)
	var buf bytes.Buffer
	r.Error(&buf, spanAt(7, 1, 1), "somewhere else")
	if strings.Contains(buf.String(), "|") {
		t.Errorf("expected no excerpt for a line outside the source, got %q", buf.String())
	}
}

func TestDiagnosticString(t *testing.T) {
	d := Errorf("E2004", spanAt(3, 2, 1), "invalid assignment target")
	if got := d.String(); got != "[E2004] error at 3:2: invalid assignment target" {
		t.Errorf("unexpected String(): %q", got)
	}
	if !HasErrors([]Diagnostic{Warningf("W1", spanAt(1, 1, 1), "w"), d}) {
		t.Error("HasErrors should see the error")
	}
}
