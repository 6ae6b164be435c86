package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"

	"aleng/internal/diag"
	"aleng/internal/runtime"
	"aleng/internal/token"
)

// ---- output helpers ----

func printJSON(v interface{}) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		fmt.Fprintf(os.Stderr, "error: JSON encoding failed: %v\n", err)
		os.Exit(1)
	}
}

func printDiags(source string, diags []diag.Diagnostic) {
	writeDiags(os.Stderr, source, diags)
}

func writeDiags(w io.Writer, source string, diags []diag.Diagnostic) {
	r := diag.NewRenderer(source, !color.NoColor)
	for _, d := range diags {
		r.Diagnostic(w, d)
	}
}

// printError renders an evaluation error. An error raised inside an
// imported module points into that module's file, so its source is
// reloaded for the excerpt.
func printError(w io.Writer, source string, err error) {
	var re *runtime.RuntimeError
	if !errors.As(err, &re) {
		fmt.Fprintf(w, "%s %v\n", color.New(color.FgRed, color.Bold).Sprint("error:"), err)
		return
	}
	if re.Span.File != "" {
		if data, readErr := os.ReadFile(re.Span.File); readErr == nil {
			source = string(data)
		}
	}
	diag.NewRenderer(source, !color.NoColor).Error(w, re.Span, re.Message)
}

func diagsToSlice(diags []diag.Diagnostic) []map[string]interface{} {
	result := make([]map[string]interface{}, len(diags))
	for i, d := range diags {
		result[i] = map[string]interface{}{
			"code":     d.Code,
			"severity": d.Severity.String(),
			"message":  d.Message,
			"line":     d.Span.Start.Line,
			"column":   d.Span.Start.Column,
			"offset":   d.Span.Start.Offset,
		}
		if d.Hint != "" {
			result[i]["hint"] = d.Hint
		}
	}
	return result
}

// ---- token output helpers ----

func printTokensText(tokens []token.Token) {
	for _, tok := range tokens {
		fmt.Printf("%-12s %-20s %d:%d\n", tok.Kind, tok.Lexeme, tok.Span.Start.Line, tok.Span.Start.Column)
	}
}

func printTokensJSON(tokens []token.Token, diags []diag.Diagnostic) {
	type tokenJSON struct {
		Kind     string `json:"kind"`
		Category string `json:"category"`
		Lexeme   string `json:"lexeme"`
		Line     int    `json:"line"`
		Column   int    `json:"column"`
		Offset   int    `json:"offset"`
	}

	toks := make([]tokenJSON, 0, len(tokens))
	for _, tok := range tokens {
		toks = append(toks, tokenJSON{
			Kind:     tok.Kind.String(),
			Category: tokenCategory(tok.Kind),
			Lexeme:   tok.Lexeme,
			Line:     tok.Span.Start.Line,
			Column:   tok.Span.Start.Column,
			Offset:   tok.Span.Start.Offset,
		})
	}

	output := map[string]interface{}{
		"tokens":      toks,
		"diagnostics": diagsToSlice(diags),
	}
	printJSON(output)
}

// tokenCategory groups kinds the way editor grammars colour them.
func tokenCategory(k token.Kind) string {
	switch {
	case k.IsKeyword():
		return "keyword"
	case k.IsLiteral():
		return "literal"
	case k == token.EOF:
		return "eof"
	}
	return "punctuation"
}
