package main

import (
	"os"
	"path/filepath"
	"testing"

	"aleng/internal/token"
)

func writeEntry(t *testing.T, source string) string {
	t.Helper()
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "main.aleng"), []byte(source), 0o644); err != nil {
		t.Fatal(err)
	}
	return dir
}

func TestRunExitCodes(t *testing.T) {
	tests := []struct {
		name   string
		source string
		want   int
	}{
		{"ok", `x = 1`, 0},
		{"exit", `Exit(3)`, 3},
		{"parse error", `x = (1 +`, 1},
		{"runtime error", `Error("boom")`, 1},
		{"warning only", `m = {"a": 1, "a": 2}`, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := writeEntry(t, tt.source)
			if got := run([]string{"run", "-n", dir}); got != tt.want {
				t.Errorf("exit code = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestRunManifestUnknownLibrary(t *testing.T) {
	dir := writeEntry(t, `x = 1`)
	if err := os.WriteFile(filepath.Join(dir, "aleng.yaml"), []byte("libraries: [std/nope]\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if got := run([]string{"run", "-n", dir}); got != 1 {
		t.Errorf("exit code = %d, want 1", got)
	}
}

func TestTokenCategory(t *testing.T) {
	for kind, want := range map[token.Kind]string{
		token.KW_WHILE: "keyword",
		token.STRING:   "literal",
		token.PLUS:     "punctuation",
		token.EOF:      "eof",
	} {
		if got := tokenCategory(kind); got != want {
			t.Errorf("tokenCategory(%s) = %s, want %s", kind, got, want)
		}
	}
}

func TestTokensMissingFile(t *testing.T) {
	if got := run([]string{"tokens"}); got != 1 {
		t.Errorf("exit code = %d, want 1", got)
	}
}
