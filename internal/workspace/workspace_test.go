package workspace

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestDiscoverDirectoryDefaultEntry(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "main.aleng"), `Print(1)`)

	ws, err := Discover(dir)
	if err != nil {
		t.Fatal(err)
	}
	if ws.Entry != filepath.Join(ws.Root, "main.aleng") {
		t.Errorf("unexpected entry %s", ws.Entry)
	}
	if ws.Manifest != nil || ws.Libraries() != nil {
		t.Errorf("expected no manifest, got %+v", ws.Manifest)
	}
}

func TestDiscoverManifest(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "src", "app.aleng"), `Print(1)`)
	writeFile(t, filepath.Join(dir, ManifestName), "entry: src/app.aleng\nlibraries:\n  - std/math\n")

	ws, err := Discover(dir)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasSuffix(ws.Entry, filepath.Join("src", "app.aleng")) {
		t.Errorf("unexpected entry %s", ws.Entry)
	}
	if libs := ws.Libraries(); len(libs) != 1 || libs[0] != "std/math" {
		t.Errorf("unexpected libraries %v", libs)
	}
}

func TestDiscoverMissingEntry(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, ManifestName), "entry: nope.aleng\n")
	if _, err := Discover(dir); err == nil {
		t.Fatal("expected an error for a missing entry file")
	}
}

func TestDiscoverFile(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "script.aleng")
	writeFile(t, file, `Print(1)`)

	ws, err := Discover(file)
	if err != nil {
		t.Fatal(err)
	}
	if ws.Entry != file || ws.Root != dir {
		t.Errorf("unexpected workspace %+v", ws)
	}
}

func TestManifestRejectsUnknownFields(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, ManifestName), "entrypoint: main.aleng\n")
	if _, err := LoadManifest(dir); err == nil {
		t.Fatal("expected an error for an unknown field")
	}
}

func TestEmptyManifest(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, ManifestName), "")
	m, err := LoadManifest(dir)
	if err != nil {
		t.Fatal(err)
	}
	if m == nil || m.Entry != "" {
		t.Errorf("unexpected manifest %+v", m)
	}
}

func TestFindEntryPrefersRoot(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a", "main.aleng"), "")
	writeFile(t, filepath.Join(dir, "main.aleng"), "")
	got, err := findEntry(dir)
	if err != nil {
		t.Fatal(err)
	}
	if got != filepath.Join(dir, "main.aleng") {
		t.Errorf("unexpected entry %s", got)
	}
}

func TestFindEntrySkipsHidden(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, ".cache", "main.aleng"), "")
	writeFile(t, filepath.Join(dir, "b", "main.aleng"), "")
	got, err := findEntry(dir)
	if err != nil {
		t.Fatal(err)
	}
	if got != filepath.Join(dir, "b", "main.aleng") {
		t.Errorf("unexpected entry %s", got)
	}

	if _, err := findEntry(t.TempDir()); err == nil {
		t.Error("expected an error when nothing is found")
	}
}
