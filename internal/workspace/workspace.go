// Package workspace locates the program to run and its optional aleng.yaml
// manifest.
package workspace

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	// ManifestName is the optional manifest file in a workspace root.
	ManifestName = "aleng.yaml"
	// DefaultEntry is run when neither the argument nor the manifest names a file.
	DefaultEntry = "main.aleng"
)

// Manifest is the decoded aleng.yaml.
type Manifest struct {
	Entry     string   `yaml:"entry"`
	Libraries []string `yaml:"libraries"`
}

// Workspace is a resolved program: the directory modules are imported
// from and the entry file inside it.
type Workspace struct {
	Root     string
	Entry    string
	Manifest *Manifest // nil without aleng.yaml
}

// Libraries returns the native libraries the manifest enables. An empty
// result means all of them.
func (w *Workspace) Libraries() []string {
	if w.Manifest == nil {
		return nil
	}
	return w.Manifest.Libraries
}

// Discover resolves arg, which may be a source file, a workspace directory,
// or empty to search the working directory for main.aleng.
func Discover(arg string) (*Workspace, error) {
	if arg == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, err
		}
		entry, err := findEntry(wd)
		if err != nil {
			return nil, err
		}
		return fromFile(entry)
	}

	info, err := os.Stat(arg)
	if err != nil {
		return nil, err
	}
	if info.IsDir() {
		return fromDir(arg)
	}
	return fromFile(arg)
}

func fromDir(dir string) (*Workspace, error) {
	root, err := filepath.Abs(dir)
	if err != nil {
		return nil, err
	}
	m, err := LoadManifest(root)
	if err != nil {
		return nil, err
	}
	entry := DefaultEntry
	if m != nil && m.Entry != "" {
		entry = filepath.FromSlash(m.Entry)
	}
	path := filepath.Join(root, entry)
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("entry file %s: %w", path, err)
	}
	return &Workspace{Root: root, Entry: path, Manifest: m}, nil
}

func fromFile(file string) (*Workspace, error) {
	path, err := filepath.Abs(file)
	if err != nil {
		return nil, err
	}
	root := filepath.Dir(path)
	m, err := LoadManifest(root)
	if err != nil {
		return nil, err
	}
	return &Workspace{Root: root, Entry: path, Manifest: m}, nil
}

// LoadManifest reads aleng.yaml from dir. A missing manifest is not an
// error and yields nil.
func LoadManifest(dir string) (*Manifest, error) {
	path := filepath.Join(dir, ManifestName)
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var m Manifest
	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(&m); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &m, nil
}

var errFound = errors.New("found")

// findEntry prefers dir/main.aleng, then walks dir in lexical order for
// the first main.aleng outside hidden directories.
func findEntry(dir string) (string, error) {
	if path := filepath.Join(dir, DefaultEntry); fileExists(path) {
		return path, nil
	}
	var found string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			if path != dir && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if d.Name() == DefaultEntry {
			found = path
			return errFound
		}
		return nil
	})
	if err != nil && !errors.Is(err, errFound) {
		return "", err
	}
	if found == "" {
		return "", fmt.Errorf("no %s found under %s", DefaultEntry, dir)
	}
	return found, nil
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
