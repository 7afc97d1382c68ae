// Package finder discovers document source directories below a root.
package finder

import (
	"fmt"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/cgast/ssmdox/pkg/dox"
)

// templatePattern matches every template file at any depth.
const templatePattern = "**/template.{yaml,yml}"

// Finder locates Dox directories under Root.
type Finder struct {
	Root    string
	Exclude []string
	Logger  *slog.Logger
}

// New creates a Finder for root. Exclude patterns use doublestar syntax
// and are matched against slash-separated directory paths relative to root.
func New(root string, exclude []string, logger *slog.Logger) (*Finder, error) {
	for _, p := range exclude {
		if !doublestar.ValidatePattern(p) {
			return nil, fmt.Errorf("invalid exclude pattern %q", p)
		}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Finder{Root: root, Exclude: exclude, Logger: logger}, nil
}

// Dirs returns the root-relative directories that hold a template, sorted.
// Hidden directories and excluded directories are skipped, and the root
// itself is never a document directory.
func (f *Finder) Dirs() ([]string, error) {
	info, err := os.Stat(f.Root)
	if err != nil {
		return nil, fmt.Errorf("source root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("source root %s is not a directory", f.Root)
	}

	matches, err := doublestar.Glob(os.DirFS(f.Root), templatePattern)
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", f.Root, err)
	}

	seen := make(map[string]bool, len(matches))
	var dirs []string
	for _, m := range matches {
		dir := path.Dir(m)
		if dir == "." || seen[dir] || hidden(dir) {
			continue
		}
		seen[dir] = true
		if f.excluded(dir) {
			f.Logger.Debug("skipping excluded directory", "dir", dir)
			continue
		}
		dirs = append(dirs, dir)
	}
	sort.Strings(dirs)
	return dirs, nil
}

// Find returns one Dox per discovered directory.
func (f *Finder) Find() ([]*dox.Dox, error) {
	dirs, err := f.Dirs()
	if err != nil {
		return nil, err
	}

	units := make([]*dox.Dox, 0, len(dirs))
	for _, dir := range dirs {
		d, err := dox.New(filepath.Join(f.Root, filepath.FromSlash(dir)), f.Root, dox.WithLogger(f.Logger))
		if err != nil {
			return nil, err
		}
		units = append(units, d)
	}
	f.Logger.Debug("discovered documents", "root", f.Root, "count", len(units))
	return units, nil
}

func (f *Finder) excluded(dir string) bool {
	for _, p := range f.Exclude {
		if ok, err := doublestar.Match(p, dir); err == nil && ok {
			return true
		}
	}
	return false
}

func hidden(dir string) bool {
	for _, part := range strings.Split(dir, "/") {
		if strings.HasPrefix(part, ".") {
			return true
		}
	}
	return false
}
