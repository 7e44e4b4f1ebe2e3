// Package scratch hands out per-item temporary directories whose lifetime is bound to a Scope.
package scratch

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/spf13/afero"
)

// Provider creates scopes below a root directory on an injected filesystem.
type Provider struct {
	fs   afero.Fs
	root string
}

// New returns a Provider rooted at root on fs.
func New(fs afero.Fs, root string) *Provider {
	return &Provider{fs: fs, root: root}
}

// Fs is the filesystem scopes live on.
func (p *Provider) Fs() afero.Fs {
	return p.fs
}

var unsafeChars = regexp.MustCompile(`[^A-Za-z0-9_-]+`)

// Scope creates a fresh directory for one item. The caller must Close it.
func (p *Provider) Scope(name string) (*Scope, error) {
	if err := p.fs.MkdirAll(p.root, os.ModePerm); err != nil {
		return nil, fmt.Errorf("create scratch root: %w", err)
	}

	prefix := strings.Trim(unsafeChars.ReplaceAllString(name, "_"), "_")
	if len(prefix) > 32 {
		prefix = prefix[:32]
	}

	dir, err := afero.TempDir(p.fs, p.root, prefix+"-")
	if err != nil {
		return nil, fmt.Errorf("create scratch directory: %w", err)
	}

	return &Scope{fs: p.fs, dir: dir}, nil
}

// Scope is a temporary directory removed with everything in it on Close.
type Scope struct {
	fs  afero.Fs
	dir string
}

// Dir is the directory of the scope.
func (s *Scope) Dir() string {
	return s.dir
}

// Path returns the path of name inside the scope.
func (s *Scope) Path(name string) string {
	return filepath.Join(s.dir, filepath.Base(name))
}

// Close removes the scope directory.
func (s *Scope) Close() error {
	return s.fs.RemoveAll(s.dir)
}
