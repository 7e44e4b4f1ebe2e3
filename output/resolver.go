package output

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/samber/mo"
	"github.com/spf13/afero"
	"github.com/tubedl-cli/tubedl/format"
)

// Destination is where an item ends up: Dir joined with Base plus the extension of the produced file.
type Destination struct {
	Dir  string
	Base string
}

// Path returns the final path for a file with extension ext.
func (d Destination) Path(ext string) string {
	return filepath.Join(d.Dir, d.Base+"."+format.NormalizeExtension(ext))
}

// Resolver renders destinations below a root directory.
type Resolver struct {
	fs   afero.Fs
	root string
}

// NewResolver returns a Resolver writing below root on fs.
func NewResolver(fs afero.Fs, root string) *Resolver {
	return &Resolver{fs: fs, root: root}
}

// Root is the output root directory.
func (r *Resolver) Root() string {
	return r.root
}

// Destination renders template with fields, substituting Missing for absent fields.
// A template that sanitizes to nothing is a template error.
func (r *Resolver) Destination(template string, fields map[string]string) (Destination, error) {
	rel := Sanitize(Render(template, fields, mo.Some(Missing)))
	if rel == "" {
		return Destination{}, templateErr(&TemplateError{Template: template, Reason: "renders to an empty path"})
	}

	return Destination{
		Dir:  filepath.Join(r.root, filepath.Dir(rel)),
		Base: filepath.Base(rel),
	}, nil
}

// FindDuplicate looks for an existing file named like dest with a known media extension or the forced one.
func (r *Resolver) FindDuplicate(dest Destination, forced mo.Option[string]) (mo.Option[string], error) {
	entries, err := afero.ReadDir(r.fs, dest.Dir)
	if err != nil {
		if os.IsNotExist(err) {
			return mo.None[string](), nil
		}
		return mo.None[string](), err
	}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		name := entry.Name()
		ext := filepath.Ext(name)
		if strings.TrimSuffix(name, ext) != dest.Base {
			continue
		}

		ext = format.NormalizeExtension(ext)
		if format.IsKnownExtension(ext) || (ext != "" && ext == forced.OrEmpty()) {
			return mo.Some(filepath.Join(dest.Dir, name)), nil
		}
	}

	return mo.None[string](), nil
}
