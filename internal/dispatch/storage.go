package dispatch

import (
	"fmt"
	"io"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/rs/xid"
	"github.com/spf13/afero"
)

var unsafeFilenameChars = regexp.MustCompile(`[^A-Za-z0-9_.-]`)

// Upload is an input file persisted for one request.
type Upload struct {
	// Dir is private to the request; input and output live inside it.
	Dir       string
	InputPath string
	// Stem is the sanitized input name without extension.
	Stem string
}

// Workspace persists uploads under a shared root, one xid-named directory per request.
type Workspace struct {
	fs   afero.Fs
	root string
}

// NewWorkspace creates root if needed. Paths handed to tools are absolute.
func NewWorkspace(fs afero.Fs, root string) (*Workspace, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve work dir %s: %w", root, err)
	}
	if err := fs.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("create work dir %s: %w", abs, err)
	}
	return &Workspace{fs: fs, root: abs}, nil
}

// Root returns the absolute working directory.
func (w *Workspace) Root() string {
	return w.root
}

// Persist writes body to a fresh request directory under a sanitized name.
// On failure the request directory is removed again.
func (w *Workspace) Persist(filename string, body io.Reader) (u *Upload, err error) {
	name := SanitizeFilename(filename)
	dir := filepath.Join(w.root, xid.New().String())
	if err := w.fs.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create request dir: %w", err)
	}
	defer func() {
		if err != nil {
			_ = w.fs.RemoveAll(dir)
		}
	}()

	path := filepath.Join(dir, name)
	f, err := w.fs.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", path, err)
	}
	if _, err := io.Copy(f, body); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("write %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return nil, fmt.Errorf("close %s: %w", path, err)
	}

	return &Upload{Dir: dir, InputPath: path, Stem: Stem(name)}, nil
}

// Remove deletes the request directory of u.
func (w *Workspace) Remove(u *Upload) error {
	if u == nil || u.Dir == "" || filepath.Dir(u.Dir) != w.root {
		return nil
	}
	return w.fs.RemoveAll(u.Dir)
}

// SanitizeFilename reduces a client-supplied name to a safe single path element.
func SanitizeFilename(name string) string {
	name = strings.ReplaceAll(name, `\`, "/")
	name = filepath.Base(name)
	name = unsafeFilenameChars.ReplaceAllString(name, "_")
	name = strings.TrimLeft(name, ".")
	if name == "" {
		return "input"
	}
	return name
}

// Stem returns name without its extension.
func Stem(name string) string {
	return strings.TrimSuffix(filepath.Base(name), filepath.Ext(name))
}

// OutputFilename is the deterministic name of the PDF produced by tool for input.
func OutputFilename(tool, inputFilename string) string {
	return outputName(tool, Stem(SanitizeFilename(inputFilename)))
}

func outputName(tool, stem string) string {
	return fmt.Sprintf("output_%s_%s.pdf", tool, stem)
}
