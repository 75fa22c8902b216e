package templates

import (
	"bytes"
	"io"
	"os"
	"path/filepath"

	"github.com/flosch/pongo2/v6"
)

// sourcesLoader resolves template names against several roots. The first
// root holding the file wins.
type sourcesLoader struct {
	roots []string
}

var _ pongo2.TemplateLoader = (*sourcesLoader)(nil)

func newSourcesLoader(roots []string) *sourcesLoader {
	loader := &sourcesLoader{}
	for _, root := range roots {
		abs, err := filepath.Abs(root)
		if err != nil {
			continue
		}
		if info, err := os.Stat(abs); err != nil || !info.IsDir() {
			continue
		}
		loader.roots = append(loader.roots, abs)
	}
	return loader
}

func (l *sourcesLoader) Abs(base, name string) string {
	if filepath.IsAbs(name) {
		return name
	}
	for _, root := range l.roots {
		candidate := filepath.Join(root, filepath.FromSlash(name))
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate
		}
	}
	if base != "" {
		return filepath.Join(filepath.Dir(base), filepath.FromSlash(name))
	}
	if len(l.roots) > 0 {
		return filepath.Join(l.roots[0], filepath.FromSlash(name))
	}
	return name
}

func (l *sourcesLoader) Get(path string) (io.Reader, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return bytes.NewReader(data), nil
}
