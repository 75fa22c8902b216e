package templates

import (
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
)

// ListTemplateFiles maps template keys to display names for every file
// matching <source>/templates/<dir>/*<ext>. Keys are "<dir>/<name>" without
// the extension. Missing directories are skipped and later sources win on
// duplicate keys.
func ListTemplateFiles(sources []string, dir, ext string) (map[string]string, error) {
	out := map[string]string{}
	if len(sources) == 0 {
		return out, nil
	}
	ext = normalizeExt(ext)
	dir = strings.Trim(filepath.ToSlash(strings.TrimSpace(dir)), "/")

	for _, source := range sources {
		source = strings.TrimSpace(source)
		if source == "" {
			continue
		}
		absPath := filepath.Join(source, "templates", filepath.FromSlash(dir))
		info, err := os.Stat(absPath)
		if err != nil || !info.IsDir() {
			continue
		}
		candidates, err := filepath.Glob(filepath.Join(absPath, "*"+ext))
		if err != nil {
			return nil, err
		}
		for _, file := range candidates {
			name := strings.TrimSuffix(filepath.Base(file), ext)
			if name == "" {
				continue
			}
			out[path.Join(dir, name)] = name
		}
	}
	return out, nil
}

// SortedKeys returns the keys of a template file map in order.
func SortedKeys(files map[string]string) []string {
	keys := make([]string, 0, len(files))
	for key := range files {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// TemplateRoots returns the directories template names resolve against.
func TemplateRoots(sources []string) []string {
	roots := make([]string, 0, len(sources))
	for _, source := range sources {
		if source = strings.TrimSpace(source); source != "" {
			roots = append(roots, filepath.Join(source, "templates"))
		}
	}
	return roots
}

func normalizeExt(ext string) string {
	ext = strings.TrimSpace(ext)
	if ext == "" {
		return ".html"
	}
	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return ext
}
