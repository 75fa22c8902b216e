package testsupport

import (
	"os"
	"path/filepath"
)

// WriteFiles writes files (relative path -> contents) beneath root, creating
// intermediate directories.
func WriteFiles(root string, files map[string]string) error {
	for name, contents := range files {
		path := filepath.Join(root, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return err
		}
		if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
			return err
		}
	}
	return nil
}
