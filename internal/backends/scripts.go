package backends

import (
	"fmt"
	"os"
	"path/filepath"
)

// Resolve returns path relative to the decoded document's directory
func (e DecodeEnv) Resolve(path string) string {
	if path == "" || filepath.IsAbs(path) || e.BaseDir == "" {
		return path
	}
	return filepath.Join(e.BaseDir, path)
}

// ReadScript returns a migration script given either inline or as a file
// relative to the document. Exactly one of the two must be set.
func (e DecodeEnv) ReadScript(inline, file string) (string, error) {
	switch {
	case inline != "" && file != "":
		return "", fmt.Errorf("sql and scriptFile are mutually exclusive")
	case inline != "":
		return inline, nil
	case file != "":
		data, err := os.ReadFile(e.Resolve(file))
		if err != nil {
			return "", fmt.Errorf("failed to read script file: %w", err)
		}
		return string(data), nil
	default:
		return "", fmt.Errorf("either sql or scriptFile is required")
	}
}
