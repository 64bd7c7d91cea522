package config

import (
	"embed"
	"os"
	"path/filepath"
)

// DefaultName is the rule set used when no file is given.
const DefaultName = "default.yaml"

//go:embed default.yaml
var defaultFS embed.FS

// Read returns the rule-set file at path, or the embedded default when path is
// empty.
func Read(path string) ([]byte, error) {
	if path == "" {
		return defaultFS.ReadFile(DefaultName)
	}
	return os.ReadFile(filepath.Clean(path))
}
