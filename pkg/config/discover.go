package config

import (
	"os"
	"path/filepath"
)

// CatalogDirName is the per-project directory holding catalog files.
const CatalogDirName = ".catalogtree"

// catalogFileNames are tried in order inside CatalogDirName.
var catalogFileNames = []string{"catalog.yaml", "catalog.yml", "catalog.json"}

// DetectCatalog attempts to find a catalog file by walking up from the
// current directory looking for .catalogtree/catalog.{yaml,yml,json}.
func DetectCatalog() (string, bool) {
	dir, err := os.Getwd()
	if err != nil {
		return "", false
	}
	return findCatalog(dir)
}

// findCatalog walks up from dir looking for a catalog file.
func findCatalog(dir string) (string, bool) {
	home, _ := os.UserHomeDir()

	for {
		for _, name := range catalogFileNames {
			candidate := filepath.Join(dir, CatalogDirName, name)
			if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
				return candidate, true
			}
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break // Reached filesystem root
		}
		// Don't go above home directory
		if home != "" && dir == home {
			break
		}
		dir = parent
	}
	return "", false
}
