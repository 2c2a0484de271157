package config

import (
	"os"
	"path/filepath"
	"strings"
)

// DetectProjectRoot attempts to find the current project by walking
// up from the current directory looking for .checktree/.
func DetectProjectRoot() (string, bool) {
	dir, err := os.Getwd()
	if err != nil {
		return "", false
	}
	return FindProjectRoot(dir)
}

// FindProjectRoot walks up from dir looking for a .checktree/ directory.
// The walk stops at the filesystem root and never goes above $HOME.
func FindProjectRoot(dir string) (string, bool) {
	home, _ := os.UserHomeDir()
	if abs, err := filepath.Abs(dir); err == nil {
		dir = abs
	}

	for {
		projectDir := filepath.Join(dir, ProjectDir)
		if info, err := os.Stat(projectDir); err == nil && info.IsDir() {
			return dir, true
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

// ScanPayloads walks root up to maxDepth levels deep and returns the JSON
// and YAML files found under .checktree/ directories, skipping other
// hidden directories.
func ScanPayloads(root string, maxDepth int) []string {
	root = expandHome(root)
	if maxDepth <= 0 {
		maxDepth = 3
	}
	var results []string

	rootDepth := strings.Count(filepath.Clean(root), string(filepath.Separator))

	_ = filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return filepath.SkipDir
		}
		if !d.IsDir() {
			return nil
		}

		currentDepth := strings.Count(filepath.Clean(path), string(filepath.Separator)) - rootDepth
		if currentDepth > maxDepth {
			return filepath.SkipDir
		}

		name := d.Name()
		if path != root && strings.HasPrefix(name, ".") && name != ProjectDir {
			return filepath.SkipDir
		}
		if name != ProjectDir {
			return nil
		}

		entries, err := os.ReadDir(path)
		if err != nil {
			return filepath.SkipDir
		}
		for _, e := range entries {
			if e.IsDir() || e.Name() == "config.yaml" {
				continue
			}
			switch strings.ToLower(filepath.Ext(e.Name())) {
			case ".json", ".yaml", ".yml":
				results = append(results, filepath.Join(path, e.Name()))
			}
		}
		return filepath.SkipDir
	})

	return results
}

func expandHome(p string) string {
	if p == "~" || strings.HasPrefix(p, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, strings.TrimPrefix(p, "~"))
		}
	}
	return p
}
