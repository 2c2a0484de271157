// This file keeps generated exports out of version control.

package config

import (
	"bufio"
	"os"
	"path/filepath"
	"strings"
)

// IgnoreExportDir lists the export directory in the project's .gitignore.
// It only acts for a project root (a directory holding .checktree/) and an
// export directory inside it; absolute and home-relative export dirs are
// left alone. The call is idempotent.
func (c *Config) IgnoreExportDir() error {
	dir := filepath.ToSlash(filepath.Clean(c.Export.Dir))
	if c.Export.Dir == "" || c.Dir == "" || filepath.IsAbs(c.Export.Dir) ||
		strings.HasPrefix(c.Export.Dir, "~") || dir == "." || strings.HasPrefix(dir, "../") || dir == ".." {
		return nil
	}
	if info, err := os.Stat(filepath.Join(c.Dir, ProjectDir)); err != nil || !info.IsDir() {
		return nil
	}
	return EnsureIgnored(c.Dir, dir)
}

// EnsureIgnored appends entry as a directory pattern to root/.gitignore,
// creating the file when needed, unless a line already covers it.
func EnsureIgnored(root, entry string) error {
	entry = strings.Trim(filepath.ToSlash(entry), "/")
	path := filepath.Join(root, ".gitignore")

	present, err := isIgnored(path, entry)
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	if present {
		return nil
	}
	return appendToGitignore(path, entry+"/")
}

func isIgnored(path, entry string) (bool, error) {
	file, err := os.Open(path)
	if err != nil {
		return false, err
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if coversDir(line, entry) {
			return true, nil
		}
	}
	return false, scanner.Err()
}

// coversDir reports whether a .gitignore line ignores the directory entry.
func coversDir(line, entry string) bool {
	normalized := strings.TrimPrefix(line, "/")
	for _, suffix := range []string{"", "/", "/*", "/**", "/**/*"} {
		if normalized == entry+suffix {
			return true
		}
	}
	return false
}

func appendToGitignore(path, pattern string) error {
	content, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return err
	}

	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	defer file.Close()

	var toWrite string
	if len(content) > 0 {
		if content[len(content)-1] != '\n' {
			toWrite = "\n"
		}
		toWrite += "\n"
	}
	toWrite += "# checktree exports\n" + pattern + "\n"

	_, err = file.WriteString(toWrite)
	return err
}
