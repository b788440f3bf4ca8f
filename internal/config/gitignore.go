package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
)

// ignoredPatterns cover the store files of every driver, their lock and temp
// files, and logs. config.yaml is deliberately absent.
var ignoredPatterns = []string{
	"*.db",
	"*.db-journal",
	"*.db-wal",
	"planetzero.json",
	"*.lock",
	"*.tmp",
	"*.log",
}

const gitignoreHeader = "# planetzero local data (config.yaml stays tracked)"

// IgnoredPatterns returns the patterns EnsureGitignore guarantees.
func IgnoredPatterns() []string {
	return slices.Clone(ignoredPatterns)
}

// EnsureGitignore makes dir/.gitignore list every pattern in IgnoredPatterns.
// A missing file is created. An existing file keeps all of its lines and gets
// the missing patterns appended under a header. It returns the patterns it
// added, which is empty when nothing had to change.
func EnsureGitignore(dir string) ([]string, error) {
	path := filepath.Join(dir, ".gitignore")

	existing, err := os.ReadFile(path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	present := make(map[string]bool)
	for _, line := range strings.Split(string(existing), "\n") {
		present[strings.TrimSpace(line)] = true
	}
	var missing []string
	for _, p := range ignoredPatterns {
		if !present[p] {
			missing = append(missing, p)
		}
	}
	if len(missing) == 0 {
		return nil, nil
	}

	var b strings.Builder
	if len(existing) > 0 {
		b.Write(existing)
		if existing[len(existing)-1] != '\n' {
			b.WriteByte('\n')
		}
		b.WriteByte('\n')
	}
	b.WriteString(gitignoreHeader + "\n")
	for _, p := range missing {
		b.WriteString(p + "\n")
	}

	if err = os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("creating directory %s: %w", dir, err)
	}
	//nolint:gosec // .gitignore is read by git under the user's umask.
	if err = os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		return nil, fmt.Errorf("writing %s: %w", path, err)
	}
	return missing, nil
}
