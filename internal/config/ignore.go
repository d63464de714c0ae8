package config

import (
	"bufio"
	"fmt"
	"os"
	"strings"
)

// LoadIgnoreList parses a newline-delimited domain list. Blank lines and
// lines starting with '#' are skipped; entries are lowercased and a leading
// "www." is stripped so they match hosts the way the scope classifier
// compares them.
func LoadIgnoreList(path string) (map[string]struct{}, error) {
	f, err := os.Open(path) //nolint:gosec // user-provided path is intentional
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrIgnoreListUnreadable, path)
	}
	defer f.Close() //nolint:errcheck // read-only file

	ignored := make(map[string]struct{})
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		domain := strings.TrimPrefix(strings.ToLower(line), "www.")
		ignored[domain] = struct{}{}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read ignore list %s: %w", path, err)
	}
	return ignored, nil
}
