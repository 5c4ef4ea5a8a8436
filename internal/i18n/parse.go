package i18n

import (
	"bufio"
	"io"
	"strings"
)

// FileExt is the extension of translation files.
const FileExt = ".lang"

// Dict maps source tags to translated strings.
type Dict map[string]string

// Parse reads "key=value" lines. Blank lines and lines starting with "#"
// are skipped, and everything after the first "=" belongs to the value.
func Parse(r io.Reader) (Dict, error) {
	dict := make(Dict)
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, value, _ := strings.Cut(line, "=")
		dict[strings.TrimSpace(key)] = strings.TrimSpace(value)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return dict, nil
}

// overlay returns base with top's entries written over it.
func overlay(base, top Dict) Dict {
	out := make(Dict, len(base)+len(top))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range top {
		out[k] = v
	}
	return out
}
