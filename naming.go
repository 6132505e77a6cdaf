package batchfetch

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// maxCollisions bounds the suffix search of CreateUnique
const maxCollisions = 100000

// ErrTooManyCollisions indicates no free name was found for a candidate
var ErrTooManyCollisions = errors.New("too many files with the same name")

// CandidateName derives the output file name of a URL. The last path
// segment is used; a URL without one gets file_<index>, and a bare
// extension such as ".env" is prefixed with the host so that many hosts
// can share one flat directory.
func CandidateName(rawURL string, index int) string {
	fallback := fmt.Sprintf("file_%d", index)

	u, err := url.Parse(rawURL)
	if err != nil {
		return fallback
	}

	name := path.Base(strings.TrimRight(u.Path, "/"))
	if i := strings.IndexByte(name, '?'); i >= 0 {
		name = name[:i]
	}
	if name == "" || name == "." || name == ".." || name == "/" {
		return fallback
	}

	if isBareExtension(name) {
		return strings.ReplaceAll(u.Host, ":", "_") + name
	}

	return name
}

func isBareExtension(name string) bool {
	return len(name) > 1 && name[0] == '.' && !strings.Contains(name[1:], ".")
}

// splitName splits a file name into stem and extension. A name that is
// only an extension keeps it as the stem.
func splitName(name string) (string, string) {
	ext := filepath.Ext(name)
	if ext == name {
		return name, ""
	}
	return strings.TrimSuffix(name, ext), ext
}

// CreateUnique creates a new file in dir named after candidate without
// touching existing files. If candidate is taken it tries stem_1.ext,
// stem_2.ext and so on. Each attempt is an exclusive create, so two
// callers racing for the same name always end up with different files.
func CreateUnique(dir, candidate string) (*os.File, string, error) {
	stem, ext := splitName(candidate)

	for counter := 0; counter < maxCollisions; counter++ {
		name := candidate
		if counter > 0 {
			name = fmt.Sprintf("%s_%d%s", stem, counter, ext)
		}
		filePath := filepath.Join(dir, name)

		f, err := os.OpenFile(filePath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
		if err == nil {
			return f, filePath, nil
		}
		if !errors.Is(err, fs.ErrExist) {
			return nil, "", fmt.Errorf("create %s: %w", filePath, err)
		}
	}

	return nil, "", fmt.Errorf("%w: %s", ErrTooManyCollisions, candidate)
}
