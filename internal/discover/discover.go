// Package discover turns query paths (files or directories) into the sorted
// list of input files the pipeline sketches.
package discover

import (
	"os"
	"path/filepath"
	"regexp"
	"sort"

	"runhulk/internal/hulkerr"
)

// Discover resolves paths into a sorted, de-duplicated list of regular files.
// Files are taken as given (cleaned, so a path spelled two ways is one
// entry); directories contribute their immediate regular-file
// entries whose joined path matches pattern (all of them when pattern is nil).
func Discover(paths []string, pattern *regexp.Regexp) ([]string, error) {
	seen := make(map[string]struct{})
	var files []string
	add := func(p string) {
		if _, dup := seen[p]; dup {
			return
		}
		seen[p] = struct{}{}
		files = append(files, p)
	}

	for _, p := range paths {
		fi, err := os.Stat(p)
		if err != nil {
			return nil, hulkerr.IO("discover", err, "cannot access %q", p)
		}
		switch {
		case fi.Mode().IsRegular():
			add(filepath.Clean(p))
		case fi.IsDir():
			entries, err := os.ReadDir(p)
			if err != nil {
				return nil, hulkerr.IO("discover", err, "cannot read directory %q", p)
			}
			for _, e := range entries {
				info, err := e.Info()
				if err != nil {
					return nil, hulkerr.IO("discover", err, "cannot stat %q", filepath.Join(p, e.Name()))
				}
				if !info.Mode().IsRegular() {
					continue
				}
				name := filepath.Join(p, e.Name())
				if pattern != nil && !pattern.MatchString(name) {
					continue
				}
				add(name)
			}
		default:
			return nil, hulkerr.Config("discover", "%q is neither a regular file nor a directory", p)
		}
	}

	if len(files) == 0 {
		return nil, hulkerr.Config("discover", "no input files from query %q", paths)
	}
	sort.Strings(files)
	return files, nil
}
