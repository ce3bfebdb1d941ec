// Package mount decides which host paths a dkr container needs and where
// they appear inside it.
package mount

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/mitchellh/go-homedir"
)

// Resolver finds the nearest existing path for an invocation token.
type Resolver struct {
	// Dir is the directory relative candidates are checked against.
	// Empty means the process working directory.
	Dir string

	stat   func(string) (os.FileInfo, error)
	expand func(string) (string, error)
}

// NewResolver creates a Resolver that checks relative candidates against dir.
func NewResolver(dir string) *Resolver {
	return &Resolver{
		Dir:    dir,
		stat:   os.Stat,
		expand: homedir.Expand,
	}
}

// Resolve treats candidate as a path and walks it upward, one segment at a
// time, until an existing filesystem entry is found. A leading ~ is
// expanded first. A candidate that exists is returned unchanged. The walk
// stops at the filesystem root without returning it, so a token such as
// /not/there never causes the host root to be mounted.
func (r *Resolver) Resolve(candidate string) (string, bool) {
	p := candidate
	if strings.HasPrefix(p, "~") {
		if expanded, err := r.expand(p); err == nil {
			p = expanded
		}
	}

	for walked := false; p != ""; walked = true {
		if walked && isRoot(p) {
			return "", false
		}
		if r.exists(p) {
			return p, true
		}
		p = parent(p)
	}
	return "", false
}

func (r *Resolver) exists(p string) bool {
	if !filepath.IsAbs(p) && r.Dir != "" {
		p = filepath.Join(r.Dir, p)
	}
	_, err := r.stat(p)
	return err == nil
}

// parent drops the last path segment. A bare name has no parent and
// yields "", which ends the walk.
func parent(p string) string {
	dir, _ := filepath.Split(p)
	if isRoot(dir) {
		return dir
	}
	return strings.TrimRight(dir, string(filepath.Separator))
}

func isRoot(p string) bool {
	return p != "" && strings.Trim(p, string(filepath.Separator)) == ""
}
