// Package registry searches image registries for tools to add as
// entrypoints.
package registry

import (
	"context"
	"fmt"

	"github.com/RevCBH/dkr/internal/config"
	log "github.com/sirupsen/logrus"
)

// Image is one tagged image found by a registry search.
type Image struct {
	Name      string
	Tag       string
	Reference string
	Provider  string
}

// Result is a search hit with its 1-based row number.
type Result struct {
	ID int
	Image
}

// Registry is a searchable image source.
type Registry interface {
	// Name identifies the registry, e.g. "quay.io/biocontainers".
	Name() string

	// Query returns the images matching q, newest tags first.
	Query(ctx context.Context, q string) ([]Image, error)
}

// Default returns the registries dkr searches when none are named.
func Default() []Registry {
	return []Registry{NewQuay()}
}

// Only keeps the registries whose names are listed. An empty list keeps
// all of them; unknown names are an error.
func Only(regs []Registry, names []string) ([]Registry, error) {
	if len(names) == 0 {
		return regs, nil
	}
	byName := make(map[string]Registry, len(regs))
	for _, r := range regs {
		byName[r.Name()] = r
	}
	out := make([]Registry, 0, len(names))
	for _, n := range names {
		r, ok := byName[n]
		if !ok {
			return nil, fmt.Errorf("unknown registry %q", n)
		}
		out = append(out, r)
	}
	return out, nil
}

// Search queries every registry in turn and numbers the combined hits
// from 1. A registry that fails is skipped with a warning.
func Search(ctx context.Context, regs []Registry, q string, logger *log.Logger) []Result {
	var results []Result
	for _, r := range regs {
		images, err := r.Query(ctx, q)
		if err != nil {
			logger.WithError(err).WithField("registry", r.Name()).Warn("could not search registry, skipping")
			continue
		}
		for _, img := range images {
			results = append(results, Result{ID: len(results) + 1, Image: img})
		}
	}
	return results
}

// Select keeps the results whose IDs are listed. No rows keeps all.
func Select(results []Result, rows []int) []Result {
	if len(rows) == 0 {
		return results
	}
	want := make(map[int]bool, len(rows))
	for _, r := range rows {
		want[r] = true
	}
	var out []Result
	for _, res := range results {
		if want[res.ID] {
			out = append(out, res)
		}
	}
	return out
}

// ToConfig groups results by image name into entrypoints, keeping result
// order for both names and versions.
func ToConfig(results []Result) (*config.Config, error) {
	cfg := config.New()
	for _, res := range results {
		e, exists := cfg.Entrypoint(res.Name)
		var err error
		switch {
		case !exists:
			cfg, err = cfg.WithEntrypoint(res.Name, []string{res.Reference})
		case !e.HasVersion(res.Reference):
			cfg, err = cfg.WithVersion(res.Name, res.Reference, false)
		}
		if err != nil {
			return nil, fmt.Errorf("result %d: %w", res.ID, err)
		}
	}
	return cfg, nil
}
