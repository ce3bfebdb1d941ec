package image

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	log "github.com/sirupsen/logrus"
)

// ErrEmptyReference is returned when there is nothing to resolve.
var ErrEmptyReference = errors.New("empty image reference")

// TagLister reports the tags of images stored by the local engine.
type TagLister interface {
	ImageTags(ctx context.Context) ([]string, error)
}

// Puller fetches an image into the local engine.
type Puller interface {
	Pull(ctx context.Context, ref string) error
}

// Resolver finds the local image for a reference, pulling it when the
// engine does not have it.
type Resolver struct {
	tags   TagLister
	puller Puller
	log    *log.Logger
}

// NewResolver creates a Resolver. A nil logger discards output.
func NewResolver(tags TagLister, puller Puller, logger *log.Logger) *Resolver {
	if logger == nil {
		logger = log.New()
		logger.SetOutput(io.Discard)
	}
	return &Resolver{tags: tags, puller: puller, log: logger}
}

// Resolve returns the reference the engine should launch for base.
//
// Untagged references get DefaultTag. A local image is preferred: an
// exact tag match first, then any local tag ending in the requested
// name:tag. When nothing matches the image is pulled. A failed pull is
// only logged; launching will report the missing image.
func (r *Resolver) Resolve(ctx context.Context, base string) (string, error) {
	if strings.TrimSpace(base) == "" {
		return "", ErrEmptyReference
	}
	ref := Normalize(base)

	local, err := r.tags.ImageTags(ctx)
	if err != nil {
		return "", fmt.Errorf("list local images: %w", err)
	}
	if match, ok := MatchTag(local, ref); ok {
		r.log.WithFields(log.Fields{"image": ref, "local": match}).Debug("using local image")
		return match, nil
	}

	r.log.WithField("image", ref).Info("pulling image")
	if err := r.puller.Pull(ctx, ref); err != nil {
		r.log.WithError(err).WithField("image", ref).Warn("pull failed")
	}
	return ref, nil
}

// MatchTag picks the local tag satisfying ref. Exact equality wins over a
// suffix match on ref's last path segment; among suffix matches the first
// in tags order is taken.
func MatchTag(tags []string, ref string) (string, bool) {
	for _, t := range tags {
		if t == ref {
			return t, true
		}
	}
	suffix := lastSegment(ref)
	for _, t := range tags {
		if strings.HasSuffix(t, suffix) {
			return t, true
		}
	}
	return "", false
}
