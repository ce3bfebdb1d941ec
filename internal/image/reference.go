// Package image turns an entrypoint version or a raw base into a concrete,
// tagged image reference that is available to the container engine.
package image

import "strings"

// DefaultTag is applied to references that carry no tag.
const DefaultTag = "latest"

// lastSegment returns the part of ref after its final "/".
func lastSegment(ref string) string {
	if i := strings.LastIndex(ref, "/"); i >= 0 {
		return ref[i+1:]
	}
	return ref
}

// TaggedVersion returns the tag of ref, looking only at the last path
// segment so that registry ports ("host:5000/name") are not mistaken for
// tags. ok is false when the reference is untagged.
func TaggedVersion(ref string) (tag string, ok bool) {
	_, tag, ok = strings.Cut(lastSegment(ref), ":")
	if !ok || tag == "" {
		return "", false
	}
	return tag, true
}

// WithTag returns ref tagged with tag. A dangling ":" on ref is dropped.
func WithTag(ref, tag string) string {
	return strings.TrimSuffix(ref, ":") + ":" + tag
}

// Normalize returns ref with DefaultTag applied when it has no tag.
func Normalize(ref string) string {
	if _, ok := TaggedVersion(ref); ok {
		return ref
	}
	return WithTag(ref, DefaultTag)
}

// ShortName returns the repository name of ref without registry,
// namespace, tag, or digest: "quay.io/biocontainers/bwa:0.7" -> "bwa".
func ShortName(ref string) string {
	name := lastSegment(ref)
	if i := strings.IndexAny(name, ":@"); i >= 0 {
		name = name[:i]
	}
	return name
}
