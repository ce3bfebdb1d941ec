package mount

// Rewrite returns a copy of invocation with every token that exactly
// matches a mounted host path replaced by its container path. Partial
// tokens and path prefixes are left alone.
func Rewrite(invocation []string, mounts Mounts) []string {
	out := make([]string, len(invocation))
	for i, token := range invocation {
		if spec, ok := mounts[token]; ok {
			out[i] = spec.Bind
			continue
		}
		out[i] = token
	}
	return out
}
