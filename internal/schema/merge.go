package schema

// DeepMerge returns a copy of base with extra merged over it. Nested maps are merged recursively,
// any other value in extra overwrites the one in base. Keys are never dropped.
func DeepMerge(base, extra map[string]any) map[string]any {
	out := make(map[string]any, len(base)+len(extra))
	for k, v := range base {
		out[k] = v
	}

	for k, v := range extra {
		src, srcOK := v.(map[string]any)
		dst, dstOK := out[k].(map[string]any)

		if srcOK && dstOK {
			out[k] = DeepMerge(dst, src)
			continue
		}

		out[k] = v
	}

	return out
}

// compose applies the base/extra layout when present, otherwise returns doc unchanged.
func compose(doc map[string]any) map[string]any {
	base, hasBase := doc["base"].(map[string]any)
	extra, hasExtra := doc["extra"].(map[string]any)

	if !hasBase && !hasExtra {
		return doc
	}

	return DeepMerge(base, extra)
}
