package schema

import "strings"

// Normalize applies mechanical repairs to a candidate output before
// validation: list items missing a required prefix get the marker
// prepended. This is a deliberate, separate step rather than part of
// Validate — callers opt in, and the repair count is reported so the
// behavior stays observable. Forbidden prefixes are never stripped:
// removing characters the model chose is lossy, so those remain
// validation failures.
func Normalize(d Descriptor, candidate map[string]any) (map[string]any, int) {
	if len(candidate) == 0 {
		return candidate, 0
	}

	repaired := 0
	out := make(map[string]any, len(candidate))
	for k, v := range candidate {
		out[k] = v
	}

	for _, f := range d.Fields {
		if f.Type != FieldTextList || f.RequiredPrefix == "" {
			continue
		}
		items, ok := toStringSlice(out[f.Name])
		if !ok {
			continue
		}
		fixed := make([]string, len(items))
		for i, it := range items {
			if !strings.HasPrefix(it, f.RequiredPrefix) {
				fixed[i] = f.RequiredPrefix + it
				repaired++
			} else {
				fixed[i] = it
			}
		}
		out[f.Name] = fixed
	}

	return out, repaired
}
