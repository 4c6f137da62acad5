package sanitizer

import "strings"

func NormalizeStringSlice(items []string, normalizer func(string) string) []string {
	if len(items) == 0 {
		return []string{}
	}

	seen := make(map[string]bool)
	result := make([]string, 0, len(items))

	for _, item := range items {
		normalized := normalizer(item)

		if normalized == "" {
			continue
		}

		if seen[normalized] {
			continue
		}

		seen[normalized] = true
		result = append(result, normalized)
	}

	return result
}

// NormalizeIDs trims and lowercases hex object ids and drops duplicates.
func NormalizeIDs(ids []string) []string {
	return NormalizeStringSlice(ids, func(s string) string {
		return strings.ToLower(strings.TrimSpace(s))
	})
}

func NormalizeTags(tags []string) []string {
	return NormalizeStringSlice(tags, SanitizeTag)
}
