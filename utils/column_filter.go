package utils

// FilterExcludedColumns returns a copy of data without the excluded columns.
// Returns the original data when nothing is excluded.
func FilterExcludedColumns(data map[string]any, excluded []string) map[string]any {
	if len(excluded) == 0 {
		return data
	}

	excludedMap := make(map[string]struct{}, len(excluded))
	for _, column := range excluded {
		excludedMap[column] = struct{}{}
	}

	filtered := make(map[string]any, len(data))
	for key, value := range data {
		if _, exists := excludedMap[key]; !exists {
			filtered[key] = value
		}
	}
	return filtered
}
