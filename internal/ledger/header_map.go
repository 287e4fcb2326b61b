package ledger

import (
	"fmt"
	"strings"
)

// createHeaderMap maps the expected column names to their indices in the
// file's header row
func createHeaderMap(header []string, expectedHeader []string) (map[string]int, error) {
	columnMap := make(map[string]int)

	for _, column := range expectedHeader {
		found := false
		for i, field := range header {
			if strings.EqualFold(column, strings.TrimSpace(field)) {
				columnMap[column] = i
				found = true
				break
			}
		}

		if !found {
			return nil, fmt.Errorf("required field '%s' not found in header", column)
		}
	}

	return columnMap, nil
}
