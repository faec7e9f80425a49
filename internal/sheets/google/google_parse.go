package google

import (
	"fmt"
	"strconv"
	"strings"
)

// sheetRange quotes a sheet name for A1 notation; names with spaces or
// symbols must be wrapped in single quotes with embedded quotes doubled.
func sheetRange(name string) string {
	return "'" + strings.ReplaceAll(name, "'", "''") + "'"
}

// toWorkbookRows converts an API values matrix into cell text.
func toWorkbookRows(values [][]interface{}) [][]string {
	out := make([][]string, len(values))
	for i, row := range values {
		out[i] = toStrings(row)
	}
	return out
}

func toStrings(in []interface{}) []string {
	out := make([]string, len(in))
	for i, v := range in {
		out[i] = cellText(v)
	}
	return out
}

// cellText keeps full float precision for unformatted numeric cells.
func cellText(v interface{}) string {
	switch x := v.(type) {
	case nil:
		return ""
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case string:
		return strings.TrimSpace(x)
	default:
		return strings.TrimSpace(fmt.Sprint(x))
	}
}
