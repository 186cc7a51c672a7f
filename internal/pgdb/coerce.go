package pgdb

import (
	"strconv"
	"strings"
)

// CoerceSuccess interprets the scalar a database procedure returned as a
// success flag. The procedures of this schema family disagree on their
// return shape (booleans, affected-row counts, text flags), so the
// interpretation is permissive: only an explicitly falsy scalar counts as
// failure, and anything ambiguous counts as success.
//
//	false, 0, "0", "f", "false", "n", "nao" → failure
//	true, non-zero numbers, other text, NULL → success
func CoerceSuccess(v any) bool {
	switch val := v.(type) {
	case nil:
		return true
	case bool:
		return val
	case int:
		return val != 0
	case int32:
		return val != 0
	case int64:
		return val != 0
	case float64:
		return val != 0
	case string:
		return coerceTexto(val)
	case []byte:
		return coerceTexto(string(val))
	default:
		return true
	}
}

func coerceTexto(s string) bool {
	s = strings.ToLower(strings.TrimSpace(s))
	switch s {
	case "0", "f", "false", "n", "nao", "não":
		return false
	}
	if n, err := strconv.ParseFloat(s, 64); err == nil {
		return n != 0
	}
	return true
}
