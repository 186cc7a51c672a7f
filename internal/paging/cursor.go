// Package paging implements the two paging modes of the plan listings:
// keyset (seek) paging driven by opaque cursors, and legacy offset paging
// driven by an explicit page number.
//
// The listing order is fixed: balance descending with the plan number as an
// ascending tie breaker. Cursors pin a position in that order and are encoded
// as base64 JSON so clients can treat them as opaque tokens.
package paging

import (
	"encoding/base64"
	"encoding/json"

	"github.com/shopspring/decimal"
)

// Cursor pins a position in the listing order. Saldo carries the balance of
// the boundary row and Numero its plan number. Rows without a balance encode
// Saldo as zero, matching how the queries coalesce null balances when
// ordering.
type Cursor struct {
	Saldo  decimal.Decimal
	Numero string
}

// cursorPayload is the wire shape of an encoded cursor. Keys are kept to one
// letter so cursors stay short in query strings.
type cursorPayload struct {
	Saldo  decimal.Decimal `json:"s"`
	Numero string          `json:"n"`
}

// EncodeCursor converts a position into an opaque cursor token.
func EncodeCursor(c Cursor) string {
	data, err := json.Marshal(cursorPayload{Saldo: c.Saldo, Numero: c.Numero})
	if err != nil {
		return ""
	}
	return base64.URLEncoding.EncodeToString(data)
}

// DecodeCursor parses an opaque cursor token. It reports false when the token
// is empty or malformed in any way, so callers fall back to the first page
// instead of failing the request.
func DecodeCursor(raw string) (Cursor, bool) {
	if raw == "" {
		return Cursor{}, false
	}

	decoded, err := base64.URLEncoding.DecodeString(raw)
	if err != nil {
		return Cursor{}, false
	}

	var payload cursorPayload
	if err := json.Unmarshal(decoded, &payload); err != nil {
		return Cursor{}, false
	}

	// A cursor always names the plan that closed the previous page.
	if payload.Numero == "" {
		return Cursor{}, false
	}

	return Cursor{Saldo: payload.Saldo, Numero: payload.Numero}, true
}
