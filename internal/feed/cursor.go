package feed

import (
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Cursor is the feed pagination position: the sort key and post id of the
// last row returned on the previous page. It round-trips through an opaque
// string; no external party should construct one.
type Cursor struct {
	SortKey time.Time
	ID      int64
}

// Encode serializes the cursor to its opaque wire form.
func (c Cursor) Encode() string {
	raw := fmt.Sprintf("%d|%d", c.SortKey.UnixNano(), c.ID)
	return base64.RawURLEncoding.EncodeToString([]byte(raw))
}

// DecodeCursor parses a cursor produced by Encode. Anything else yields
// ErrInvalidCursor.
func DecodeCursor(s string) (Cursor, error) {
	raw, err := base64.RawURLEncoding.DecodeString(s)
	if err != nil {
		return Cursor{}, ErrInvalidCursor
	}
	parts := strings.SplitN(string(raw), "|", 2)
	if len(parts) != 2 {
		return Cursor{}, ErrInvalidCursor
	}
	nanos, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		return Cursor{}, ErrInvalidCursor
	}
	id, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		return Cursor{}, ErrInvalidCursor
	}
	return Cursor{SortKey: time.Unix(0, nanos).UTC(), ID: id}, nil
}
