package pagination

import (
	"encoding/base64"
	"fmt"
	"strings"
	"time"
)

const timeFormat = time.RFC3339Nano

// Cursor is the position of the last entry on a page, in ledger order (date, postedAt, id).
type Cursor struct {
	Date     time.Time
	PostedAt time.Time
	EntryID  string
}

// After reports whether an entry at (date, postedAt, id) sorts strictly after the cursor.
func (c Cursor) After(date, postedAt time.Time, id string) bool {
	if !date.Equal(c.Date) {
		return date.After(c.Date)
	}
	if !postedAt.Equal(c.PostedAt) {
		return postedAt.After(c.PostedAt)
	}
	return id > c.EntryID
}

// EncodeToken creates a base64 encoded token from an entry's ordering key.
func EncodeToken(c Cursor) string {
	tokenStr := fmt.Sprintf("%s|%s|%s", c.Date.Format(timeFormat), c.PostedAt.Format(timeFormat), c.EntryID)
	return base64.StdEncoding.EncodeToString([]byte(tokenStr))
}

// DecodeToken parses the base64 encoded token back into a cursor.
func DecodeToken(token string) (Cursor, error) {
	decodedBytes, err := base64.StdEncoding.DecodeString(token)
	if err != nil {
		return Cursor{}, fmt.Errorf("invalid pagination token format (base64 decode): %w", err)
	}
	parts := strings.SplitN(string(decodedBytes), "|", 3)
	if len(parts) != 3 {
		return Cursor{}, fmt.Errorf("invalid pagination token format (split)")
	}

	date, err := time.Parse(timeFormat, parts[0])
	if err != nil {
		return Cursor{}, fmt.Errorf("invalid pagination token format (entry date parse): %w", err)
	}
	postedAt, err := time.Parse(timeFormat, parts[1])
	if err != nil {
		return Cursor{}, fmt.Errorf("invalid pagination token format (posted_at parse): %w", err)
	}
	if parts[2] == "" {
		return Cursor{}, fmt.Errorf("invalid pagination token format (empty entry id)")
	}

	return Cursor{Date: date, PostedAt: postedAt, EntryID: parts[2]}, nil
}
