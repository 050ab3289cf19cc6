package repository

import (
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"
	"time"

	"quill/internal/models"
)

// Cursor marks a position in a keyset-paginated listing. Time is the sort key
// of the last row on the previous page and ID breaks ties between rows sharing
// the same timestamp.
type Cursor struct {
	Time time.Time
	ID   uint
}

// Encode serializes the cursor into an opaque URL-safe token.
func (c Cursor) Encode() string {
	raw := fmt.Sprintf("%d|%d", c.Time.UnixNano(), c.ID)
	return base64.RawURLEncoding.EncodeToString([]byte(raw))
}

// DecodeCursor parses a token produced by Encode.
func DecodeCursor(token string) (*Cursor, error) {
	raw, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return nil, models.NewValidationError("Invalid pagination cursor")
	}
	parts := strings.SplitN(string(raw), "|", 2)
	if len(parts) != 2 {
		return nil, models.NewValidationError("Invalid pagination cursor")
	}
	nanos, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		return nil, models.NewValidationError("Invalid pagination cursor")
	}
	id, err := strconv.ParseUint(parts[1], 10, 64)
	if err != nil {
		return nil, models.NewValidationError("Invalid pagination cursor")
	}
	return &Cursor{Time: time.Unix(0, nanos).UTC(), ID: uint(id)}, nil
}
