// README: Opaque pagination cursor; versioned base64 JSON round-tripped by callers untouched.
package trip

import (
	"encoding/base64"
	"encoding/json"
	"fmt"

	"freightdesk/internal/types"
)

const cursorVersion = 1

// Cursor is the decoded form of the pagination token. It records the key
// projection of the last record the caller was shown — not the last record
// the store scanned — plus the index it belongs to, so a token minted on one
// index can never be replayed against another.
type Cursor struct {
	Version      int      `json:"v"`
	Index        IndexID  `json:"index"`
	PartitionKey string   `json:"pk"`
	SortKey      string   `json:"sk"`
	TripID       types.ID `json:"trip_id"`
}

// Encode serializes the cursor into its opaque wire form.
func (c Cursor) Encode() string {
	raw, err := json.Marshal(c)
	if err != nil {
		// Cursor is a flat value type; Marshal cannot fail on it.
		panic(err)
	}
	return base64.RawURLEncoding.EncodeToString(raw)
}

// DecodeCursor parses and shape-checks an incoming token. Every failure is
// ErrBadCursor: a malformed token is a client error, never a crash and never
// a silent reset to page one.
func DecodeCursor(s string) (Cursor, error) {
	raw, err := base64.RawURLEncoding.DecodeString(s)
	if err != nil {
		return Cursor{}, fmt.Errorf("%w: %v", ErrBadCursor, err)
	}
	var c Cursor
	if err := json.Unmarshal(raw, &c); err != nil {
		return Cursor{}, fmt.Errorf("%w: %v", ErrBadCursor, err)
	}
	if c.Version != cursorVersion {
		return Cursor{}, fmt.Errorf("%w: unsupported version %d", ErrBadCursor, c.Version)
	}
	if c.Index == "" || c.PartitionKey == "" || c.SortKey == "" {
		return Cursor{}, fmt.Errorf("%w: missing key fields", ErrBadCursor)
	}
	return c, nil
}

// ValidateFor rejects a cursor replayed against a different index or
// partition than the one it was minted for.
func (c Cursor) ValidateFor(sel Selection) error {
	if c.Index != sel.Index {
		return fmt.Errorf("%w: cursor minted for index %q, query selected %q", ErrBadCursor, c.Index, sel.Index)
	}
	if c.PartitionKey != sel.PartitionKey {
		return fmt.Errorf("%w: cursor partition does not match query", ErrBadCursor)
	}
	return nil
}

// cursorFor rebuilds the token for the last record actually returned,
// reconstructing the index-specific key pair from the trip's own fields.
func cursorFor(sel Selection, t Trip) (Cursor, error) {
	kp, ok := DeriveIndexKeys(t)[sel.Index]
	if !ok {
		return Cursor{}, fmt.Errorf("trip %s has no projection on index %s", t.ID, sel.Index)
	}
	return Cursor{
		Version:      cursorVersion,
		Index:        sel.Index,
		PartitionKey: kp.PartitionKey,
		SortKey:      kp.SortKey,
		TripID:       t.ID,
	}, nil
}
