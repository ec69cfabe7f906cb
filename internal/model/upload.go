package model

import (
	"encoding/json"
	"strings"
	"time"
)

// redactKeep is how many leading token characters survive redaction.
const redactKeep = 4

// Upload records one accepted write. Path is the storage key relative to the
// backend root. The token that authorized the write is kept for the ledger
// but never serialized, and it is masked wherever it appears in Path.
type Upload struct {
	ID          string    `json:"id"`
	Path        string    `json:"path"`
	Token       string    `json:"-"`
	Size        int64     `json:"size"`
	ContentType string    `json:"content_type"`
	Extension   string    `json:"extension"`
	CreatedAt   time.Time `json:"created_at"`
}

// MarshalJSON serializes u with the token masked in Path, so a listed record
// cannot be used to authorize further writes.
func (u Upload) MarshalJSON() ([]byte, error) {
	type plain Upload
	out := plain(u)
	if u.Token != "" {
		out.Path = strings.ReplaceAll(u.Path, u.Token, RedactToken(u.Token))
	}
	return json.Marshal(out)
}

// RedactToken keeps the first few characters of tok and masks the rest.
func RedactToken(tok string) string {
	if len(tok) <= redactKeep {
		return strings.Repeat("*", len(tok))
	}
	return tok[:redactKeep] + strings.Repeat("*", len(tok)-redactKeep)
}
