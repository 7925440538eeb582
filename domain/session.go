package domain

import (
	"encoding/json"
	"errors"
	"time"
)

// ErrSessionNotFound is returned when a session row does not exist.
var ErrSessionNotFound = errors.New("session not found")

// Session is an established admin login. Bearer holds the provider access
// token and is write-only from the API surface: it is excluded from every
// JSON response. Sessions are created once per successful callback and never
// updated; expiry is enforced only by the session token's validity window.
type Session struct {
	ID              int64           `db:"id"               json:"id"`
	IP              string          `db:"ip"               json:"ip"`
	Bearer          string          `db:"bearer"           json:"-"`
	AccountUserID   string          `db:"account_userid"   json:"account_userid"`
	AccountUsername string          `db:"account_username" json:"account_username"`
	CreatedAt       time.Time       `db:"created_at"       json:"created_at"`
	Data            json.RawMessage `db:"data"             json:"data,omitempty"`
}
