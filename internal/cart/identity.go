package cart

import (
	"strings"

	"github.com/google/uuid"
)

// Identity names the single owner of a cart: either an anonymous browser
// session or an authenticated user, never both. The zero value is invalid.
type Identity struct {
	sessionID string
	userID    uuid.UUID
}

// Anonymous builds the identity for a guest session.
func Anonymous(sessionID string) Identity {
	return Identity{sessionID: strings.TrimSpace(sessionID)}
}

// Owned builds the identity for an authenticated user.
func Owned(userID uuid.UUID) Identity {
	return Identity{userID: userID}
}

// IsAnonymous reports whether the identity is session-scoped.
func (i Identity) IsAnonymous() bool {
	return i.sessionID != ""
}

// SessionID returns the guest session id when the identity is anonymous.
func (i Identity) SessionID() (string, bool) {
	if i.sessionID == "" {
		return "", false
	}
	return i.sessionID, true
}

// UserID returns the user id when the identity is owned.
func (i Identity) UserID() (uuid.UUID, bool) {
	if i.sessionID != "" || i.userID == uuid.Nil {
		return uuid.Nil, false
	}
	return i.userID, true
}

// Valid reports whether exactly one owner is present.
func (i Identity) Valid() bool {
	return (i.sessionID != "") != (i.userID != uuid.Nil)
}
