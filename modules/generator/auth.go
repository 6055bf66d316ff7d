package generator

import (
	"net/http"

	"github.com/google/uuid"
)

// UserIDHeader carries the authenticated user's ID, set by the identity
// proxy in front of the service. Auth itself is delegated; the service
// trusts this header.
const UserIDHeader = "X-User-Id"

// requestUserID extracts the authenticated user, uuid.Nil when absent
// or malformed. Anonymous requests are legal here: the usage tracker
// degrades them and Track rejects with ErrNotAuthenticated.
func requestUserID(r *http.Request) uuid.UUID {
	id, err := uuid.Parse(r.Header.Get(UserIDHeader))
	if err != nil {
		return uuid.Nil
	}
	return id
}
