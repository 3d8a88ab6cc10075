package http

import (
	"encoding/json"
	"net/http"

	"quiz-attempt-service/internal/domain"
)

// sessionHeader carries the opaque credential issued at login:
// {"username": "...", "loginTime": "..."} as JSON. The service performs no
// authentication; the username simply becomes the user ID.
const sessionHeader = "X-Session"

func sessionFromRequest(r *http.Request) (domain.Session, error) {
	raw := r.Header.Get(sessionHeader)
	if raw == "" {
		return domain.Session{}, domain.ErrInvalidSession
	}

	var session domain.Session
	if err := json.Unmarshal([]byte(raw), &session); err != nil {
		return domain.Session{}, domain.ErrInvalidSession
	}
	if session.Username == "" {
		return domain.Session{}, domain.ErrInvalidSession
	}
	return session, nil
}
