package view

import (
	"encoding/gob"

	"github.com/google/uuid"
	"github.com/gorilla/sessions"

	"github.com/veranda-web/veranda/pkg/value"
)

// CSRFTokenKey is the default session key for the CSRF token. Templates
// emit it with @{csrf}; named tokens render as @{csrf_token.<name>}.
const CSRFTokenKey = "csrf_token"

func init() {
	// Session stores serialize values with gob; token entries are plain
	// maps and must be registered once.
	gob.Register(map[string]any{})
}

// SessionData converts a session into the SESSION render namespace.
// Non-string keys are skipped; gorilla allows them but templates cannot
// address them.
func SessionData(s *sessions.Session) value.Value {
	if s == nil {
		return value.Object(nil)
	}
	fields := make(map[string]value.Value, len(s.Values)+1)
	for k, v := range s.Values {
		key, ok := k.(string)
		if !ok {
			continue
		}
		fields[key] = value.From(v)
	}
	if s.ID != "" {
		fields["id"] = value.String(s.ID)
	}
	return value.Object(fields)
}

// NewCSRFToken generates a fresh token and stores it in the session under
// name, or under CSRFTokenKey when name is empty. The token is stored as a
// {token: ...} entry, the shape the template resolver reads. The caller is
// responsible for saving the session.
func NewCSRFToken(s *sessions.Session, name string) string {
	if name == "" {
		name = CSRFTokenKey
	}
	token := uuid.NewString()
	s.Values[name] = map[string]any{"token": token}
	return token
}

// CSRFToken returns the token stored under name, or "" when absent.
func CSRFToken(s *sessions.Session, name string) string {
	if s == nil {
		return ""
	}
	if name == "" {
		name = CSRFTokenKey
	}
	entry, ok := s.Values[name].(map[string]any)
	if !ok {
		return ""
	}
	token, _ := entry["token"].(string)
	return token
}

// ValidCSRFToken reports whether token matches the one stored under name.
func ValidCSRFToken(s *sessions.Session, name, token string) bool {
	return token != "" && CSRFToken(s, name) == token
}
