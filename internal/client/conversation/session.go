package conversation

import (
	"errors"
	"fmt"
)

// ErrSessionConflict is returned when the backend reports a session id
// different from the one already adopted.
var ErrSessionConflict = errors.New("session id already assigned")

// sessionState is the client half of the session lifecycle. The only
// transition is unassigned -> assigned.
type sessionState struct {
	id       string
	assigned bool
}

// adopt records id as the session of this conversation. Empty ids and
// repeats of the current id are no-ops.
func (s *sessionState) adopt(id string) error {
	if id == "" {
		return nil
	}
	if !s.assigned {
		s.id = id
		s.assigned = true
		return nil
	}
	if s.id != id {
		return fmt.Errorf("%w: keeping %s, got %s", ErrSessionConflict, s.id, id)
	}
	return nil
}
