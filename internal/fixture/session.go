package fixture

import (
	"net/http"
	"sync"

	"github.com/google/uuid"
)

const sessionCookie = "stagecheck_session"

type session struct {
	selected  int
	answers   map[string][]string
	confirmed bool
}

// store keeps wizard sessions in memory, keyed by the session cookie.
type store struct {
	mu       sync.Mutex
	sessions map[uuid.UUID]*session
}

func newStore() *store {
	return &store{sessions: make(map[uuid.UUID]*session)}
}

// with runs fn on the request's session, creating the session and setting
// its cookie when the request has none.
func (s *store) with(w http.ResponseWriter, r *http.Request, fn func(*session)) {
	id, ok := sessionID(r)

	s.mu.Lock()
	defer s.mu.Unlock()
	sess, found := s.sessions[id]
	if !ok || !found {
		id = uuid.New()
		sess = &session{selected: -1, answers: make(map[string][]string)}
		s.sessions[id] = sess
		http.SetCookie(w, &http.Cookie{Name: sessionCookie, Value: id.String(), Path: "/", HttpOnly: true, SameSite: http.SameSiteLaxMode})
	}
	fn(sess)
}

func sessionID(r *http.Request) (uuid.UUID, bool) {
	c, err := r.Cookie(sessionCookie)
	if err != nil {
		return uuid.Nil, false
	}
	id, err := uuid.Parse(c.Value)
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}
