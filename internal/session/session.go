// Package session holds the per-login shared context: the signed-in user
// and the set of users they follow. The session is created once at startup
// and injected into every component that reads or publishes follow state;
// nothing reaches for it as ambient global state.
package session

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"

	"github.com/nhle/pulse/internal/logging"
)

// MembershipChange is a tea.Msg announcing that the signed-in user's
// follow set changed. Every view displaying a follow state for the subject
// re-derives from the session without re-fetching.
type MembershipChange struct {
	Subject   string
	Following bool
}

// Session is the shared client context for one signed-in user.
// It owns the in-memory follow membership set; persistence of the set
// belongs to the server.
//
// Reads and writes happen on the event loop; change notifications are
// delivered back to the same loop as messages via Wait.
type Session struct {
	// Username is the signed-in user's handle.
	Username string

	following map[string]bool
	changes   chan MembershipChange
	log       zerolog.Logger
}

// New creates a session for username, seeded with the handles the user
// already follows.
func New(username string, following []string) *Session {
	set := make(map[string]bool, len(following))
	for _, f := range following {
		set[f] = true
	}
	return &Session{
		Username:  username,
		following: set,
		changes:   make(chan MembershipChange, 16),
		log:       logging.Component("session"),
	}
}

// Following reports whether the signed-in user follows subject.
func (s *Session) Following(subject string) bool {
	return s.following[subject]
}

// SetFollowing updates the membership set and, if the value changed,
// announces it to listeners.
func (s *Session) SetFollowing(subject string, following bool) {
	if s.following[subject] == following {
		return
	}
	if following {
		s.following[subject] = true
	} else {
		delete(s.following, subject)
	}

	s.log.Debug().Str("subject", subject).Bool("following", following).Msg("membership changed")

	select {
	case s.changes <- MembershipChange{Subject: subject, Following: following}:
	default:
		// Drop if the channel is full to avoid blocking the loop.
	}
}

// FollowingCount returns the size of the membership set.
func (s *Session) FollowingCount() int {
	return len(s.following)
}

// Wait returns a tea.Cmd that delivers the next membership change.
// Call it again after handling each MembershipChange to keep listening.
func (s *Session) Wait() tea.Cmd {
	return func() tea.Msg {
		change, ok := <-s.changes
		if !ok {
			return nil
		}
		return change
	}
}

// Close releases the change channel.
func (s *Session) Close() {
	close(s.changes)
}
