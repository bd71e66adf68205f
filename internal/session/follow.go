package session

// FollowState derives the displayed "is following" boolean for one viewed
// subject. Precedence: an explicit server-authoritative flag for the
// subject when present, otherwise membership in the session's follow set.
type FollowState struct {
	session    *Session
	subject    string
	serverFlag *bool
}

// NewFollowState creates the follow derivation for subject.
func NewFollowState(s *Session, subject string) *FollowState {
	return &FollowState{session: s, subject: subject}
}

// Subject returns the subject this state derives for.
func (f *FollowState) Subject() string {
	return f.subject
}

// Following returns the derived display value.
func (f *FollowState) Following() bool {
	if f.serverFlag != nil {
		return *f.serverFlag
	}
	return f.session.Following(f.subject)
}

// Toggle optimistically flips the displayed value, publishes it to the
// shared membership set, and returns the new value. The caller issues the
// confirmation request; no rollback happens here, the next authoritative
// refresh settles any disagreement.
func (f *FollowState) Toggle() bool {
	next := !f.Following()
	// Membership now carries the optimistic value; the stale per-view
	// flag must not shadow it.
	f.serverFlag = nil
	f.session.SetFollowing(f.subject, next)
	return next
}

// SetAuthoritative records the server's answer for the subject. It wins
// over any locally derived value until the next Toggle.
func (f *FollowState) SetAuthoritative(following bool) {
	f.serverFlag = &following
}
