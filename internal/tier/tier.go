// Package tier derives the caller's capability tier and gates actions on it.
//
// A tier is never persisted remotely. It is derived per client session from
// two inputs: whether a live authenticated session exists, and whether the
// local guest-mode flag is set. A live session always wins; the guest flag is
// never trusted once one exists.
package tier

// AccessTier is the caller's capability tier.
type AccessTier string

const (
	// Guest browses read-only without an account.
	Guest AccessTier = "guest"
	// Anonymous has neither a session nor the guest flag and must
	// authenticate or choose guest mode before anything else.
	Anonymous AccessTier = "anonymous"
	// Authenticated holds a live session and may perform all actions.
	Authenticated AccessTier = "authenticated"
)

// Resolve derives the access tier from session presence and the local guest
// flag. Pure function, no I/O.
//
//	session  guest  -> tier
//	true     any    -> Authenticated
//	false    true   -> Guest
//	false    false  -> Anonymous
func Resolve(sessionPresent, guestFlagSet bool) AccessTier {
	switch {
	case sessionPresent:
		return Authenticated
	case guestFlagSet:
		return Guest
	default:
		return Anonymous
	}
}

// Action is a capability-gated operation.
type Action string

// Actions consulted against the gate.
const (
	ActionViewFeed     Action = "view_feed"
	ActionViewProfile  Action = "view_profile"
	ActionViewComments Action = "view_comments"
	ActionLike         Action = "like"
	ActionComment      Action = "comment"
	ActionCreatePoem   Action = "create_poem"
	ActionEditProfile  Action = "edit_profile"
	ActionFollow       Action = "follow"
)

// Mutates reports whether the action writes through to the data layer.
func (a Action) Mutates() bool {
	switch a {
	case ActionLike, ActionComment, ActionCreatePoem, ActionEditProfile, ActionFollow:
		return true
	default:
		return false
	}
}

// Allowed is the capability gate: a pure predicate consulted by every
// mutating entry point before any network call. It approximates the
// persistence layer's own access rules for responsiveness, not security;
// ultimate authority stays with the data layer.
//
// Guest may read but never mutate. Anonymous may do nothing until it picks a
// tier. Authenticated may perform all actions.
func Allowed(t AccessTier, a Action) bool {
	switch t {
	case Authenticated:
		return true
	case Guest:
		return !a.Mutates()
	default:
		return false
	}
}
