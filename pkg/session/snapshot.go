package session

// Snapshot is a consistent view of the session at one point in time.
type Snapshot struct {
	Phase         Phase
	Identity      *Identity // copy; nil unless authenticated
	HasCredential bool
}

// ResolutionState maps the phase to PENDING, RESOLVED or ABSENT.
func (s Snapshot) ResolutionState() ResolutionState { return s.Phase.Resolution() }

// IsAuthenticated reports whether the snapshot holds an identity.
func (s Snapshot) IsAuthenticated() bool { return s.Identity != nil }

// IsAdmin reports whether the identity has the ADMIN role.
func (s Snapshot) IsAdmin() bool { return s.Identity != nil && s.Identity.IsAdmin() }
