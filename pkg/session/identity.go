package session

import (
	"encoding/json"
	"strings"

	"github.com/dmitrymomot/libraryclient/pkg/apiclient"
)

// Role is the user's server-side role.
type Role string

const (
	RoleUser  Role = "USER"
	RoleAdmin Role = "ADMIN"
)

func (r Role) String() string { return string(r) }

// Valid reports whether r is a known role.
func (r Role) Valid() bool { return r == RoleUser || r == RoleAdmin }

func (r *Role) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	*r = ParseRole(s)
	return nil
}

// ParseRole normalizes a role name; "admin" and "ROLE_ADMIN" both map to RoleAdmin.
func ParseRole(s string) Role {
	s = strings.ToUpper(strings.TrimSpace(s))
	s = strings.TrimPrefix(s, "ROLE_")
	return Role(s)
}

// Identity is the authenticated user as reported by the server.
type Identity struct {
	ID        apiclient.ID   `json:"id"`
	Name      string         `json:"name"`
	Email     string         `json:"email"`
	Role      Role           `json:"role"`
	CreatedAt apiclient.Time `json:"createdAt"`
}

// IsAdmin reports whether the identity carries the ADMIN role.
func (i Identity) IsAdmin() bool { return i.Role == RoleAdmin }

func (i Identity) valid() bool { return !i.ID.IsZero() || i.Email != "" }
