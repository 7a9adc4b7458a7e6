package guard

import (
	"fmt"
	"reflect"
	"strings"
)

// Capability is the minimum session a route requires.
type Capability int

const (
	None Capability = iota
	Authenticated
	Admin
)

func (c Capability) String() string {
	switch c {
	case None:
		return "none"
	case Authenticated:
		return "authenticated"
	case Admin:
		return "admin"
	default:
		return fmt.Sprintf("capability(%d)", int(c))
	}
}

// ParseCapability reads a capability name.
func ParseCapability(s string) (Capability, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "none", "public":
		return None, nil
	case "authenticated", "user":
		return Authenticated, nil
	case "admin":
		return Admin, nil
	default:
		return None, fmt.Errorf("%w: %q", ErrUnknownCapability, s)
	}
}

// Default redirect targets.
const (
	LoginPath = "/login"
	HomePath  = "/"
)

// Viewer exposes the session flags the guard needs.
type Viewer interface {
	IsAuthenticated() bool
	IsAdmin() bool
}

// Decision is the outcome of a guard check.
type Decision struct {
	Allow    bool
	Redirect string // set when Allow is false
	Err      error  // ErrLoginRequired or ErrForbidden when Allow is false
}

// Decide evaluates capability c for v. A nil viewer, including a nil pointer
// held in the interface, is anonymous.
func Decide(c Capability, v Viewer) Decision {
	if isNil(v) {
		v = nil
	}
	authenticated := v != nil && v.IsAuthenticated()
	switch c {
	case None:
		return Decision{Allow: true}
	case Authenticated:
		if authenticated {
			return Decision{Allow: true}
		}
		return Decision{Redirect: LoginPath, Err: ErrLoginRequired}
	default:
		if !authenticated {
			return Decision{Redirect: LoginPath, Err: ErrLoginRequired}
		}
		if v.IsAdmin() {
			return Decision{Allow: true}
		}
		return Decision{Redirect: HomePath, Err: ErrForbidden}
	}
}

func isNil(v Viewer) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Interface, reflect.Map, reflect.Func, reflect.Slice, reflect.Chan:
		return rv.IsNil()
	}
	return false
}

// Check returns nil when v may use capability c.
func Check(c Capability, v Viewer) error {
	return Decide(c, v).Err
}
