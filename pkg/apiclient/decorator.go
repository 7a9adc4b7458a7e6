package apiclient

import (
	"net/http"

	"github.com/google/uuid"
)

// Decorator mutates an outbound request before it is sent.
type Decorator func(*http.Request) error

// HeaderAuthorization is the header set by BearerToken.
const HeaderAuthorization = "Authorization"

// BearerToken attaches "Authorization: Bearer <token>" using the value returned
// by source at send time. An empty token removes the header.
func BearerToken(source func() string) Decorator {
	return func(r *http.Request) error {
		token := source()
		if token == "" {
			r.Header.Del(HeaderAuthorization)
			return nil
		}
		r.Header.Set(HeaderAuthorization, "Bearer "+token)
		return nil
	}
}

// StaticBearer attaches a fixed token.
func StaticBearer(token string) Decorator {
	return BearerToken(func() string { return token })
}

// RequestID sets X-Request-ID from the request context or a new UUID.
func RequestID() Decorator {
	return func(r *http.Request) error {
		id := RequestIDFromContext(r.Context())
		if id == "" {
			id = uuid.NewString()
		}
		r.Header.Set(HeaderRequestID, id)
		return nil
	}
}

// Header sets a fixed header.
func Header(key, value string) Decorator {
	return func(r *http.Request) error {
		r.Header.Set(key, value)
		return nil
	}
}
