package apitest

import (
	"net/http"
	"sync"
)

type failure struct {
	status  int
	message string
	once    bool
}

type hooks struct {
	mu       sync.Mutex
	holds    map[string]chan struct{}
	failures map[string]failure
	calls    map[string]int
	arrived  map[string]chan struct{}
}

func newHooks() hooks {
	return hooks{
		holds:    make(map[string]chan struct{}),
		failures: make(map[string]failure),
		calls:    make(map[string]int),
		arrived:  make(map[string]chan struct{}),
	}
}

func routeKey(method, path string) string { return method + " " + path }

// Hold blocks requests to method and path until the returned release is
// called. Held requests also end when the client gives up.
func (s *Server) Hold(method, path string) (release func()) {
	h := &s.hooks
	h.mu.Lock()
	defer h.mu.Unlock()
	key := routeKey(method, path)
	ch := make(chan struct{})
	h.holds[key] = ch
	var once sync.Once
	return func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()
			if h.holds[key] == ch {
				delete(h.holds, key)
				close(ch)
			}
		})
	}
}

// Arrived returns a channel closed when the next request to method and path
// reaches the server.
func (s *Server) Arrived(method, path string) <-chan struct{} {
	h := &s.hooks
	h.mu.Lock()
	defer h.mu.Unlock()
	key := routeKey(method, path)
	ch, ok := h.arrived[key]
	if !ok {
		ch = make(chan struct{})
		h.arrived[key] = ch
	}
	return ch
}

// Fail answers every request to method and path with status and message.
func (s *Server) Fail(method, path string, status int, message string) {
	s.hooks.setFailure(routeKey(method, path), failure{status: status, message: message})
}

// FailOnce answers the next request to method and path with status and message.
func (s *Server) FailOnce(method, path string, status int, message string) {
	s.hooks.setFailure(routeKey(method, path), failure{status: status, message: message, once: true})
}

// Recover removes failures set for method and path.
func (s *Server) Recover(method, path string) {
	h := &s.hooks
	h.mu.Lock()
	delete(h.failures, routeKey(method, path))
	h.mu.Unlock()
}

// Calls returns how many requests to method and path were received.
func (s *Server) Calls(method, path string) int {
	h := &s.hooks
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.calls[routeKey(method, path)]
}

func (h *hooks) setFailure(key string, f failure) {
	h.mu.Lock()
	h.failures[key] = f
	h.mu.Unlock()
}

func (h *hooks) releaseAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for key, ch := range h.holds {
		close(ch)
		delete(h.holds, key)
	}
}

func (h *hooks) middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := routeKey(r.Method, r.URL.Path)

		h.mu.Lock()
		h.calls[key]++
		hold := h.holds[key]
		f, failing := h.failures[key]
		if failing && f.once {
			delete(h.failures, key)
		}
		if ch, ok := h.arrived[key]; ok {
			close(ch)
			delete(h.arrived, key)
		}
		h.mu.Unlock()

		if hold != nil {
			select {
			case <-hold:
			case <-r.Context().Done():
				return
			}
		}
		if failing {
			if f.message == "" {
				w.WriteHeader(f.status)
				return
			}
			writeMessage(w, f.status, f.message)
			return
		}
		next.ServeHTTP(w, r)
	})
}
