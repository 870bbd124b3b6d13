package session

import "sync"

// MemoryStore implements Store with in-memory state. Tool calls arrive one
// at a time over stdio, but viewer bridge goroutines read the access token
// concurrently, so access is guarded by a read-write mutex.
type MemoryStore struct {
	mu       sync.RWMutex
	tokens   Tokens
	verifier string
	model    ModelContext
	loaded   bool
}

// NewMemoryStore creates an empty in-memory session store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// SetTokens stores the token pair from a completed authentication.
func (s *MemoryStore) SetTokens(t Tokens) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.tokens = t
}

// AccessToken returns the current access token, if any.
func (s *MemoryStore) AccessToken() (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.tokens.AccessToken, s.tokens.AccessToken != ""
}

// SetVerifier records the PKCE verifier for an in-flight login attempt.
func (s *MemoryStore) SetVerifier(v string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.verifier = v
}

// Verifier returns the PKCE verifier of the in-flight login attempt.
func (s *MemoryStore) Verifier() string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.verifier
}

// SetModelContext replaces the selected model wholesale.
func (s *MemoryStore) SetModelContext(mc ModelContext) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.model = mc
	s.loaded = true
}

// ModelContext returns the selected model, or ErrNoModelLoaded when no
// model has been rendered yet.
func (s *MemoryStore) ModelContext() (ModelContext, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.loaded {
		return ModelContext{}, ErrNoModelLoaded
	}
	return s.model, nil
}

// Verify interface compliance.
var _ Store = (*MemoryStore)(nil)
