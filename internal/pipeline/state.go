package pipeline

import "sync"

// State is the shared key/value bag a run accumulates as units complete.
// Parallel units write to it concurrently, so all access is locked.
type State struct {
	mu     sync.RWMutex
	values map[string]string
}

func NewState() *State {
	return &State{values: make(map[string]string)}
}

// Seed pre-populates the state before the run starts.
func (s *State) Seed(values map[string]string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for k, v := range values {
		s.values[k] = v
	}
}

func (s *State) Set(key, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = value
}

func (s *State) Get(key string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.values[key]
	return v, ok
}

// Snapshot returns a copy safe to hand to callers outside the run.
func (s *State) Snapshot() map[string]string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]string, len(s.values))
	for k, v := range s.values {
		out[k] = v
	}
	return out
}
