package auditware

// MemorySession is a map-backed Session for tests and hosts without a cookie
// session layer. Not safe for concurrent use; real deployments should resolve
// the framework's own request-scoped session instead.
type MemorySession struct {
	values map[string]any
}

var _ Session = (*MemorySession)(nil)

func NewMemorySession() *MemorySession {
	return &MemorySession{values: map[string]any{}}
}

func (s *MemorySession) Get(key string) (any, bool) {
	value, ok := s.values[key]
	return value, ok
}

func (s *MemorySession) Set(key string, value any) {
	s.values[key] = value
}

func (s *MemorySession) Delete(key string) {
	delete(s.values, key)
}
