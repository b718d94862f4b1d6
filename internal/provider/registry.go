package provider

// Registry holds the configured adapters in declaration order. Declaration
// order is the ranking tie-breaker and the default attempt order before any
// health data exists.
type Registry struct {
	adapters []Adapter
}

// NewRegistry keeps only configured adapters. With zero credentials
// configured the caller is expected to pass the mock adapter so the
// orchestrator is always exercisable.
func NewRegistry(adapters ...Adapter) *Registry {
	r := &Registry{}
	for _, a := range adapters {
		if a.Configured() {
			r.adapters = append(r.adapters, a)
		}
	}
	return r
}

// Adapters returns the configured adapters in declaration order.
func (r *Registry) Adapters() []Adapter {
	return r.adapters
}

// Names returns the configured provider ids in declaration order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.adapters))
	for _, a := range r.adapters {
		names = append(names, a.Name())
	}
	return names
}

// Get looks an adapter up by provider id.
func (r *Registry) Get(name string) (Adapter, bool) {
	for _, a := range r.adapters {
		if a.Name() == name {
			return a, true
		}
	}
	return nil, false
}

// Empty reports whether no adapter is configured.
func (r *Registry) Empty() bool {
	return len(r.adapters) == 0
}
