package policy

import (
	"fmt"
	"sort"
)

// DefaultTargetID selects the Spotify desktop client.
const DefaultTargetID = "spotify"

// Registry holds the known target policies. Exactly one is monitored at a time.
type Registry struct {
	policies map[string]TargetPolicy
}

// NewRegistry creates a registry with all default policies.
func NewRegistry() *Registry {
	return NewRegistryWithPolicies(NewSpotifyPolicy())
}

// NewRegistryWithPolicies creates a registry with custom policies (for testing).
func NewRegistryWithPolicies(policies ...TargetPolicy) *Registry {
	r := &Registry{
		policies: make(map[string]TargetPolicy),
	}
	for _, p := range policies {
		r.Register(p)
	}
	return r
}

// Register adds a policy to the registry.
func (r *Registry) Register(p TargetPolicy) {
	r.policies[p.ID()] = p
}

// Get returns a policy by ID.
func (r *Registry) Get(id string) (TargetPolicy, error) {
	p, ok := r.policies[id]
	if !ok {
		return nil, fmt.Errorf("unknown target %q (known: %v)", id, r.List())
	}
	return p, nil
}

// List returns all policy IDs, sorted.
func (r *Registry) List() []string {
	ids := make([]string, 0, len(r.policies))
	for id := range r.policies {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
