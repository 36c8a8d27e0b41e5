package backend

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"sync"

	"github.com/mwantia/navigator/data"
)

// Factory creates a fresh, not yet connected connection for location.
type Factory func(ctx context.Context, location string) (Connection, error)

// Matcher decides whether a location belongs to a backend when a plain
// prefix is not expressive enough.
type Matcher func(location string) bool

type prefixEntry struct {
	prefix string
	kind   Kind
}

type matcherEntry struct {
	matcher Matcher
	kind    Kind
}

// Registry resolves locations to backend kinds and instantiates connections.
type Registry struct {
	mu        sync.RWMutex
	factories map[Kind]Factory
	prefixes  []prefixEntry
	matchers  []matcherEntry
}

func NewRegistry() *Registry {
	return &Registry{
		factories: make(map[Kind]Factory),
	}
}

// Register adds a backend kind reachable through the given location prefixes.
func (r *Registry) Register(kind Kind, factory Factory, prefixes ...string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.factories[kind]; exists {
		return fmt.Errorf("failed to register backend '%s': %w", kind, data.ErrAlreadyRegistered)
	}

	r.factories[kind] = factory
	for _, prefix := range prefixes {
		r.prefixes = append(r.prefixes, prefixEntry{
			prefix: strings.ToLower(prefix),
			kind:   kind,
		})
	}

	// Longest prefix first
	sort.SliceStable(r.prefixes, func(i, j int) bool {
		return len(r.prefixes[i].prefix) > len(r.prefixes[j].prefix)
	})

	return nil
}

// RegisterMatcher adds a fallback matcher consulted after all prefixes.
func (r *Registry) RegisterMatcher(kind Kind, matcher Matcher) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.matchers = append(r.matchers, matcherEntry{
		matcher: matcher,
		kind:    kind,
	})
}

// Resolve returns the kind responsible for location. It never fails;
// unknown locations report false.
func (r *Registry) Resolve(location string) (Kind, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	location = strings.TrimSpace(location)
	if location == "" {
		return "", false
	}

	lower := strings.ToLower(location)
	for _, entry := range r.prefixes {
		if strings.HasPrefix(lower, entry.prefix) {
			return entry.kind, true
		}
	}

	for _, entry := range r.matchers {
		if entry.matcher(location) {
			return entry.kind, true
		}
	}

	return "", false
}

// Instantiate always creates a new connection; connections are never pooled.
func (r *Registry) Instantiate(ctx context.Context, kind Kind, location string) (Connection, error) {
	r.mu.RLock()
	factory, exists := r.factories[kind]
	r.mu.RUnlock()

	if !exists {
		return nil, fmt.Errorf("failed to instantiate backend '%s': %w", kind, data.ErrUnknownBackend)
	}

	return factory(ctx, location)
}

// Kinds lists every registered kind.
func (r *Registry) Kinds() []Kind {
	r.mu.RLock()
	defer r.mu.RUnlock()

	kinds := make([]Kind, 0, len(r.factories))
	for kind := range r.factories {
		kinds = append(kinds, kind)
	}
	sort.Slice(kinds, func(i, j int) bool {
		return kinds[i] < kinds[j]
	})

	return kinds
}

var drivePattern = regexp.MustCompile(`^[A-Za-z]:([\\/]|$)`)

// IsLocalPath matches locations the host OS understands directly.
func IsLocalPath(location string) bool {
	switch {
	case strings.HasPrefix(location, "/"),
		strings.HasPrefix(location, "~"),
		strings.HasPrefix(location, `\\`),
		strings.HasPrefix(strings.ToLower(location), "file://"):
		return true
	}

	return drivePattern.MatchString(location)
}
