package motion

import (
	"sort"
	"sync"
)

// Registry is the process-wide uuid -> *Motor map, with insertion-order
// iteration and uniqueness enforcement for uuid, short_name, and
// friendly_name. Modeled on the teacher's node.Registry: a mutex-guarded
// map plus an order slice, never a language-level global (spec §9) — a
// Registry is constructed and injected explicitly by cmd/stepperd and by
// tests.
type Registry struct {
	mu           sync.RWMutex
	byUUID       map[string]*Motor
	shortNames   map[string]string // short_name -> uuid
	friendlyNames map[string]string // friendly_name -> uuid
	order        []string          // uuids in insertion order
}

// NewRegistry creates an empty motor registry.
func NewRegistry() *Registry {
	return &Registry{
		byUUID:        make(map[string]*Motor),
		shortNames:    make(map[string]string),
		friendlyNames: make(map[string]string),
	}
}

// Register adds a motor to the registry, rejecting uuid/short_name/
// friendly_name collisions without side effects (spec invariant 5).
// Starts the motor's control loop goroutine on success.
func (r *Registry) Register(m *Motor) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	uuid := m.descriptor.UUID
	short := m.descriptor.ShortName
	friendly := m.descriptor.FriendlyName

	if _, exists := r.byUUID[uuid]; exists {
		return &RegistrationError{Field: "uuid", Value: uuid}
	}
	if _, exists := r.shortNames[short]; exists {
		return &RegistrationError{Field: "short_name", Value: short}
	}
	if _, exists := r.friendlyNames[friendly]; exists {
		return &RegistrationError{Field: "friendly_name", Value: friendly}
	}

	r.byUUID[uuid] = m
	r.shortNames[short] = uuid
	r.friendlyNames[friendly] = uuid
	r.order = append(r.order, uuid)

	m.start()
	return nil
}

// Get retrieves a motor by uuid.
func (r *Registry) Get(uuid string) (*Motor, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	m, ok := r.byUUID[uuid]
	return m, ok
}

// List returns every registered motor in insertion order.
func (r *Registry) List() []*Motor {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Motor, 0, len(r.order))
	for _, uuid := range r.order {
		out = append(out, r.byUUID[uuid])
	}
	return out
}

// SortedByUUID returns every registered motor ordered by ascending uuid
// (string comparison), matching spec §6's instantiation order.
func (r *Registry) SortedByUUID() []*Motor {
	r.mu.RLock()
	uuids := make([]string, 0, len(r.byUUID))
	for uuid := range r.byUUID {
		uuids = append(uuids, uuid)
	}
	r.mu.RUnlock()

	sort.Strings(uuids)

	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Motor, 0, len(uuids))
	for _, uuid := range uuids {
		out = append(out, r.byUUID[uuid])
	}
	return out
}

// Count returns the number of registered motors.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.order)
}

// Shutdown stops every motor's control loop, waiting up to grace for each
// to exit before logging a ShutdownTimeout and moving on (spec §5).
func (r *Registry) Shutdown() {
	for _, m := range r.List() {
		m.shutdown()
	}
}
