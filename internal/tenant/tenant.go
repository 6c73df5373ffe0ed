// Package tenant resolves which physical vector index and namespace a
// chatbot configuration maps to. Admin chatbots share one default index and
// are isolated by namespace only; user chatbots get their own index.
package tenant

import "strings"

// SharedKey is the namespace of the shared admin index.
const SharedKey = "default"

// IndexPrefix tags every per-tenant physical index name.
const IndexPrefix = "chatbot-"

// Tenant is a resolved tenant identity: either the shared admin tenant or an
// isolated per-config tenant. Resolve once at the entry point and pass the
// value down instead of re-deriving it per component.
type Tenant struct {
	id       string
	isolated bool
}

// Shared returns the shared admin tenant.
func Shared() Tenant {
	return Tenant{}
}

// Isolated returns the tenant owning its own physical index.
func Isolated(id string) Tenant {
	return Tenant{id: id, isolated: true}
}

// Resolve maps an inbound tenant key to a Tenant. An empty key or the
// literal "default" means the shared admin tenant.
func Resolve(key string) Tenant {
	if key == "" || key == SharedKey {
		return Shared()
	}
	return Isolated(key)
}

// Key returns the tenant key, "default" for the shared tenant.
func (t Tenant) Key() string {
	if !t.isolated {
		return SharedKey
	}
	return t.id
}

// Isolated reports whether the tenant owns its own physical index.
func (t Tenant) Isolated() bool {
	return t.isolated
}

// Namespace returns the logical namespace inside the physical index.
// It always equals the tenant key.
func (t Tenant) Namespace() string {
	return t.Key()
}

// IndexName derives the physical index name. The shared tenant maps to the
// configured default index; isolated tenants get a normalized, prefixed name.
// The projection is deterministic so every component resolves the same name.
func (t Tenant) IndexName(defaultIndex string) string {
	if !t.isolated {
		return defaultIndex
	}
	return IndexPrefix + normalize(t.id)
}

// normalize lowercases the id and collapses anything outside [a-z0-9-]
// into hyphens, matching the index backend's naming constraints.
func normalize(id string) string {
	var b strings.Builder
	b.Grow(len(id))
	for _, r := range strings.ToLower(id) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '-' {
			b.WriteRune(r)
		} else {
			b.WriteByte('-')
		}
	}
	return b.String()
}
