package sasl

import "sync"

// maxMechanismNameLen is the registry's cap on mechanism name length.
const maxMechanismNameLen = 20

// Registry holds the set of mechanisms an application has registered,
// partitioned into client-capable and server-capable sequences in
// insertion order. It is written only during registration;
// once mechanisms stop being added, reads ([Registry.StartClient],
// [Registry.StartServer], [Registry.ClientMechanisms],
// [Registry.ServerMechanisms]) are safe to call concurrently from multiple
// goroutines without further synchronization on the caller's part: the
// registry is immutable once setup finishes.
type Registry struct {
	mu     sync.RWMutex
	client []*Mechanism
	server []*Mechanism
}

// NewRegistry returns an empty mechanism registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// validMechanismName reports whether name uses only the permitted SASL
// mechanism alphabet (A-Z 0-9 - _) and is within the length cap.
func validMechanismName(name string) bool {
	if name == "" || len(name) > maxMechanismNameLen {
		return false
	}
	for _, r := range name {
		switch {
		case r >= 'A' && r <= 'Z':
		case r >= '0' && r <= '9':
		case r == '-' || r == '_':
		default:
			return false
		}
	}
	return true
}

// Register adds a mechanism to the registry. It is appended to the
// client-capable sequence if Client is non-nil, and to the server-capable
// sequence if Server is non-nil, preserving registration order. Register is
// not safe to call concurrently with itself or with the Start*/Mechanisms
// methods; registration is expected to happen once, up front, at process
// or test setup.
func (r *Registry) Register(m *Mechanism) error {
	if !validMechanismName(m.Name) {
		return newErr(CodeUnknownMechanism, "invalid mechanism name %q", m.Name)
	}
	if m.Client == nil && m.Server == nil {
		return newErr(CodeNoClientCode, "mechanism %q registers neither a client nor a server side", m.Name)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if m.Client != nil {
		if m.Client.Init != nil {
			if err := m.Client.Init(r); err != nil {
				return err
			}
		}
		r.client = append(r.client, m)
	}
	if m.Server != nil {
		if m.Server.Init != nil {
			if err := m.Server.Init(r); err != nil {
				return err
			}
		}
		r.server = append(r.server, m)
	}
	return nil
}

// ClientMechanisms returns the names of registered client-capable
// mechanisms, in registration order.
func (r *Registry) ClientMechanisms() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, len(r.client))
	for i, m := range r.client {
		names[i] = m.Name
	}
	return names
}

// ServerMechanisms returns the names of registered server-capable
// mechanisms, in registration order.
func (r *Registry) ServerMechanisms() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, len(r.server))
	for i, m := range r.server {
		names[i] = m.Name
	}
	return names
}

func findMechanism(list []*Mechanism, name string) *Mechanism {
	for _, m := range list {
		if m.Name == name {
			return m
		}
	}
	return nil
}

// StartClient looks up name (case-sensitive, exact match) among
// client-capable mechanisms and returns a fresh client [Session] bound to
// it. If the mechanism's Start returns an error, the session is discarded
// before the error is returned.
func (r *Registry) StartClient(name string) (*Session, error) {
	r.mu.RLock()
	m := findMechanism(r.client, name)
	r.mu.RUnlock()
	if m == nil {
		r.mu.RLock()
		serverOnly := findMechanism(r.server, name)
		r.mu.RUnlock()
		if serverOnly != nil {
			return newSession(r, RoleClient, serverOnly, serverOnly.Client)
		}
		return nil, newErr(CodeUnknownMechanism, "%q is not a registered client mechanism", name)
	}
	return newSession(r, RoleClient, m, m.Client)
}

// StartServer looks up name among server-capable mechanisms and returns a
// fresh server [Session] bound to it.
func (r *Registry) StartServer(name string) (*Session, error) {
	r.mu.RLock()
	m := findMechanism(r.server, name)
	r.mu.RUnlock()
	if m == nil {
		return nil, newErr(CodeUnknownMechanism, "%q is not a registered server mechanism", name)
	}
	return newSession(r, RoleServer, m, m.Server)
}
