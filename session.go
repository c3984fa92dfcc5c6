package sasl

// Role distinguishes whether a [Session] drives the client or the server
// side of a mechanism's state machine.
type Role int

const (
	RoleClient Role = iota
	RoleServer
)

func (r Role) String() string {
	if r == RoleClient {
		return "client"
	}
	return "server"
}

// Session is the session state machine: a reference to the shared
// registry, a role, the selected mechanism's function set, an opaque
// per-mechanism state handle, and a property bag. It is created by
// [Registry.StartClient]/[Registry.StartServer], mutated only by
// [Session.Step]/[Session.Encode]/[Session.Decode], and destroyed by
// [Session.Finish].
//
// A Session is not safe for concurrent use from multiple goroutines: it is
// single-threaded per session, though independent sessions on the same
// Registry may run in parallel.
type Session struct {
	registry *Registry
	role     Role
	mech     *Mechanism
	funcs    *FuncSet

	// state is the mechanism's opaque per-session handle: a plain
	// interface{} that only the owning mechanism package ever type-asserts
	// (it is the same package that populated it in Start), so there is no
	// unchecked cast anywhere in the dispatch path. It stands in for a
	// hand-rolled tagged-union type, since Go lacks sum types natively.
	state any

	cb        Callback
	props     *propertyBag
	reentrant int

	step      int
	completed bool
	finished  bool
}

func newSession(r *Registry, role Role, m *Mechanism, funcs *FuncSet) (*Session, error) {
	if funcs == nil {
		if role == RoleClient {
			return nil, newErr(CodeNoClientCode, "mechanism %q has no client side", m.Name)
		}
		return nil, newErr(CodeNoServerCode, "mechanism %q has no server side", m.Name)
	}
	s := &Session{
		registry: r,
		role:     role,
		mech:     m,
		funcs:    funcs,
		props:    newPropertyBag(),
	}
	if funcs.Start != nil {
		if err := funcs.Start(s); err != nil {
			s.Finish()
			return nil, err
		}
	}
	return s, nil
}

// Mechanism returns the name of the mechanism this session is driving.
func (s *Session) Mechanism() string { return s.mech.Name }

// Role reports whether this session drives the client or server side.
func (s *Session) Role() Role { return s.role }

// SetCallback installs the property callback invoked by [Session.Get] when
// a requested property is unset.
func (s *Session) SetCallback(cb Callback) { s.cb = cb }

// State returns the mechanism's stashed per-session handle, for use by the
// mechanism package that set it.
func (s *Session) State() any { return s.state }

// SetState stores the mechanism's per-session handle. Only a mechanism's
// own Start/Step/Finish functions should call this.
func (s *Session) SetState(v any) { s.state = v }

// Set copies value and stores it under key, replacing (and releasing) any
// prior value.
func (s *Session) Set(key Property, value []byte) { s.props.set(key, value) }

// SetString is a convenience wrapper around Set for textual properties.
func (s *Session) SetString(key Property, value string) { s.props.set(key, []byte(value)) }

// GetFast returns a property's value without invoking the callback.
func (s *Session) GetFast(key Property) ([]byte, bool) { return s.props.get(key) }

// Get returns a property's value, invoking the installed callback once if
// the key is unset and a callback is installed. If the callback is invoked
// and still does not produce a value, or no callback is installed, Get
// returns a key-specific *Error (see [noValueCode]); an error returned by
// the callback itself is passed through unchanged. The callback may call
// Set on this session. A Get made from inside the callback is refused with
// [CodeNoCallback] by a re-entrancy guard; Step, Encode and Decode do not
// check whether they are called from inside the callback.
func (s *Session) Get(key Property) ([]byte, error) {
	if v, ok := s.props.get(key); ok {
		return v, nil
	}
	if s.cb == nil {
		return nil, newErr(noValueCode(key), "no value for %s and no callback installed", key)
	}
	if s.reentrant > 0 {
		return nil, newErr(CodeNoCallback, "callback attempted to re-enter property lookup for %s", key)
	}
	s.reentrant++
	err := s.cb(s, key)
	s.reentrant--
	if err != nil {
		return nil, err
	}
	v, ok := s.props.get(key)
	if !ok {
		return nil, newErr(noValueCode(key), "callback did not set %s", key)
	}
	return v, nil
}

// GetString is a convenience wrapper around Get.
func (s *Session) GetString(key Property) (string, error) {
	v, err := s.Get(key)
	if err != nil {
		return "", err
	}
	return string(v), nil
}

// Step forwards input to the mechanism's Step function and classifies the
// result: [StatusOK] means authentication completed this round (any output
// is the final token to transmit); [StatusNeedsMore] means another round is
// required and output must be transmitted; any error is fatal, and the
// session must not be stepped again.
func (s *Session) Step(input []byte) ([]byte, Status, error) {
	if s.finished {
		return nil, 0, newErr(CodeMechanismCalledTooManyTimes, "session already finished")
	}
	if s.completed {
		return nil, 0, newErr(CodeMechanismCalledTooManyTimes, "step called after completion")
	}
	s.step++
	out, status, err := s.funcs.Step(s, input)
	if err != nil {
		s.completed = true
		return nil, 0, err
	}
	if status == StatusOK {
		s.completed = true
	}
	return out, status, nil
}

// Encode applies the post-authentication framing codec to plaintext. It is
// only meaningful once Step has returned StatusOK; mechanisms that never
// install a codec pass plaintext through unchanged.
func (s *Session) Encode(plaintext []byte) ([]byte, error) {
	if !s.completed {
		return nil, newErr(CodeAuthenticationError, "Encode called before authentication completed")
	}
	if s.funcs.Encode == nil {
		return identityCodec(s, plaintext)
	}
	return s.funcs.Encode(s, plaintext)
}

// Decode reverses Encode. A [CodeIntegrityError] reports a corrupted or
// forged frame; a short/incomplete frame surfaces as [CodeNeedsMore] via
// an *Error so the caller knows to wait for more bytes and retry.
func (s *Session) Decode(ciphertext []byte) ([]byte, error) {
	if !s.completed {
		return nil, newErr(CodeAuthenticationError, "Decode called before authentication completed")
	}
	if s.funcs.Decode == nil {
		return identityCodec(s, ciphertext)
	}
	return s.funcs.Decode(s, ciphertext)
}

// Finish releases the session's mechanism state. It is always safe to call,
// including more than once or on a session that never completed.
func (s *Session) Finish() {
	if s.finished {
		return
	}
	if s.funcs != nil && s.funcs.Finish != nil {
		s.funcs.Finish(s)
	}
	s.state = nil
	s.finished = true
}
