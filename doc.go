// Package sasl implements the core of a Simple Authentication and Security
// Layer (SASL) framework: a session state machine that drives a named
// authentication mechanism through a sequence of opaque token exchanges,
// plus the property bag and callback plumbing every mechanism is built on.
//
// The package itself knows nothing about any particular mechanism. Callers
// register mechanisms (see the [digestmd5] and [scram] packages for the two
// carried in full) against a [Registry], then drive a [Session]:
//
//	reg := sasl.NewRegistry()
//	digestmd5.RegisterClient(reg)
//	sess, err := reg.StartClient("DIGEST-MD5")
//	if err != nil {
//		// ...
//	}
//	sess.Set(sasl.PropAuthID, []byte("chris"))
//	sess.Set(sasl.PropPassword, []byte("secret"))
//	sess.Set(sasl.PropService, []byte("imap"))
//	sess.Set(sasl.PropHostname, []byte("elwood.innosoft.com"))
//
//	var in []byte
//	for {
//		out, status, err := sess.Step(in)
//		if err != nil {
//			// ...
//		}
//		// transmit out, receive the next token into in
//		if status == sasl.StatusOK {
//			break
//		}
//	}
//
// Session does no network I/O: the caller moves every token across its own
// transport. Once Step returns [StatusOK] the session may be used as a
// per-message framing codec via [Session.Encode] and [Session.Decode], if
// the negotiated mechanism and quality-of-protection support one.
package sasl
