package digestmd5

import sasl "github.com/dequbed/rsasl-sub002"

// Name is the SASL mechanism name this package registers, "DIGEST-MD5"
// (RFC 2831).
const Name = "DIGEST-MD5"

// Mechanism returns a *sasl.Mechanism wired with both the client and
// server function sets, ready for [sasl.Registry.Register].
func Mechanism() *sasl.Mechanism {
	return &sasl.Mechanism{
		Name: Name,
		Client: &sasl.FuncSet{
			Start:  clientStart,
			Step:   clientStep,
			Finish: clientFinish,
			Encode: clientEncode,
			Decode: clientDecode,
		},
		Server: &sasl.FuncSet{
			Start:  serverStart,
			Step:   serverStep,
			Finish: serverFinish,
			Encode: serverEncode,
			Decode: serverDecode,
		},
	}
}

// RegisterClient registers only the client side of DIGEST-MD5 into r.
func RegisterClient(r *sasl.Registry) error {
	m := Mechanism()
	m.Server = nil
	return r.Register(m)
}

// RegisterServer registers only the server side of DIGEST-MD5 into r.
func RegisterServer(r *sasl.Registry) error {
	m := Mechanism()
	m.Client = nil
	return r.Register(m)
}

// Register registers both sides of DIGEST-MD5 into r.
func Register(r *sasl.Registry) error {
	return r.Register(Mechanism())
}
