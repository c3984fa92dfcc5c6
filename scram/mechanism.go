package scram

import sasl "github.com/dequbed/rsasl-sub002"

const (
	NameSHA1       = "SCRAM-SHA-1"
	NameSHA1PLUS   = "SCRAM-SHA-1-PLUS"
	NameSHA256     = "SCRAM-SHA-256"
	NameSHA256PLUS = "SCRAM-SHA-256-PLUS"
)

// Mechanism returns the *sasl.Mechanism for the given hash algorithm and
// channel-binding variant (name is one of the Name* constants).
func Mechanism(name string, hash HashAlg, plus bool) *sasl.Mechanism {
	return &sasl.Mechanism{
		Name: name,
		Client: &sasl.FuncSet{
			Start:  newClientStart(hash, plus),
			Step:   newClientStep(hash, plus),
			Finish: clientFinish,
		},
		Server: &sasl.FuncSet{
			Start:  newServerStart(hash, plus),
			Step:   newServerStep(hash, plus),
			Finish: serverFinish,
		},
	}
}

// RegisterAll registers all four SCRAM variants (SHA-1, SHA-1-PLUS,
// SHA-256, SHA-256-PLUS) into r.
func RegisterAll(r *sasl.Registry) error {
	variants := []struct {
		name string
		hash HashAlg
		plus bool
	}{
		{NameSHA1, SHA1, false},
		{NameSHA1PLUS, SHA1, true},
		{NameSHA256, SHA256, false},
		{NameSHA256PLUS, SHA256, true},
	}
	for _, v := range variants {
		if err := r.Register(Mechanism(v.name, v.hash, v.plus)); err != nil {
			return err
		}
	}
	return nil
}
