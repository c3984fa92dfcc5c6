package digestmd5

import "golang.org/x/text/encoding/charmap"

// toLatin1IfLossless converts a password from UTF-8 to ISO-8859-1 if and
// only if a lossless conversion exists, keeping UTF-8 otherwise.
// ISO-8859-1 transcoding is a legacy charset conversion, not a stringprep
// profile, so it belongs to golang.org/x/text/encoding rather than the
// SASLprep/precis family.
func toLatin1IfLossless(s string) string {
	out, err := charmap.ISO8859_1.NewEncoder().String(s)
	if err != nil {
		return s
	}
	return out
}

// fromLatin1ToUTF8 reverses the server-side direction: a response whose
// charset flag is unset carries its username/realm/authzid as ISO-8859-1
// octets, which must be published to the application as UTF-8.
func fromLatin1ToUTF8(s string) string {
	out, err := charmap.ISO8859_1.NewDecoder().String(s)
	if err != nil {
		return s
	}
	return out
}
