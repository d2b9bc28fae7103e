// Package lang defines the closed set of conversation languages.
package lang

// Code selects the system instruction, the STT language hint and the TTS
// voice for a request.
type Code string

const (
	PL Code = "pl"
	EN Code = "en"
)

// Default is the fallback applied uniformly whenever a request names an
// unsupported code.
const Default = PL

var supported = map[Code]bool{
	PL: true,
	EN: true,
}

// Normalize maps an arbitrary request value onto a supported Code.
func Normalize(raw string) Code {
	c := Code(raw)
	if supported[c] {
		return c
	}
	return Default
}
