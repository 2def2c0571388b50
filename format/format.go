package format

import (
	"encoding"

	"github.com/dhamidi/tsbind/java"
)

// Encoder writes a declaration in some output format.
type Encoder interface {
	encoding.TextMarshaler
	Encode(decl *java.Declaration) error
}

var (
	_ Encoder = (*TypeScriptEncoder)(nil)
	_ Encoder = (*LineModelEncoder)(nil)
	_ Encoder = (*JSONModelEncoder)(nil)
)
