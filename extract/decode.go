package extract

import (
	"fmt"
	"strings"

	"golang.org/x/text/encoding/htmlindex"
)

// bom is the UTF-8 byte order mark some editors prepend.
const bom = "\ufeff"

// Decode converts data from the named encoding to UTF-8. Names are those of
// the WHATWG encoding standard ("latin1", "utf-16le", "shift_jis", ...);
// an empty name means UTF-8.
func Decode(data []byte, encoding string) (string, error) {
	name := strings.ToLower(strings.TrimSpace(encoding))
	if name == "" || name == "utf-8" || name == "utf8" {
		return strings.TrimPrefix(string(data), bom), nil
	}

	enc, err := htmlindex.Get(name)
	if err != nil {
		return "", fmt.Errorf("unknown encoding %q: %w", encoding, err)
	}
	decoded, err := enc.NewDecoder().Bytes(data)
	if err != nil {
		return "", fmt.Errorf("decode %s: %w", encoding, err)
	}
	return strings.TrimPrefix(string(decoded), bom), nil
}
