package serialization

import (
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/zeebo/blake3"
)

// definitionDomainKey separates definition fingerprints from any other
// BLAKE3 use. Changing it changes every recorded fingerprint.
var definitionDomainKey = [32]byte{
	'g', 'r', 'a', 'p', 'h', 'f', 'l', 'o', 'w', '.', 'd', 'e', 'f', 'i', 'n', 'i',
	't', 'i', 'o', 'n', 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0,
}

// Fingerprint returns the hex BLAKE3 keyed hash of v's canonical JSON form.
// encoding/json emits struct fields in declaration order and map keys
// sorted, so equal values always hash equal.
func Fingerprint(v interface{}) (string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("fingerprint encoding failed: %w", err)
	}
	h, err := blake3.NewKeyed(definitionDomainKey[:])
	if err != nil {
		return "", err
	}
	_, _ = h.Write(data)
	return hex.EncodeToString(h.Sum(nil)), nil
}
