package dcm

import (
	"math/big"
	"strings"

	"github.com/google/uuid"
)

// UUIDRoot is the UID root under which a UUID rendered as an integer is a valid UID
const UUIDRoot = "2.25"

const maxUIDLength = 64

// GenerateUID generates a DICOM unique identifier (UID) from a random UUID.
// With the 2.25 root (or an empty prefix) the UUID's 128 bit integer is the whole
// suffix, otherwise the integer is appended to the prefix and trimmed to 64 characters.
func GenerateUID(prefix string) string {
	id := uuid.New()
	n := new(big.Int).SetBytes(id[:]).String()

	prefix = strings.TrimSuffix(prefix, ".")
	if prefix == "" {
		prefix = UUIDRoot
	}
	uid := prefix + "." + n
	if len(uid) > maxUIDLength {
		uid = uid[:maxUIDLength]
	}
	return uid
}
