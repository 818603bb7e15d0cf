package util

import (
	"crypto/md5"
	"encoding/json"
	"math/big"

	"github.com/google/uuid"
)

// HashUUID derives a stable name-based UUID from the JSON form of value,
// so the same input always names the same display set
func HashUUID(value any) string {
	id, ok := hashUUID(value)
	if !ok {
		return ""
	}
	return id.String()
}

// HashUID is HashUUID rendered as a DICOM UID under the 2.25 root
func HashUID(value any) string {
	id, ok := hashUUID(value)
	if !ok {
		return ""
	}
	return "2.25." + new(big.Int).SetBytes(id[:]).String()
}

func hashUUID(value any) (uuid.UUID, bool) {
	raw, err := json.Marshal(value)
	if err != nil {
		return uuid.Nil, false
	}
	hash := md5.Sum(raw)
	id, err := uuid.FromBytes(hash[:])
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}
