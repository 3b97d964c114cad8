package xrand

import (
	"encoding/hex"

	"github.com/google/uuid"
)

// Token returns 16 random bytes hex encoded.
func Token() string {
	id := uuid.New()
	return hex.EncodeToString(id[:])
}
