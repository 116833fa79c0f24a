package utils

import (
	"crypto/rand"
	"math/big"

	"github.com/google/uuid"
	"github.com/scythe504/triplay-backend/internal"
)

// =============================================================================
// UTILITY FUNCTIONS
// =============================================================================

// roomCodeAlphabet leaves out characters that are easy to misread (0/O, 1/I).
const roomCodeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// GenerateID returns a guest user, round or question id.
func GenerateID() string {
	return uuid.NewString()
}

// GenerateRoomCode returns a short code players can type on their phone.
func GenerateRoomCode() string {
	code := make([]byte, internal.RoomCodeLength)
	limit := big.NewInt(int64(len(roomCodeAlphabet)))
	for i := range code {
		n, err := rand.Int(rand.Reader, limit)
		if err != nil {
			// crypto/rand does not fail on supported platforms
			panic(err)
		}
		code[i] = roomCodeAlphabet[n.Int64()]
	}
	return string(code)
}
