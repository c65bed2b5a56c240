package app

import (
    crand "crypto/rand"
    "encoding/binary"
    "fmt"

    "github.com/google/uuid"
)

func newGameID() string { return uuid.NewString() }

// newSeed draws a PRNG seed from crypto/rand.
func newSeed() (uint64, error) {
    var b [8]byte
    if _, err := crand.Read(b[:]); err != nil {
        return 0, fmt.Errorf("read random seed: %w", err)
    }
    return binary.LittleEndian.Uint64(b[:]), nil
}
