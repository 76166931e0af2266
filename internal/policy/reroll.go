package policy

import (
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"math/rand/v2"
)

// FieldRand derives an independent PRNG stream for one named field. Hashing
// (seed, reroll, field) through sha256 and seeding from the digest prefix
// lets any single field be rerolled reproducibly without perturbing the
// streams of other fields.
func FieldRand(seed, reroll int64, field string) *rand.Rand {
	token := fmt.Sprintf("%d::%d::%s", seed, reroll, field)
	digest := sha256.Sum256([]byte(token))
	hi := binary.BigEndian.Uint64(digest[:8])
	lo := binary.BigEndian.Uint64(digest[8:16])
	return rand.New(rand.NewPCG(hi, lo))
}
