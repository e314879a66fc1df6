package runtime

import (
	"math/rand/v2"
	"strings"
)

// DefaultCodeAlphabet matches the original deployment: short numeric codes
// players can type from a phone.
const DefaultCodeAlphabet = "1234567890"

// CodeAllocator mints room codes from a fixed alphabet. Collisions are
// resolved by retrying against the caller-supplied occupancy check; with a
// 4-digit numeric space and the expected concurrent-room count, retries are
// rare enough that no upper bound is imposed.
type CodeAllocator struct {
	alphabet string
	length   int
	intN     func(n int) int // swappable for deterministic tests
}

func NewCodeAllocator(alphabet string, length int) *CodeAllocator {
	if alphabet == "" {
		alphabet = DefaultCodeAlphabet
	}
	return &CodeAllocator{alphabet: alphabet, length: length, intN: rand.IntN}
}

// Next returns a code for which taken reports false.
func (a *CodeAllocator) Next(taken func(code string) bool) string {
	for {
		code := a.generate()
		if !taken(code) {
			return code
		}
	}
}

func (a *CodeAllocator) generate() string {
	var sb strings.Builder
	sb.Grow(a.length)
	for i := 0; i < a.length; i++ {
		sb.WriteByte(a.alphabet[a.intN(len(a.alphabet))])
	}
	return sb.String()
}
