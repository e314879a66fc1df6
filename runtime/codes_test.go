package runtime

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCodeAllocator_GeneratesFromAlphabet(t *testing.T) {
	allocator := NewCodeAllocator(DefaultCodeAlphabet, 4)

	code := allocator.Next(func(string) bool { return false })

	require.Len(t, code, 4)
	for _, c := range code {
		require.Contains(t, DefaultCodeAlphabet, string(c))
	}
}

func TestCodeAllocator_RetriesOnCollision(t *testing.T) {
	allocator := NewCodeAllocator(DefaultCodeAlphabet, 4)
	sequence := []int{0, 0, 0, 0, 1, 1, 1, 1}
	var calls int
	allocator.intN = func(int) int {
		v := sequence[calls%len(sequence)]
		calls++
		return v
	}

	// "1111" is taken; the allocator must come back with "2222".
	code := allocator.Next(func(code string) bool { return code == "1111" })

	require.Equal(t, "2222", code)
	require.Equal(t, 8, calls)
}
