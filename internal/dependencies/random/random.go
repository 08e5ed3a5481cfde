package random

import (
	"crypto/rand"
	"math/big"
)

// Random provides random number generation that can be mocked for testing
type Random interface {
	// Intn returns a random int in [0, n)
	Intn(n int) int

	// Int31 returns a random non-negative int32, i.e. in [0, 2^31 - 1]
	Int31() int32

	// Pick returns a random element of the given slice
	Pick(options []string) string
}

// CryptoRandom implements Random using crypto/rand
type CryptoRandom struct{}

// New creates a new CryptoRandom
func New() *CryptoRandom {
	return &CryptoRandom{}
}

// Intn returns a cryptographically random int in [0, n)
func (r *CryptoRandom) Intn(n int) int {
	if n <= 0 {
		return 0
	}
	max := big.NewInt(int64(n))
	result, err := rand.Int(rand.Reader, max)
	if err != nil {
		// Fall back to 0 on error (should never happen with crypto/rand)
		return 0
	}
	return int(result.Int64())
}

// Int31 returns a cryptographically random int32 in [0, 2^31 - 1]
func (r *CryptoRandom) Int31() int32 {
	return int32(r.Intn(1 << 31))
}

// Pick returns a random element of options, or "" if options is empty
func (r *CryptoRandom) Pick(options []string) string {
	if len(options) == 0 {
		return ""
	}
	return options[r.Intn(len(options))]
}
