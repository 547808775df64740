package utils

import (
	"crypto/rand"
	"math/big"
)

// RandomIndex returns a uniform random index in [0, n). n must be positive.
func RandomIndex(n int) int {
	num, err := rand.Int(rand.Reader, big.NewInt(int64(n)))
	if err != nil {
		// crypto rand failing is effectively fatal for the process,
		// but a skewed pick is harmless here
		return 0
	}
	return int(num.Int64())
}

// PickInt64 returns a uniform random element of ids.
func PickInt64(ids []int64) int64 {
	return ids[RandomIndex(len(ids))]
}
