package common

import (
	"crypto/rand"
	"math/big"
	"strings"
)

// GenerateVerificationKey returns a random numeric key of the given length.
func GenerateVerificationKey(length int) (string, error) {
	var sb strings.Builder
	sb.Grow(length)
	ten := big.NewInt(10)
	for i := 0; i < length; i++ {
		d, err := rand.Int(rand.Reader, ten)
		if err != nil {
			return "", err
		}
		sb.WriteByte(byte('0' + d.Int64()))
	}
	return sb.String(), nil
}
