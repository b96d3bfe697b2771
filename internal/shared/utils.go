// Package shared provides small helpers for random tokens and for wiping
// sensitive byte slices.
package shared

import (
	"crypto/rand"
	"encoding/hex"
)

// RandBytes returns size bytes read from crypto/rand.
func RandBytes(size int) ([]byte, error) {
	b := make([]byte, size)
	if _, err := rand.Read(b); err != nil {
		return nil, err
	}
	return b, nil
}

// MakeRandHexString generates size random bytes and returns them encoded as
// a lowercase hexadecimal string, so the result is 2*size characters long.
//
// Example:
//
//	s, err := MakeRandHexString(16)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(s) // e.g., "9f2d4c3a5e6b1a7d0c4e8f1a2b3c4d5e"
func MakeRandHexString(size int) (string, error) {
	b, err := RandBytes(size)
	if err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// WipeByteArray overwrites b with zeros. Used to drop key material from
// memory once a copy is no longer needed. A nil slice is a no-op.
func WipeByteArray(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
