package generator

import (
	"crypto/rand"
	"errors"
	"fmt"
)

const alphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"

// bytes at or above this are rejected so every symbol is equally likely
const cutoff = 256 - 256%len(alphabet)

var ErrBadLength = errors.New("id length must be positive")

// GenerateRandomID returns a crypto-random alphanumeric id of the given length.
func GenerateRandomID(length int) (string, error) {
	if length <= 0 {
		return "", ErrBadLength
	}

	result := make([]byte, 0, length)
	buf := make([]byte, length+length/4)

	for len(result) < length {
		if _, err := rand.Read(buf); err != nil {
			return "", fmt.Errorf("read random: %w", err)
		}
		for _, b := range buf {
			if int(b) >= cutoff {
				continue
			}
			result = append(result, alphabet[int(b)%len(alphabet)])
			if len(result) == length {
				break
			}
		}
	}

	return string(result), nil
}
