package core

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

const (
	defaultPasswordLength = 12
	minPasswordLength     = 8

	passwordUppercase = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	passwordLowercase = "abcdefghijklmnopqrstuvwxyz"
	passwordDigits    = "0123456789"
	passwordSymbols   = "!@#$%^&*()-_=+[]{}<>?"
)

// GeneratePassword produces a temporary account password of the given length
// (default 12, minimum 8) containing at least one uppercase letter, one
// lowercase letter, one digit, and one symbol. The guaranteed characters are
// shuffled into random positions so they are not front-loaded. All randomness
// comes from crypto/rand: the result is a real, if temporary, credential.
func GeneratePassword(length int) (string, error) {
	if length <= 0 {
		length = defaultPasswordLength
	}
	if length < minPasswordLength {
		return "", fmt.Errorf("core: password length %d is below the minimum of %d", length, minPasswordLength)
	}

	combined := passwordUppercase + passwordLowercase + passwordDigits + passwordSymbols

	buf := make([]byte, 0, length)
	for _, alphabet := range []string{
		passwordUppercase,
		passwordLowercase,
		passwordDigits,
		passwordSymbols,
	} {
		ch, err := randomByte(alphabet)
		if err != nil {
			return "", err
		}
		buf = append(buf, ch)
	}
	for len(buf) < length {
		ch, err := randomByte(combined)
		if err != nil {
			return "", err
		}
		buf = append(buf, ch)
	}

	// Fisher-Yates with crypto/rand indices.
	for i := len(buf) - 1; i > 0; i-- {
		j, err := randomIndex(i + 1)
		if err != nil {
			return "", err
		}
		buf[i], buf[j] = buf[j], buf[i]
	}

	return string(buf), nil
}

func randomByte(alphabet string) (byte, error) {
	idx, err := randomIndex(len(alphabet))
	if err != nil {
		return 0, err
	}
	return alphabet[idx], nil
}

func randomIndex(bound int) (int, error) {
	if bound <= 0 {
		return 0, fmt.Errorf("core: random index bound must be positive")
	}
	n, err := rand.Int(rand.Reader, big.NewInt(int64(bound)))
	if err != nil {
		return 0, fmt.Errorf("core: read random index: %w", err)
	}
	return int(n.Int64()), nil
}
