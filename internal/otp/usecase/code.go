package usecase

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
)

var ten = big.NewInt(10)

// generateCode returns n uniformly random decimal digits.
func generateCode(n int) (string, error) {
	var b strings.Builder
	b.Grow(n)

	for range n {
		d, err := rand.Int(rand.Reader, ten)
		if err != nil {
			return "", fmt.Errorf("read random digit: %w", err)
		}
		b.WriteByte(byte('0' + d.Int64()))
	}

	return b.String(), nil
}

func renderMessage(appName, code string, validMinutes int) string {
	return fmt.Sprintf("Your %s verification code is: %s. Valid for %d minutes. Do not share with anyone.",
		appName, code, validMinutes)
}
