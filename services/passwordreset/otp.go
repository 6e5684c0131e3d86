package passwordreset

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

// generateOtp produces a fixed-length numeric code with leading zeros
// preserved.
func generateOtp(length int) (string, error) {
	limit := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(length)), nil)
	n, err := rand.Int(rand.Reader, limit)
	if err != nil {
		return "", fmt.Errorf("failed to generate otp: %w", err)
	}
	return fmt.Sprintf("%0*d", length, n), nil
}
