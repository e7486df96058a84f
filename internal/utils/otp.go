package utils

import (
	"crypto/rand"
	"math/big"
)

// OTPLength is the number of digits in a one-time password.
const OTPLength = 4

// otpDigits omits 0 so the code never loses a leading digit when it is
// stored as an integer.
const otpDigits = "123456789"

// NewOTP returns a random OTPLength-digit code drawn from otpDigits.
func NewOTP() (int, error) {
	n := 0
	base := big.NewInt(int64(len(otpDigits)))
	for i := 0; i < OTPLength; i++ {
		idx, err := rand.Int(rand.Reader, base)
		if err != nil {
			return 0, err
		}
		n = n*10 + int(otpDigits[idx.Int64()]-'0')
	}
	return n, nil
}
