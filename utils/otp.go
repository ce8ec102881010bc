package utils

import (
	"crypto/rand"
	"encoding/hex"
	"math/big"
	"time"

	"uvocollab/config"
	"uvocollab/models"
)

const (
	OTPLength         = 6
	OTPExpiry         = 15 * time.Minute
	OTPResendCooldown = 1 * time.Minute
)

func GenerateOTP() (string, error) {
	const digits = "0123456789"
	otp := make([]byte, OTPLength)

	for i := range otp {
		num, err := rand.Int(rand.Reader, big.NewInt(int64(len(digits))))
		if err != nil {
			return "", err
		}
		otp[i] = digits[num.Int64()]
	}

	return string(otp), nil
}

func GenerateSecureToken() (string, error) {
	token := make([]byte, 32)
	if _, err := rand.Read(token); err != nil {
		return "", err
	}
	return hex.EncodeToString(token), nil
}

func SaveOTP(userID uint, otp string) error {
	expiresAt := time.Now().Add(OTPExpiry)

	return config.DB.Model(&models.User{}).
		Where("id = ?", userID).
		Updates(map[string]interface{}{
			"otp":            otp,
			"otp_expires_at": expiresAt,
			"otp_verified":   false,
		}).Error
}

// VerifyOTP checks the stored code and clears it on success.
func VerifyOTP(user *models.User, otp string) bool {
	if user.OTP == "" || user.OTP != otp {
		return false
	}
	if time.Now().After(user.OTPExpiresAt) {
		return false
	}

	config.DB.Model(user).Updates(map[string]interface{}{
		"otp":          "",
		"otp_verified": true,
	})
	return true
}
