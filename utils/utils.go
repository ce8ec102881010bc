package utils

import (
	"fmt"
	"strconv"

	"github.com/sirupsen/logrus"
)

// GenerateRateLimitKey creates a unique key for rate limiting
func GenerateRateLimitKey(userID uint, path string) string {
	return fmt.Sprintf("rl:%d:%s", userID, path)
}

// LogEvent logs a structured domain event
func LogEvent(eventType string, data map[string]interface{}) {
	logrus.WithFields(logrus.Fields(data)).Info(eventType)
}

// Pointer returns a pointer to the given value
func Pointer[T any](v T) *T {
	return &v
}

func fmtUint(v uint) string {
	return strconv.FormatUint(uint64(v), 10)
}

// FormatMoney renders cents as a display amount, e.g. "$500.00".
func FormatMoney(cents int64, currency string) string {
	symbol := ""
	if currency == "usd" || currency == "USD" {
		symbol = "$"
	}
	return fmt.Sprintf("%s%.2f", symbol, float64(cents)/100)
}
