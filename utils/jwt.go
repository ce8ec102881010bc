package utils

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"uvocollab/config"
	"uvocollab/models"
)

type Claims struct {
	UserID       uint   `json:"user_id"`
	Role         string `json:"role"`
	TokenVersion int    `json:"token_version"`
	SessionID    string `json:"session_id"`
	jwt.RegisteredClaims
}

// GenerateJWTToken issues an access/refresh pair and persists the
// refresh token so the session can be revoked.
func GenerateJWTToken(user *models.User, userAgent, ip string) (string, string, string, error) {
	sessionID := uuid.NewString()

	// Access token (15 minutes expiry)
	accessClaims := &Claims{
		UserID:       user.ID,
		Role:         user.Role,
		TokenVersion: user.TokenVersion,
		SessionID:    sessionID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(15 * time.Minute)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}

	accessToken := jwt.NewWithClaims(jwt.SigningMethodHS256, accessClaims)
	accessTokenString, err := accessToken.SignedString([]byte(config.AppConfig.JWTSecret))
	if err != nil {
		return "", "", "", err
	}

	// Refresh token (7 days expiry)
	refreshExpiry := time.Now().Add(7 * 24 * time.Hour)
	refreshClaims := &Claims{
		UserID:       user.ID,
		Role:         user.Role,
		TokenVersion: user.TokenVersion,
		SessionID:    sessionID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(refreshExpiry),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}

	refreshToken := jwt.NewWithClaims(jwt.SigningMethodHS256, refreshClaims)
	refreshTokenString, err := refreshToken.SignedString([]byte(config.AppConfig.JWTSecret))
	if err != nil {
		return "", "", "", err
	}

	if config.DB != nil {
		record := models.RefreshToken{
			UserID:    user.ID,
			Token:     refreshTokenString,
			SessionID: sessionID,
			UserAgent: userAgent,
			IPAddress: ip,
			ExpiresAt: refreshExpiry,
		}
		if err := config.DB.Create(&record).Error; err != nil {
			return "", "", "", err
		}
	}

	return accessTokenString, refreshTokenString, sessionID, nil
}

func ParseJWTToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(config.AppConfig.JWTSecret), nil
	})

	if err != nil {
		return nil, err
	}

	if claims, ok := token.Claims.(*Claims); ok && token.Valid {
		return claims, nil
	}

	return nil, errors.New("invalid token")
}

// RefreshTokens rotates the pair: validates the presented refresh
// token against the stored, unrevoked record, then issues new tokens.
func RefreshTokens(refreshToken, userAgent, ip string) (string, string, string, error) {
	claims, err := ParseJWTToken(refreshToken)
	if err != nil {
		return "", "", "", err
	}

	if time.Until(claims.ExpiresAt.Time) <= 0 {
		return "", "", "", errors.New("refresh token expired")
	}

	var record models.RefreshToken
	if err := config.DB.Where("token = ? AND revoked_at IS NULL", refreshToken).First(&record).Error; err != nil {
		return "", "", "", errors.New("refresh token not recognized")
	}

	var user models.User
	if err := config.DB.First(&user, claims.UserID).Error; err != nil {
		return "", "", "", errors.New("user not found")
	}
	if user.TokenVersion != claims.TokenVersion {
		return "", "", "", errors.New("token has been revoked")
	}

	now := time.Now()
	config.DB.Model(&record).Update("revoked_at", &now)

	return GenerateJWTToken(&user, userAgent, ip)
}

// RevokeSession revokes every refresh token tied to a session id.
func RevokeSession(sessionID string) error {
	now := time.Now()
	return config.DB.Model(&models.RefreshToken{}).
		Where("session_id = ? AND revoked_at IS NULL", sessionID).
		Update("revoked_at", &now).Error
}
