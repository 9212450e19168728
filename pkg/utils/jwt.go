package utils

import (
	"errors"
	"log/slog"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/maheshrc27/threadflow/internal/transfer"
)

const issuer = "threadflow"

func GenerateToken(secretKey, userID string, tokenDuration time.Duration) (string, error) {
	claims := transfer.CustomClaims{
		UserID:           userID,
		RegisteredClaims: registered(tokenDuration),
	}
	return sign(secretKey, claims)
}

func ValidateToken(secretKey, tokenString string) (*transfer.CustomClaims, error) {
	claims := &transfer.CustomClaims{}
	if err := parse(secretKey, tokenString, claims); err != nil {
		return nil, err
	}
	return claims, nil
}

// GenerateStateToken signs the OAuth state for connecting a persona.
func GenerateStateToken(secretKey, userID, personaID string, tokenDuration time.Duration) (string, error) {
	claims := transfer.StateClaims{
		UserID:           userID,
		PersonaID:        personaID,
		RegisteredClaims: registered(tokenDuration),
	}
	return sign(secretKey, claims)
}

func ValidateStateToken(secretKey, tokenString string) (*transfer.StateClaims, error) {
	claims := &transfer.StateClaims{}
	if err := parse(secretKey, tokenString, claims); err != nil {
		return nil, err
	}
	if claims.PersonaID == "" {
		return nil, errors.New("state token has no persona")
	}
	return claims, nil
}

func registered(d time.Duration) jwt.RegisteredClaims {
	now := time.Now()
	return jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(now.Add(d)),
		IssuedAt:  jwt.NewNumericDate(now),
		Issuer:    issuer,
	}
}

func sign(secretKey string, claims jwt.Claims) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signedToken, err := token.SignedString([]byte(secretKey))
	if err != nil {
		slog.Info(err.Error())
		return "", err
	}
	return signedToken, nil
}

func parse(secretKey, tokenString string, claims jwt.Claims) error {
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("invalid token signing method")
		}
		return []byte(secretKey), nil
	}, jwt.WithIssuer(issuer))
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	if !token.Valid {
		return errors.New("invalid token")
	}
	return nil
}
