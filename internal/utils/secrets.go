package utils

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
)

const jwtSecretBytes = 32 // 256-bit

// GenerateSecret returns n random bytes, hex encoded.
func GenerateSecret(n int) (string, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to read random bytes: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

// GenerateJWTSecrets returns a fresh access/refresh secret pair; the two
// secrets are never the same value.
func GenerateJWTSecrets() (accessSecret, refreshSecret string, err error) {
	accessSecret, err = GenerateSecret(jwtSecretBytes)
	if err != nil {
		return "", "", fmt.Errorf("failed to generate access secret: %w", err)
	}

	refreshSecret, err = GenerateSecret(jwtSecretBytes)
	if err != nil {
		return "", "", fmt.Errorf("failed to generate refresh secret: %w", err)
	}

	return accessSecret, refreshSecret, nil
}
