package service

import (
	"fmt"

	"github.com/maheshrc27/threadflow/pkg/utils"
)

// TokenCipher seals persona access tokens at rest.
type TokenCipher interface {
	Encrypt(plain string) (string, error)
	Decrypt(sealed string) (string, error)
}

type aesTokenCipher struct {
	key []byte
}

// NewTokenCipher uses secretKey as an AES key, so it must be 16, 24 or 32 bytes.
func NewTokenCipher(secretKey string) TokenCipher {
	return &aesTokenCipher{key: []byte(secretKey)}
}

func (c *aesTokenCipher) Encrypt(plain string) (string, error) {
	return utils.Encrypt([]byte(plain), c.key)
}

func (c *aesTokenCipher) Decrypt(sealed string) (string, error) {
	plain, err := utils.Decrypt(sealed, c.key)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidCredential, err)
	}
	return plain, nil
}
