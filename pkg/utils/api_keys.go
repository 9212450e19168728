package utils

import (
	"crypto/sha256"
	"encoding/hex"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

const apiKeyPrefix = "tf_"

// GenerateApiKey returns a url-safe random key with a recognizable prefix.
func GenerateApiKey() (string, error) {
	id, err := gonanoid.New(40)
	if err != nil {
		return "", err
	}
	return apiKeyPrefix + id, nil
}

// HashApiKey is the form a key is stored and looked up in.
func HashApiKey(key string) string {
	sum := sha256.Sum256([]byte(key))
	return hex.EncodeToString(sum[:])
}

// ApiKeyHint is the leading part of a key shown in listings.
func ApiKeyHint(key string) string {
	n := len(apiKeyPrefix) + 6
	if len(key) < n {
		return key
	}
	return key[:n]
}

// GenerateObjectKey names an uploaded file under the given folder.
func GenerateObjectKey(folder, ext string) (string, error) {
	id, err := gonanoid.New()
	if err != nil {
		return "", err
	}
	if ext != "" {
		id += "." + ext
	}
	return folder + "/" + id, nil
}
