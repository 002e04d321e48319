package account

import (
	"crypto/md5"
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"fmt"
)

const saltBytes = 16

// GenerateSalt generates a fresh random salt. A new salt is drawn for
// every password-setting operation; salts are never reused.
func GenerateSalt() (string, error) {
	salt := make([]byte, saltBytes)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("failed to generate salt: %w", err)
	}
	return base64.StdEncoding.EncodeToString(salt), nil
}

// ComputeDigest maps (plaintext, salt) to the stored one-way digest.
// The digest is deterministic: Login recomputes it from the supplied
// plaintext and the stored salt and compares against the stored value.
func ComputeDigest(plaintext, salt string) string {
	sum := md5.Sum([]byte(plaintext + salt))
	return hex.EncodeToString(sum[:])
}

// VerifyDigest reports whether digest(plaintext, salt) equals the stored
// digest, in constant time.
func VerifyDigest(plaintext, salt, stored string) bool {
	computed := ComputeDigest(plaintext, salt)
	return subtle.ConstantTimeCompare([]byte(computed), []byte(stored)) == 1
}
