package security

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
)

// Opaque bearer tokens travel as "<record id>|<secret>". The secret half is a
// URL-safe random string; only its peppered SHA-256 digest is persisted.

func NewRandomString(n int) (string, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

func FormatAccessToken(id uint, secret string) string {
	return fmt.Sprintf("%d|%s", id, secret)
}

func SplitAccessToken(plaintext string) (id uint, secret string, err error) {
	idPart, secretPart, found := strings.Cut(plaintext, "|")
	if !found || idPart == "" || secretPart == "" {
		return 0, "", fmt.Errorf("malformed access token")
	}
	id64, err := strconv.ParseUint(idPart, 10, 64)
	if err != nil {
		return 0, "", fmt.Errorf("malformed access token")
	}
	return uint(id64), secretPart, nil
}

func HashTokenSecret(secret, pepper string) string {
	sum := sha256.Sum256([]byte(secret + pepper))
	return hex.EncodeToString(sum[:])
}

func TokenHashEqual(a, b string) bool {
	return hmac.Equal([]byte(a), []byte(b))
}

func SignState(state, key string) string {
	mac := hmac.New(sha256.New, []byte(key))
	mac.Write([]byte(state))
	return state + "." + base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}

func VerifySignedState(signed, key string) (string, bool) {
	state, _, found := strings.Cut(signed, ".")
	if !found || state == "" {
		return "", false
	}
	if !hmac.Equal([]byte(SignState(state, key)), []byte(signed)) {
		return "", false
	}
	return state, true
}
